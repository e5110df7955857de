// Package cmd provides the CLI commands for dumpextract.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meigma/multistream/internal/config"
	"github.com/meigma/multistream/internal/logging"
)

// globalOptions holds the persistent flags and the state resolved from them
// before any subcommand runs.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	quiet      bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root command for the dumpextract CLI.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "dumpextract",
		Short: "Find and extract documents from multistream compressed dumps",
		Long: `dumpextract reads the line index that ships with a multistream dump
(such as the Wikipedia pages-articles-multistream files) and pulls single
documents out of the archive without decompressing all of it.

Every record in the index is "offset:id:title". Only the blocks holding
the requested documents are read and decompressed.

Examples:
  dumpextract search --index index.txt.bz2 --title "Ada Lovelace"
  dumpextract extract --index index.txt.bz2 --archive dump.xml.bz2 --id 12 --id 25
  dumpextract extract --archive https://example.org/dump.xml.bz2 --pattern '^Go ' -o pages/`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to a YAML configuration file")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: text, json")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "Never draw a progress bar")

	cmd.AddCommand(newSearchCmd(g))
	cmd.AddCommand(newExtractCmd(g))
	cmd.AddCommand(newConfigCmd(g))

	return cmd
}

// Execute runs the root command, cancelling it on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// setup loads the configuration, applies the persistent flags and builds
// the logger. Diagnostics always go to stderr.
func (g *globalOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	g.cfg = cfg
	g.logger = logging.New(cmd.ErrOrStderr(), logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return nil
}

// validate re-checks the configuration after command flags were applied.
func (g *globalOptions) validate() error {
	if err := g.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// progress returns a progress bar on stderr, or nil when stderr is not a
// terminal or --quiet is set.
func (g *globalOptions) progress(cmd *cobra.Command) *progressBar {
	if g.quiet {
		return nil
	}
	return newProgressBar(cmd.ErrOrStderr())
}
