package cmd

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/meigma/multistream"
	"github.com/meigma/multistream/internal/config"
)

// queryOptions holds the index and query flags shared by search and extract.
type queryOptions struct {
	index            string
	separator        string
	indexCompression string

	ids     []int64
	titles  []string
	pattern string
}

func (o *queryOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.index, "index", "i", "", "Path to the index file (plain, bzip2, gzip or zstd)")
	f.StringVar(&o.separator, "separator", "", "Field separator used in the index (default \":\")")
	f.StringVar(&o.indexCompression, "index-compression", "", "Index compression: auto, none, bzip2, gzip, zstd")
	f.Int64SliceVar(&o.ids, "id", nil, "Document id to find (repeatable)")
	f.StringArrayVarP(&o.titles, "title", "t", nil, "Exact document title to find (repeatable)")
	f.StringVarP(&o.pattern, "pattern", "p", "", "Regular expression matched against titles")
}

// apply copies explicitly set flags over cfg.
func (o *queryOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("index") {
		cfg.Index.Path = o.index
	}
	if f.Changed("separator") {
		cfg.Index.Separator = o.separator
	}
	if f.Changed("index-compression") {
		cfg.Index.Compression = o.indexCompression
	}
}

// query builds the search query. At least one predicate is required.
func (o *queryOptions) query() (multistream.Query, error) {
	q := multistream.Query{IDs: o.ids, Titles: o.titles}
	if o.pattern != "" {
		re, err := regexp.Compile(o.pattern)
		if err != nil {
			return q, fmt.Errorf("invalid --pattern: %w", err)
		}
		q.Pattern = re
	}
	if q.IsEmpty() {
		return q, errors.New("nothing to search for: use --id, --title or --pattern")
	}
	return q, nil
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the index and print matching records",
		Long: `Search the index for documents by id, exact title or title pattern
and print the matching records in index format.

A record matching several predicates is printed once. Records are printed
in index order.

Examples:
  dumpextract search --index index.txt --id 12 --id 25
  dumpextract search --index index.txt.bz2 --title "Ada Lovelace"
  dumpextract search --index index.txt.bz2 --pattern '(?i)^alan '`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd.Context(), cmd, g, opts)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, g *globalOptions, opts queryOptions) error {
	opts.apply(cmd, g.cfg)
	if err := g.validate(); err != nil {
		return err
	}
	q, err := opts.query()
	if err != nil {
		return err
	}

	records, err := scanIndex(ctx, cmd, g, q)
	if err != nil {
		return err
	}

	sep := g.cfg.SeparatorRune()
	out := cmd.OutOrStdout()
	for _, rec := range records {
		if _, err := fmt.Fprintln(out, rec.Format(sep)); err != nil {
			return err
		}
	}
	return nil
}

// scanIndex runs q against the configured index file.
func scanIndex(ctx context.Context, cmd *cobra.Command, g *globalOptions, q multistream.Query) ([]multistream.Record, error) {
	cfg := g.cfg
	if cfg.Index.Path == "" {
		return nil, errors.New("no index file: use --index or set index.path")
	}
	compression, err := multistream.ParseCompression(cfg.Index.Compression)
	if err != nil {
		return nil, err
	}

	bar := g.progress(cmd)
	idx, err := multistream.OpenIndex(cfg.Index.Path,
		multistream.WithSeparator(cfg.SeparatorRune()),
		multistream.WithIndexCompression(compression),
		multistream.WithScannerProgress(bar.Update),
		multistream.WithScannerLogger(g.logger),
	)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	records, err := idx.Search(ctx, q)
	bar.Finish()
	if err != nil {
		return nil, err
	}
	g.logger.Info("index searched", "path", cfg.Index.Path, "matches", len(records))
	return records, nil
}
