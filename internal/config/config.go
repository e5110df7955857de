// Package config loads the dumpextract configuration file.
//
// Configuration is resolved in three layers, each overriding the previous:
// built-in defaults, an optional YAML file, and MULTISTREAM_* environment
// variables. Command-line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/meigma/multistream/internal/dumptype"
)

// Config is the full dumpextract configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index" json:"index"`
	Archive ArchiveConfig `yaml:"archive" json:"archive"`
	Schema  SchemaConfig  `yaml:"schema" json:"schema"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// IndexConfig describes the index file.
type IndexConfig struct {
	Path        string `yaml:"path" json:"path"`
	Separator   string `yaml:"separator" json:"separator"`
	Compression string `yaml:"compression" json:"compression"`
}

// ArchiveConfig describes the archive and how blocks are decoded.
type ArchiveConfig struct {
	// Path is a local file path or an http(s) URL.
	Path         string `yaml:"path" json:"path"`
	Compression  string `yaml:"compression" json:"compression"`
	Workers      int    `yaml:"workers" json:"workers"`
	ReadAhead    int    `yaml:"read_ahead" json:"read_ahead"`
	MaxBlockSize uint64 `yaml:"max_block_size" json:"max_block_size"`
	Encoding     string `yaml:"encoding" json:"encoding"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`

	// RequestInterval spaces range requests to a remote archive; zero disables the limit.
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`
}

// SchemaConfig names the document elements.
type SchemaConfig struct {
	Document string `yaml:"document" json:"document"`
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
}

// OutputConfig controls where extracted documents go.
type OutputConfig struct {
	// Dir writes one file per document when set; otherwise documents go to stdout.
	Dir       string `yaml:"dir" json:"dir"`
	Overwrite bool   `yaml:"overwrite" json:"overwrite"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Separator:   string(dumptype.DefaultSeparator),
			Compression: "auto",
		},
		Archive: ArchiveConfig{
			Compression:  "auto",
			Workers:      1,
			MaxBlockSize: 256 << 20,
			UserAgent:    "dumpextract (+https://github.com/meigma/multistream)",
		},
		Schema: SchemaConfig{
			Document: dumptype.DefaultSchema.Document,
			ID:       dumptype.DefaultSchema.ID,
			Title:    dumptype.DefaultSchema.Title,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load returns the configuration from path layered over the defaults, with
// environment overrides applied. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // User-provided path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// decode merges YAML data into c. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MULTISTREAM_INDEX"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("MULTISTREAM_ARCHIVE"); v != "" {
		c.Archive.Path = v
	}
	if v := os.Getenv("MULTISTREAM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Archive.Workers = n
		}
	}
	if v := os.Getenv("MULTISTREAM_USER_AGENT"); v != "" {
		c.Archive.UserAgent = v
	}
	if v := os.Getenv("MULTISTREAM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks field values. Paths are not checked for existence.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Index.Separator) != 1 {
		return fmt.Errorf("index.separator must be a single character, got %q", c.Index.Separator)
	}
	if r := c.SeparatorRune(); r >= '0' && r <= '9' || r == '\n' || r == '\r' {
		return fmt.Errorf("index.separator cannot be a digit or line break, got %q", c.Index.Separator)
	}
	if _, err := dumptype.ParseCompression(c.Index.Compression); err != nil {
		return fmt.Errorf("index.compression: %w", err)
	}
	if _, err := dumptype.ParseCompression(c.Archive.Compression); err != nil {
		return fmt.Errorf("archive.compression: %w", err)
	}
	if c.Archive.Workers < 1 {
		return fmt.Errorf("archive.workers must be at least 1, got %d", c.Archive.Workers)
	}
	if c.Archive.ReadAhead < 0 {
		return fmt.Errorf("archive.read_ahead cannot be negative, got %d", c.Archive.ReadAhead)
	}
	if c.Archive.RequestInterval < 0 {
		return fmt.Errorf("archive.request_interval cannot be negative, got %s", c.Archive.RequestInterval)
	}
	if c.Schema.Document == "" || c.Schema.ID == "" || c.Schema.Title == "" {
		return errors.New("schema.document, schema.id and schema.title must be set")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("log.format must be 'text' or 'json', got %s", c.Log.Format)
	}
	return nil
}

// SeparatorRune returns the index separator as a rune.
func (c *Config) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Index.Separator)
	return r
}

// DocumentSchema returns the configured element names.
func (c *Config) DocumentSchema() dumptype.Schema {
	return dumptype.Schema{Document: c.Schema.Document, ID: c.Schema.ID, Title: c.Schema.Title}
}

// IsRemoteArchive reports whether the archive path is an http(s) URL.
func (c *Config) IsRemoteArchive() bool {
	p := strings.ToLower(c.Archive.Path)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// WriteYAML writes the configuration to w.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
