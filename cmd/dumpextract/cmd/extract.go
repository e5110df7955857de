package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/meigma/multistream"
	mshttp "github.com/meigma/multistream/http"
	"github.com/meigma/multistream/internal/batch"
	"github.com/meigma/multistream/internal/config"
)

// extractOptions holds CLI flags for extract.
type extractOptions struct {
	queryOptions

	archive      string
	compression  string
	workers      int
	readAhead    int
	maxBlockSize uint64
	encoding     string
	userAgent    string
	interval     time.Duration
	outputDir    string
	overwrite    bool
}

func newExtractCmd(g *globalOptions) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract matching documents from the archive",
		Long: `Search the index, then decompress only the archive blocks that hold
the matching documents and write each document as XML.

Documents are written to stdout, or one file per document (named by id)
when --output-dir is set. The archive may be a local file or an http(s)
URL served with range request support.

Examples:
  dumpextract extract --index index.txt.bz2 --archive dump.xml.bz2 --id 12
  dumpextract extract -i index.txt.bz2 -a dump.xml.bz2 -p '^Go ' -o pages/ -w 4
  dumpextract extract -i index.txt.bz2 -a https://example.org/dump.xml.bz2 -t "Ada Lovelace"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd.Context(), cmd, g, opts)
		},
	}
	opts.addFlags(cmd)

	f := cmd.Flags()
	f.StringVarP(&opts.archive, "archive", "a", "", "Archive path or http(s) URL")
	f.StringVar(&opts.compression, "compression", "", "Archive compression: auto, bzip2, gzip, zstd")
	f.IntVarP(&opts.workers, "workers", "w", 0, "Blocks decompressed in parallel")
	f.IntVar(&opts.readAhead, "read-ahead", 0, "Decoded blocks buffered ahead of output (default twice --workers)")
	f.Uint64Var(&opts.maxBlockSize, "max-block-size", 0, "Largest decompressed block in bytes (0 disables the limit)")
	f.StringVar(&opts.encoding, "encoding", "", "Text encoding of the archive, e.g. iso-8859-1 (default UTF-8)")
	f.StringVar(&opts.userAgent, "user-agent", "", "User-Agent sent when reading a remote archive")
	f.DurationVar(&opts.interval, "request-interval", 0, "Minimum time between range requests to a remote archive")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Write one file per document into this directory")
	f.BoolVar(&opts.overwrite, "overwrite", false, "Replace existing files in --output-dir")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (o *extractOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	o.queryOptions.apply(cmd, cfg)

	f := cmd.Flags()
	if f.Changed("archive") {
		cfg.Archive.Path = o.archive
	}
	if f.Changed("compression") {
		cfg.Archive.Compression = o.compression
	}
	if f.Changed("workers") {
		cfg.Archive.Workers = o.workers
	}
	if f.Changed("read-ahead") {
		cfg.Archive.ReadAhead = o.readAhead
	}
	if f.Changed("max-block-size") {
		cfg.Archive.MaxBlockSize = o.maxBlockSize
	}
	if f.Changed("encoding") {
		cfg.Archive.Encoding = o.encoding
	}
	if f.Changed("user-agent") {
		cfg.Archive.UserAgent = o.userAgent
	}
	if f.Changed("request-interval") {
		cfg.Archive.RequestInterval = o.interval
	}
	if f.Changed("output-dir") {
		cfg.Output.Dir = o.outputDir
	}
	if f.Changed("overwrite") {
		cfg.Output.Overwrite = o.overwrite
	}
}

func runExtract(ctx context.Context, cmd *cobra.Command, g *globalOptions, opts extractOptions) error {
	opts.apply(cmd, g.cfg)
	if err := g.validate(); err != nil {
		return err
	}
	if g.cfg.Archive.Path == "" {
		return errors.New("no archive: use --archive or set archive.path")
	}
	q, err := opts.query()
	if err != nil {
		return err
	}

	records, err := scanIndex(ctx, cmd, g, q)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "no matching records")
		return nil
	}

	bar := g.progress(cmd)
	extractor, closeArchive, err := openExtractor(ctx, g, bar)
	if err != nil {
		return err
	}
	defer closeArchive() //nolint:errcheck // read-only handle

	docs, err := extractor.Extract(ctx, records)
	bar.Finish()
	if err != nil {
		return err
	}
	g.logger.Info("documents extracted", "archive", g.cfg.Archive.Path, "documents", len(docs))

	if g.cfg.Output.Dir != "" {
		return writeFiles(cmd, g.cfg.Output, docs)
	}
	return writeDocuments(cmd.OutOrStdout(), docs)
}

// openExtractor opens the configured archive. The returned close function
// releases the archive handle.
func openExtractor(ctx context.Context, g *globalOptions, bar *progressBar) (*multistream.Extractor, func() error, error) {
	cfg := g.cfg
	compression, err := multistream.ParseCompression(cfg.Archive.Compression)
	if err != nil {
		return nil, nil, err
	}

	opts := []multistream.ExtractorOption{
		multistream.WithCompression(compression),
		multistream.WithWorkers(cfg.Archive.Workers),
		multistream.WithReadAhead(cfg.Archive.ReadAhead),
		multistream.WithMaxBlockSize(cfg.Archive.MaxBlockSize),
		multistream.WithSchema(cfg.DocumentSchema()),
		multistream.WithProgress(bar.Update),
		multistream.WithLogger(g.logger),
	}
	if cfg.Archive.Encoding != "" {
		opts = append(opts, multistream.WithEncoding(cfg.Archive.Encoding))
	}

	if cfg.IsRemoteArchive() {
		src, err := mshttp.NewSource(ctx, cfg.Archive.Path,
			mshttp.WithUserAgent(cfg.Archive.UserAgent),
			mshttp.WithConditionalHeaders(),
			mshttp.WithRateLimit(cfg.Archive.RequestInterval, cfg.Archive.Workers),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open remote archive: %w", err)
		}
		g.logger.Debug("remote archive opened", "url", cfg.Archive.Path, "size", src.Size())
		return multistream.NewExtractor(src, opts...), func() error { return nil }, nil
	}

	af, err := multistream.OpenArchive(cfg.Archive.Path, opts...)
	if err != nil {
		return nil, nil, err
	}
	return af.Extractor, af.Close, nil
}

// writeDocuments writes each document to w followed by a newline.
func writeDocuments(w io.Writer, docs []*multistream.Document) error {
	for _, doc := range docs {
		if _, err := doc.WriteTo(w); err != nil {
			return fmt.Errorf("write document %d: %w", doc.Record.ID, err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// writeFiles writes one file per document into out.Dir.
func writeFiles(cmd *cobra.Command, out config.OutputConfig, docs []*multistream.Document) error {
	sink := batch.NewFileSink(out.Dir, batch.WithOverwrite(out.Overwrite))

	written, skipped := 0, 0
	for _, doc := range docs {
		ok, err := batch.WriteDocument(sink, doc)
		if err != nil {
			return err
		}
		if ok {
			written++
		} else {
			skipped++
		}
	}

	msg := fmt.Sprintf("wrote %d documents to %s", written, out.Dir)
	if skipped > 0 {
		msg += fmt.Sprintf(" (%d existing files kept, use --overwrite to replace)", skipped)
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), msg)
	return nil
}
