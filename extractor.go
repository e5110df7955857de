package multistream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/meigma/multistream/internal/batch"
	"github.com/meigma/multistream/internal/dumptype"
	"github.com/meigma/multistream/internal/fragment"
	"github.com/meigma/multistream/internal/member"
	"github.com/meigma/multistream/internal/sizing"
)

// blockBufferSize is the read buffer placed in front of each block.
const blockBufferSize = 64 << 10

// Extractor pulls documents out of a multistream archive.
//
// Each distinct block offset is decompressed once per Extract call, no
// matter how many requested documents it holds. Blocks are not cached
// across calls. An Extractor is safe for concurrent use.
type Extractor struct {
	source ByteSource

	compression      Compression
	workers          int
	readAhead        int
	maxBlockSize     uint64
	maxDecoderMemory uint64
	schema           Schema
	encoding         encoding.Encoding
	encodingErr      error
	progress         ProgressFunc
	logger           *slog.Logger
	decoder          *member.Decoder
}

// NewExtractor creates an Extractor reading blocks from source.
func NewExtractor(source ByteSource, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		source:           source,
		maxBlockSize:     member.DefaultMaxBlockSize,
		maxDecoderMemory: member.DefaultMaxDecoderMemory,
		schema:           DefaultSchema,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.decoder = member.NewDecoder(
		member.WithMaxBlockSize(e.maxBlockSize),
		member.WithMaxDecoderMemory(e.maxDecoderMemory),
	)
	return e
}

// log returns the logger, falling back to a discard logger if nil.
func (e *Extractor) log() *slog.Logger {
	if e.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.logger
}

// Extract returns one document per record.
//
// Records are grouped by block offset and the groups are processed in
// ascending offset order; within a group documents keep the order of
// records. The result is the concatenation of the groups. Any failure
// aborts the whole extraction: a block that cannot be read or decoded
// yields a *BlockError and a record missing from its block yields a
// *DocumentNotFoundError. Cancellation is checked between blocks.
func (e *Extractor) Extract(ctx context.Context, records []Record) ([]*Document, error) {
	if e.encodingErr != nil {
		return nil, e.encodingErr
	}
	if len(records) == 0 {
		return nil, nil
	}

	size := e.source.Size()
	for _, rec := range records {
		if size < 0 || rec.Offset >= uint64(size) {
			return nil, &BlockError{
				Offset: rec.Offset,
				Op:     "open",
				Err:    fmt.Errorf("%w: archive size %d", ErrOffsetOutOfRange, size),
			}
		}
	}

	groups := batch.GroupByOffset(records)
	e.log().Debug("extraction started", "records", len(records), "blocks", len(groups))

	docs := make([]*Document, 0, len(records))
	blocksDone := 0
	consume := func(g batch.Group, block *fragment.Block) error {
		blocksDone++
		e.emit(ProgressEvent{
			Stage:       StageDecompressing,
			Offset:      g.Offset,
			BlocksDone:  blocksDone,
			BlocksTotal: len(groups),
		})
		for _, rec := range g.Records {
			el, ok := block.Lookup(rec.ID)
			if !ok {
				return &DocumentNotFoundError{Record: rec, Documents: block.Len()}
			}
			doc := dumptype.NewDocument(rec, el, e.schema)
			docs = append(docs, doc)
			e.emit(ProgressEvent{
				Stage:          StageDocumentFound,
				Record:         &doc.Record,
				Document:       doc,
				Offset:         g.Offset,
				BlocksDone:     blocksDone,
				BlocksTotal:    len(groups),
				DocumentsDone:  len(docs),
				DocumentsTotal: len(records),
			})
		}
		return nil
	}

	p := batch.NewProcessor(
		batch.WithWorkers(e.workers),
		batch.WithReadAhead(e.readAhead),
		batch.WithProcessorLogger(e.logger),
	)
	if err := p.Process(ctx, groups, e.decodeGroup, consume); err != nil {
		return nil, err
	}

	e.log().Debug("extraction finished", "documents", len(docs), "blocks", len(groups))
	return docs, nil
}

// decodeGroup reads, decompresses and parses the block for g.
func (e *Extractor) decodeGroup(ctx context.Context, g batch.Group) (*fragment.Block, error) {
	data, err := e.readBlock(ctx, g.Offset)
	if err != nil {
		return nil, err
	}
	block, err := fragment.Parse(data, fragment.WithSchema(e.schema), fragment.WithEncoding(e.encoding))
	if err != nil {
		return nil, &BlockError{Offset: g.Offset, Op: "parse", Err: err}
	}
	e.log().Debug("block decoded", "offset", g.Offset, "bytes", len(data), "documents", block.Len())
	return block, nil
}

// readBlock decompresses the single member starting at offset.
func (e *Extractor) readBlock(ctx context.Context, offset uint64) ([]byte, error) {
	off, err := sizing.ToInt64(offset, ErrSizeOverflow)
	if err != nil {
		return nil, &BlockError{Offset: offset, Op: "open", Err: err}
	}
	remaining := e.source.Size() - off

	var r io.Reader
	if rr, ok := e.source.(rangeReader); ok {
		rc, err := rr.ReadRange(ctx, off, remaining)
		if err != nil {
			return nil, &BlockError{Offset: offset, Op: "open", Err: err}
		}
		defer rc.Close()
		r = rc
	} else {
		r = io.NewSectionReader(e.source, off, remaining)
	}

	data, err := e.decoder.Decode(bufio.NewReaderSize(r, blockBufferSize), e.compression)
	if err != nil {
		return nil, &BlockError{Offset: offset, Op: "decompress", Err: err}
	}
	return data, nil
}

func (e *Extractor) emit(ev ProgressEvent) {
	if e.progress != nil {
		e.progress(ev)
	}
}
