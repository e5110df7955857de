package multistream

import (
	"log/slog"

	"github.com/meigma/multistream/internal/fragment"
)

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithCompression fixes the archive compression format.
// The default, CompressionAuto, detects the format of each block from its
// magic bytes.
func WithCompression(c Compression) ExtractorOption {
	return func(e *Extractor) {
		e.compression = c
	}
}

// WithWorkers sets the number of blocks decoded concurrently.
// Values < 2 decode one block at a time. Documents and progress events are
// delivered in ascending offset order either way.
func WithWorkers(n int) ExtractorOption {
	return func(e *Extractor) {
		e.workers = n
	}
}

// WithReadAhead caps the number of decoded blocks held in memory while
// waiting for earlier blocks to finish. Zero uses twice the worker count.
// It has no effect unless WithWorkers enables concurrent decoding.
func WithReadAhead(n int) ExtractorOption {
	return func(e *Extractor) {
		e.readAhead = n
	}
}

// WithMaxBlockSize limits the size of one block, compressed and decompressed.
// Set limit to 0 to disable the limit.
func WithMaxBlockSize(limit uint64) ExtractorOption {
	return func(e *Extractor) {
		e.maxBlockSize = limit
	}
}

// WithMaxDecoderMemory limits the maximum memory used by the zstd decoder.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) ExtractorOption {
	return func(e *Extractor) {
		e.maxDecoderMemory = limit
	}
}

// WithSchema sets the document, id and title element names.
func WithSchema(s Schema) ExtractorOption {
	return func(e *Extractor) {
		e.schema = s
	}
}

// WithEncoding sets the text encoding of decompressed blocks by its WHATWG
// label, e.g. "windows-1252". Blocks are converted to UTF-8 before parsing.
// An unknown label makes Extract fail.
func WithEncoding(name string) ExtractorOption {
	return func(e *Extractor) {
		e.encoding, e.encodingErr = fragment.LookupEncoding(name)
	}
}

// WithProgress sets a callback to receive block and document progress.
func WithProgress(fn ProgressFunc) ExtractorOption {
	return func(e *Extractor) {
		e.progress = fn
	}
}

// WithLogger sets the logger for extraction operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}
