package multistream

import (
	"errors"

	"github.com/meigma/multistream/internal/dumptype"
)

// Sentinel errors.
var (
	// ErrEmptyQuery is returned when a search supplies no predicate at all.
	ErrEmptyQuery = errors.New("multistream: query has no predicates")

	// ErrIndexConsumed is returned when a search is repeated on an index
	// reader that cannot be rewound.
	ErrIndexConsumed = errors.New("multistream: index reader already consumed")
)

// Errors re-exported from internal/dumptype.
var (
	// ErrParse is returned when an index line cannot be parsed.
	ErrParse = dumptype.ErrParse

	// ErrDecompression is returned when a block is not a valid compressed member.
	ErrDecompression = dumptype.ErrDecompression

	// ErrMalformedBlock is returned when a decompressed fragment is not well-formed.
	ErrMalformedBlock = dumptype.ErrMalformedBlock

	// ErrDocumentNotFound is returned when a block does not hold a requested document.
	ErrDocumentNotFound = dumptype.ErrDocumentNotFound

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = dumptype.ErrSizeOverflow

	// ErrOffsetOutOfRange is returned when a block offset lies beyond the archive.
	ErrOffsetOutOfRange = dumptype.ErrOffsetOutOfRange

	// ErrUnknownCompression is returned when a compression format cannot be identified.
	ErrUnknownCompression = dumptype.ErrUnknownCompression
)

// Typed errors re-exported from internal/dumptype.
type (
	// ParseError describes an index line that could not be parsed.
	ParseError = dumptype.ParseError

	// BlockError reports a failure while reading or decoding a block.
	BlockError = dumptype.BlockError

	// DocumentNotFoundError reports a record whose block lacks the document.
	DocumentNotFoundError = dumptype.DocumentNotFoundError
)
