package dumptype

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors shared by the scanner, the extractor and the internal packages.
var (
	// ErrParse is returned when an index line cannot be parsed.
	ErrParse = errors.New("multistream: malformed index line")

	// ErrDecompression is returned when a block is not a valid compressed member.
	ErrDecompression = errors.New("multistream: decompression failed")

	// ErrMalformedBlock is returned when a decompressed fragment is not well-formed.
	ErrMalformedBlock = errors.New("multistream: malformed block fragment")

	// ErrDocumentNotFound is returned when a block does not hold a requested document.
	ErrDocumentNotFound = errors.New("multistream: document not found in block")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("multistream: size overflow")

	// ErrOffsetOutOfRange is returned when a block offset lies beyond the archive.
	ErrOffsetOutOfRange = errors.New("multistream: block offset out of range")

	// ErrUnknownCompression is returned when a compression format cannot be identified.
	ErrUnknownCompression = errors.New("multistream: unknown compression format")
)

// ParseError describes an index line that could not be parsed.
type ParseError struct {
	// Line is the 1-based line number in the index, or 0 when unknown.
	Line int

	// Text is the offending line.
	Text string

	// Reason describes what was wrong with the line.
	Reason string

	// Err is the underlying conversion error, if any.
	Err error
}

func (e *ParseError) Error() string {
	prefix := "multistream: index line"
	if e.Line > 0 {
		prefix += " " + strconv.Itoa(e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %q: %v", prefix, e.Reason, e.Text, e.Err)
	}
	return fmt.Sprintf("%s: %s: %q", prefix, e.Reason, e.Text)
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Unwrap returns the underlying conversion error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// BlockError reports a failure while reading or decoding the block at Offset.
type BlockError struct {
	// Offset is the block offset that failed.
	Offset uint64

	// Op names the failing step: "open", "decompress" or "parse".
	Op string

	// Err is the cause.
	Err error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("multistream: %s block at offset %d: %v", e.Op, e.Offset, e.Err)
}

// Unwrap returns the cause.
func (e *BlockError) Unwrap() error {
	return e.Err
}

// DocumentNotFoundError reports that the block at Record.Offset does not hold
// a document with Record.ID. It usually means the index is stale relative to
// the archive.
type DocumentNotFoundError struct {
	// Record is the index record that could not be resolved.
	Record Record

	// Documents is the number of documents the block did hold.
	Documents int
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("multistream: document %d (%q) not found in block at offset %d (%d documents in block)",
		e.Record.ID, e.Record.Title, e.Record.Offset, e.Documents)
}

// Is reports whether target is ErrDocumentNotFound.
func (e *DocumentNotFoundError) Is(target error) bool {
	return target == ErrDocumentNotFound
}
