// Package dumptype defines shared types used across the multistream package
// and its internal packages. This avoids circular imports between multistream
// and internal/batch.
package dumptype

import (
	"strconv"
	"strings"
)

// DefaultSeparator separates the fields of an index line.
const DefaultSeparator = ':'

// Record is one parsed index line.
type Record struct {
	// Offset is the byte position in the archive where the compressed block
	// holding this document begins.
	Offset uint64

	// ID is the document identifier.
	ID int64

	// Title is the document title. It may contain the separator.
	Title string
}

// ParseRecord parses an index line of the form offset SEP id SEP title.
//
// Only the first two separators split the line; the title keeps any
// separators it contains. The returned error is a *ParseError with Line
// left at zero.
func ParseRecord(line string, sep rune) (Record, error) {
	parts := strings.SplitN(line, string(sep), 3)
	if len(parts) != 3 {
		return Record{}, &ParseError{
			Text:   line,
			Reason: "expected 3 fields, got " + strconv.Itoa(len(parts)),
		}
	}

	offset, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Record{}, &ParseError{Text: line, Reason: "invalid block offset", Err: err}
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Record{}, &ParseError{Text: line, Reason: "invalid document id", Err: err}
	}

	return Record{Offset: offset, ID: id, Title: parts[2]}, nil
}

// Format serializes the record using sep between fields.
func (r Record) Format(sep rune) string {
	var b strings.Builder
	b.Grow(len(r.Title) + 24)
	b.WriteString(strconv.FormatUint(r.Offset, 10))
	b.WriteRune(sep)
	b.WriteString(strconv.FormatInt(r.ID, 10))
	b.WriteRune(sep)
	b.WriteString(r.Title)
	return b.String()
}

// String serializes the record with DefaultSeparator.
func (r Record) String() string {
	return r.Format(DefaultSeparator)
}
