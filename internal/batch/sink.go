package batch

import (
	"fmt"
	"io"

	"github.com/meigma/multistream/internal/dumptype"
)

// Sink receives extracted documents.
//
// Implementations determine where documents are written and can filter
// which records to write.
type Sink interface {
	// ShouldProcess returns false if the document for rec should be skipped.
	ShouldProcess(rec dumptype.Record) bool

	// Writer returns a writer for the document resolved from rec.
	// The returned Committer must have Commit() called after a successful
	// write, or Discard() called on any error.
	Writer(rec dumptype.Record) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}

// WriteDocument serializes doc into sink.
// It reports whether the document was written or skipped by the sink.
func WriteDocument(sink Sink, doc *dumptype.Document) (bool, error) {
	if !sink.ShouldProcess(doc.Record) {
		return false, nil
	}
	w, err := sink.Writer(doc.Record)
	if err != nil {
		return false, fmt.Errorf("batch: document %d: %w", doc.Record.ID, err)
	}
	if _, err := doc.WriteTo(w); err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return false, fmt.Errorf("batch: document %d: %w", doc.Record.ID, err)
	}
	if err := w.Commit(); err != nil {
		return false, fmt.Errorf("batch: document %d: commit: %w", doc.Record.ID, err)
	}
	return true, nil
}
