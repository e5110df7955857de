package dumptype

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Schema names the elements of the export format.
type Schema struct {
	// Document is the tag of one document element, e.g. "page".
	Document string

	// ID is the tag of the document's identifier child.
	ID string

	// Title is the tag of the document's title child.
	Title string
}

// DefaultSchema matches the MediaWiki XML export format.
var DefaultSchema = Schema{Document: "page", ID: "id", Title: "title"}

// Document is one extracted document subtree.
//
// The element is detached from the block it was parsed from and is owned by
// the caller.
type Document struct {
	// Record is the index record the document was resolved from.
	Record Record

	// Element is the document element.
	Element *etree.Element

	schema Schema
}

// NewDocument wraps a detached element resolved for rec.
func NewDocument(rec Record, el *etree.Element, schema Schema) *Document {
	return &Document{Record: rec, Element: el, schema: schema}
}

// ID returns the text of the document's identifier child.
func (d *Document) ID() string {
	if d == nil {
		return ""
	}
	return d.childText(d.schema.ID)
}

// Title returns the text of the document's title child.
func (d *Document) Title() string {
	if d == nil {
		return ""
	}
	return d.childText(d.schema.Title)
}

// WriteTo writes the document as indented XML.
// A document without an element fails with ErrMalformedBlock.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d == nil || d.Element == nil {
		return 0, fmt.Errorf("%w: document has no element", ErrMalformedBlock)
	}
	doc := etree.NewDocument()
	doc.SetRoot(d.Element.Copy())
	doc.Indent(2)
	return doc.WriteTo(w)
}

func (d *Document) childText(tag string) string {
	if d.Element == nil {
		return ""
	}
	child := d.Element.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
