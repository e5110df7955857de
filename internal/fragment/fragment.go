// Package fragment parses decompressed archive blocks.
//
// A block holds a run of document elements with no enclosing root, so it is
// not a well-formed document on its own. Parse wraps the fragment in a
// synthetic root, parses it strictly and indexes the direct document
// children by their identifier.
package fragment

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/meigma/multistream/internal/dumptype"
)

// rootTag names the synthetic element wrapping each fragment. It never
// escapes this package.
const rootTag = "multistream-fragment"

// Block is a parsed fragment.
type Block struct {
	root  *etree.Element
	byID  map[int64]*etree.Element
	count int
}

// Option configures Parse.
type Option func(*parser)

type parser struct {
	schema   dumptype.Schema
	encoding encoding.Encoding
}

// WithSchema sets the document, id and title element names.
func WithSchema(s dumptype.Schema) Option {
	return func(p *parser) {
		p.schema = s
	}
}

// WithEncoding converts the fragment from enc to UTF-8 before parsing.
// A nil encoding means the fragment is already UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(p *parser) {
		p.encoding = enc
	}
}

// LookupEncoding resolves a WHATWG encoding label such as "windows-1252".
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("text encoding %q: %w", name, err)
	}
	return enc, nil
}

// Parse wraps data in a synthetic root and parses it.
//
// Errors wrap dumptype.ErrMalformedBlock.
func Parse(data []byte, opts ...Option) (*Block, error) {
	p := parser{schema: dumptype.DefaultSchema}
	for _, opt := range opts {
		opt(&p)
	}

	if p.encoding != nil {
		utf8, err := p.encoding.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode text: %w", dumptype.ErrMalformedBlock, err)
		}
		data = utf8
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + 2*len(rootTag) + 5)
	buf.WriteString("<" + rootTag + ">")
	buf.Write(data)
	buf.WriteString("</" + rootTag + ">")

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %w", dumptype.ErrMalformedBlock, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != rootTag {
		return nil, fmt.Errorf("%w: fragment is not enclosed by its root", dumptype.ErrMalformedBlock)
	}

	b := &Block{root: root, byID: make(map[int64]*etree.Element)}
	for _, el := range root.ChildElements() {
		if el.Tag != p.schema.Document {
			continue
		}
		b.count++
		idEl := el.SelectElement(p.schema.ID)
		if idEl == nil {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idEl.Text()), 10, 64)
		if err != nil {
			continue
		}
		if _, dup := b.byID[id]; !dup {
			b.byID[id] = el
		}
	}
	return b, nil
}

// Lookup returns a detached copy of the document whose id child equals id.
// When several documents share an id the first one wins.
func (b *Block) Lookup(id int64) (*etree.Element, bool) {
	el, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	return el.Copy(), true
}

// Len returns the number of document elements in the block.
func (b *Block) Len() int {
	return b.count
}
