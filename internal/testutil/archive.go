package testutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"

	dsbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/multistream/internal/dumptype"
)

// Archive is a synthetic multi-member archive and the index records that
// locate every document in it.
type Archive struct {
	// Data is the concatenation of all compressed members.
	Data []byte

	// Offsets holds the start of each member, in order.
	Offsets []uint64

	// Records lists every document in archive order.
	Records []dumptype.Record
}

// Title returns the title used for the fixture page with the given id.
func Title(id int64) string {
	return fmt.Sprintf("Page%d", id)
}

// PageXML renders one page element shaped like a MediaWiki export page.
// The nested revision id differs from the page id so lookups must use the
// direct child.
func PageXML(id int64, title string) string {
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(title)) //nolint:errcheck // bytes.Buffer writes never fail

	var b strings.Builder
	fmt.Fprintf(&b, "  <page>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", esc.String())
	fmt.Fprintf(&b, "    <ns>0</ns>\n")
	fmt.Fprintf(&b, "    <id>%d</id>\n", id)
	fmt.Fprintf(&b, "    <revision>\n")
	fmt.Fprintf(&b, "      <id>%d</id>\n", id+1_000_000)
	fmt.Fprintf(&b, "      <text xml:space=\"preserve\">Body of %s &amp; more.</text>\n", esc.String())
	fmt.Fprintf(&b, "    </revision>\n")
	fmt.Fprintf(&b, "  </page>\n")
	return b.String()
}

// BuildArchive creates streamCount members of pageCount pages each, compressed
// with c. Page ids run from 0 and titles follow Title.
func BuildArchive(tb testing.TB, c dumptype.Compression, streamCount, pageCount int) *Archive {
	tb.Helper()

	a, err := NewArchive(c, streamCount, pageCount)
	if err != nil {
		tb.Fatalf("build archive: %v", err)
	}
	return a
}

// NewArchive is BuildArchive for callers outside tests.
func NewArchive(c dumptype.Compression, streamCount, pageCount int) (*Archive, error) {
	a := &Archive{}
	var data bytes.Buffer
	var id int64
	for range streamCount {
		offset := uint64(data.Len())
		a.Offsets = append(a.Offsets, offset)

		var fragment strings.Builder
		for range pageCount {
			title := Title(id)
			fragment.WriteString(PageXML(id, title))
			a.Records = append(a.Records, dumptype.Record{Offset: offset, ID: id, Title: title})
			id++
		}
		member, err := CompressMember(c, []byte(fragment.String()))
		if err != nil {
			return nil, err
		}
		data.Write(member)
	}
	a.Data = data.Bytes()
	return a, nil
}

// Compress returns data compressed as a single member in format c.
func Compress(tb testing.TB, c dumptype.Compression, data []byte) []byte {
	tb.Helper()

	member, err := CompressMember(c, data)
	if err != nil {
		tb.Fatalf("compress: %v", err)
	}
	return member
}

// CompressMember returns data compressed as a single member in format c.
// CompressionNone returns data unchanged.
func CompressMember(c dumptype.Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case dumptype.CompressionBzip2:
		w, err := dsbzip2.NewWriter(&buf, &dsbzip2.WriterConfig{Level: dsbzip2.BestSpeed})
		if err != nil {
			return nil, fmt.Errorf("bzip2 writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("bzip2 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("bzip2 close: %w", err)
		}
	case dumptype.CompressionGzip:
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
	case dumptype.CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		buf.Write(enc.EncodeAll(data, nil))
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("zstd close: %w", err)
		}
	case dumptype.CompressionNone:
		buf.Write(data)
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
	return buf.Bytes(), nil
}

// Records returns n records with ids 0..n-1, titles from Title, and offsets
// that change every perBlock records.
func Records(n, perBlock int) []dumptype.Record {
	if perBlock <= 0 {
		perBlock = 1
	}
	records := make([]dumptype.Record, n)
	for i := range n {
		records[i] = dumptype.Record{
			Offset: uint64(i/perBlock) * 1000, //nolint:gosec // test fixture values are small
			ID:     int64(i),
			Title:  Title(int64(i)),
		}
	}
	return records
}

// BuildIndex serializes records as index text, one line each.
func BuildIndex(records []dumptype.Record, sep rune) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Format(sep))
		b.WriteByte('\n')
	}
	return b.String()
}
