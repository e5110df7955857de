package multistream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/meigma/multistream/internal/testutil"
)

var archiveCodecs = []Compression{CompressionBzip2, CompressionGzip, CompressionZstd}

// countingSource counts reads and distinct block opens.
type countingSource struct {
	*testutil.MockByteSource
	reads atomic.Int64
}

func (c *countingSource) ReadAt(p []byte, off int64) (int, error) {
	c.reads.Add(1)
	return c.MockByteSource.ReadAt(p, off)
}

func assertDocument(t *testing.T, rec Record, doc *Document) {
	t.Helper()
	assert.Equal(t, rec, doc.Record)
	assert.Equal(t, strconv.FormatInt(rec.ID, 10), doc.ID())
	assert.Equal(t, rec.Title, doc.Title())
}

func TestExtractor_AllDocuments(t *testing.T) {
	t.Parallel()

	const streams, pages = 10, 100
	for _, c := range archiveCodecs {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			archive := testutil.BuildArchive(t, c, streams, pages)
			var blocks []uint64
			e := NewExtractor(testutil.NewMockByteSource(archive.Data), WithProgress(func(ev ProgressEvent) {
				if ev.Stage == StageDecompressing {
					blocks = append(blocks, ev.Offset)
				}
			}))

			docs, err := e.Extract(context.Background(), archive.Records)
			require.NoError(t, err)
			require.Len(t, docs, streams*pages)
			assert.Equal(t, archive.Offsets, blocks, "each block decompressed once, in order")

			for i, doc := range docs {
				assertDocument(t, archive.Records[i], doc)
			}
		})
	}
}

func TestExtractor_Sparse(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionBzip2, 10, 100)
	var selected []Record
	for i, rec := range archive.Records {
		if i%10 == 0 {
			selected = append(selected, rec)
		}
	}

	docs, err := NewExtractor(testutil.NewMockByteSource(archive.Data)).Extract(context.Background(), selected)
	require.NoError(t, err)
	require.Len(t, docs, len(selected))
	for i, doc := range docs {
		assertDocument(t, selected[i], doc)
	}
}

func TestExtractor_GroupOrder(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionGzip, 3, 5)
	r := archive.Records
	// Supplied out of order: blocks 2, 0, 2, 1.
	input := []Record{r[12], r[3], r[10], r[7], r[1]}

	docs, err := NewExtractor(testutil.NewMockByteSource(archive.Data)).Extract(context.Background(), input)
	require.NoError(t, err)

	want := []Record{r[3], r[1], r[7], r[12], r[10]}
	require.Len(t, docs, len(want))
	for i, doc := range docs {
		assertDocument(t, want[i], doc)
	}
}

func TestExtractor_SkipsUnrequestedBlocks(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionZstd, 5, 4)
	var blocks []uint64
	e := NewExtractor(testutil.NewMockByteSource(archive.Data), WithProgress(func(ev ProgressEvent) {
		if ev.Stage == StageDecompressing {
			blocks = append(blocks, ev.Offset)
		}
	}))

	_, err := e.Extract(context.Background(), []Record{archive.Records[17], archive.Records[5], archive.Records[6]})
	require.NoError(t, err)
	assert.Equal(t, []uint64{archive.Offsets[1], archive.Offsets[4]}, blocks)
}

func TestExtractor_DocumentProgress(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionBzip2, 2, 3)
	var percents []int
	var titles []string
	e := NewExtractor(testutil.NewMockByteSource(archive.Data), WithProgress(func(ev ProgressEvent) {
		if ev.Stage == StageDocumentFound {
			percents = append(percents, ev.Percent())
			titles = append(titles, ev.Document.Title())
		}
	}))

	_, err := e.Extract(context.Background(), archive.Records)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 33, 50, 66, 83, 100}, percents)
	assert.Equal(t, []string{"Page0", "Page1", "Page2", "Page3", "Page4", "Page5"}, titles)
}

func TestExtractor_DocumentNotFound(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionBzip2, 2, 5)
	stale := Record{Offset: archive.Offsets[1], ID: 2, Title: "Page2"}

	docs, err := NewExtractor(testutil.NewMockByteSource(archive.Data)).
		Extract(context.Background(), []Record{archive.Records[0], stale})
	require.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Nil(t, docs)

	var nf *DocumentNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, stale, nf.Record)
	assert.Equal(t, 5, nf.Documents)
}

func TestExtractor_OffsetOutOfRange(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionGzip, 2, 2)
	src := &countingSource{MockByteSource: testutil.NewMockByteSource(archive.Data)}
	bad := Record{Offset: uint64(len(archive.Data)), ID: 1}

	_, err := NewExtractor(src).Extract(context.Background(), []Record{archive.Records[0], bad})
	require.ErrorIs(t, err, ErrOffsetOutOfRange)
	assert.Zero(t, src.reads.Load(), "no block may be read before offsets are validated")

	var be *BlockError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, bad.Offset, be.Offset)
}

func TestExtractor_BadOffset(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionBzip2, 2, 2)
	mid := Record{Offset: archive.Offsets[1] + 3, ID: 2}

	_, err := NewExtractor(testutil.NewMockByteSource(archive.Data)).Extract(context.Background(), []Record{mid})
	require.ErrorIs(t, err, ErrDecompression)

	var be *BlockError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "decompress", be.Op)
	assert.Equal(t, mid.Offset, be.Offset)
}

func TestExtractor_MalformedBlock(t *testing.T) {
	t.Parallel()

	data := testutil.Compress(t, CompressionGzip, []byte("<page><id>1</id><title>x</title>"))
	_, err := NewExtractor(testutil.NewMockByteSource(data)).Extract(context.Background(), []Record{{ID: 1}})
	require.ErrorIs(t, err, ErrMalformedBlock)

	var be *BlockError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "parse", be.Op)
}

func TestExtractor_FixedCompressionMismatch(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionGzip, 1, 2)
	_, err := NewExtractor(testutil.NewMockByteSource(archive.Data), WithCompression(CompressionBzip2)).
		Extract(context.Background(), archive.Records)
	assert.ErrorIs(t, err, ErrDecompression)
}

func TestExtractor_MaxBlockSize(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionZstd, 1, 20)
	_, err := NewExtractor(testutil.NewMockByteSource(archive.Data), WithMaxBlockSize(256)).
		Extract(context.Background(), archive.Records[:1])
	assert.ErrorIs(t, err, ErrSizeOverflow)
}

func TestExtractor_Workers(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionBzip2, 12, 10)
	for _, workers := range []int{2, 4, 32} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()

			var order []uint64
			e := NewExtractor(testutil.NewMockByteSource(archive.Data),
				WithWorkers(workers),
				WithProgress(func(ev ProgressEvent) {
					if ev.Stage == StageDecompressing {
						order = append(order, ev.Offset)
					}
				}))

			docs, err := e.Extract(context.Background(), archive.Records)
			require.NoError(t, err)
			require.Len(t, docs, len(archive.Records))
			for i, doc := range docs {
				assertDocument(t, archive.Records[i], doc)
			}
			assert.Equal(t, archive.Offsets, order)
		})
	}
}

func TestExtractor_ReadAhead(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionZstd, 12, 10)
	for _, readAhead := range []int{1, 3, 64} {
		t.Run(fmt.Sprintf("read-ahead=%d", readAhead), func(t *testing.T) {
			t.Parallel()

			var order []uint64
			e := NewExtractor(testutil.NewMockByteSource(archive.Data),
				WithWorkers(4),
				WithReadAhead(readAhead),
				WithProgress(func(ev ProgressEvent) {
					if ev.Stage == StageDecompressing {
						order = append(order, ev.Offset)
					}
				}))

			docs, err := e.Extract(context.Background(), archive.Records)
			require.NoError(t, err)
			require.Len(t, docs, len(archive.Records))
			for i, doc := range docs {
				assertDocument(t, archive.Records[i], doc)
			}
			assert.Equal(t, archive.Offsets, order)
		})
	}
}

func TestExtractor_Schema(t *testing.T) {
	t.Parallel()

	fragment := `<article><key>4</key><name>Four</name></article><article><key>5</key><name>Five</name></article>`
	data := testutil.Compress(t, CompressionZstd, []byte(fragment))
	e := NewExtractor(testutil.NewMockByteSource(data),
		WithSchema(Schema{Document: "article", ID: "key", Title: "name"}))

	docs, err := e.Extract(context.Background(), []Record{{ID: 5, Title: "Five"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "5", docs[0].ID())
	assert.Equal(t, "Five", docs[0].Title())
}

func TestExtractor_Encoding(t *testing.T) {
	t.Parallel()

	latin1, err := charmap.ISO8859_1.NewEncoder().String(testutil.PageXML(1, "Ångström"))
	require.NoError(t, err)
	data := testutil.Compress(t, CompressionBzip2, []byte(latin1))

	docs, err := NewExtractor(testutil.NewMockByteSource(data), WithEncoding("iso-8859-1")).
		Extract(context.Background(), []Record{{ID: 1, Title: "Ångström"}})
	require.NoError(t, err)
	assert.Equal(t, "Ångström", docs[0].Title())

	_, err = NewExtractor(testutil.NewMockByteSource(data), WithEncoding("klingon")).
		Extract(context.Background(), []Record{{ID: 1}})
	assert.Error(t, err)
}

func TestExtractor_Empty(t *testing.T) {
	t.Parallel()

	docs, err := NewExtractor(testutil.NewMockByteSource(nil)).Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestExtractor_Canceled(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionGzip, 4, 2)
	ctx, cancel := context.WithCancel(context.Background())
	e := NewExtractor(testutil.NewMockByteSource(archive.Data), WithProgress(func(ev ProgressEvent) {
		if ev.Stage == StageDecompressing {
			cancel()
		}
	}))

	_, err := e.Extract(ctx, archive.Records)
	assert.ErrorIs(t, err, context.Canceled)
}

// rangeSource serves blocks through ReadRange and records requested offsets.
type rangeSource struct {
	*testutil.MockByteSource
	offsets []int64
}

func (r *rangeSource) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	r.offsets = append(r.offsets, off)
	return io.NopCloser(bytes.NewReader(r.Bytes()[off : off+length])), nil
}

func TestExtractor_UsesRangeReader(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionBzip2, 3, 2)
	src := &rangeSource{MockByteSource: testutil.NewMockByteSource(archive.Data)}

	docs, err := NewExtractor(src).Extract(context.Background(), []Record{archive.Records[5], archive.Records[0]})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, []int64{int64(archive.Offsets[0]), int64(archive.Offsets[2])}, src.offsets) //nolint:gosec // small offsets
}

func TestDocument_WriteTo(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, CompressionBzip2, 1, 3)
	docs, err := NewExtractor(testutil.NewMockByteSource(archive.Data)).Extract(context.Background(), archive.Records[1:2])
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = docs[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<title>Page1</title>")
	assert.NotContains(t, buf.String(), "Page0")
}
