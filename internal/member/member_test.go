package member

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/multistream/internal/dumptype"
	"github.com/meigma/multistream/internal/testutil"
)

var codecs = []Compression{CompressionBzip2, CompressionGzip, CompressionZstd}

func TestDecoder_DecodeSingleMember(t *testing.T) {
	t.Parallel()

	content := []byte(testutil.PageXML(1, "One") + testutil.PageXML(2, "Two"))
	for _, c := range codecs {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			compressed := testutil.Compress(t, c, content)
			got, err := NewDecoder().Decode(bufio.NewReader(bytes.NewReader(compressed)), c)
			require.NoError(t, err)
			assert.Equal(t, content, got)
		})
	}
}

func TestDecoder_StopsAtMemberBoundary(t *testing.T) {
	t.Parallel()

	for _, c := range codecs {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			archive := testutil.BuildArchive(t, c, 3, 5)
			d := NewDecoder()

			for i, off := range archive.Offsets {
				r := bufio.NewReader(bytes.NewReader(archive.Data[off:]))
				got, err := d.Decode(r, c)
				require.NoError(t, err)

				for _, rec := range archive.Records[i*5 : i*5+5] {
					assert.Contains(t, string(got), "<id>"+strconv.FormatInt(rec.ID, 10)+"</id>")
				}

				rest, err := io.ReadAll(r)
				require.NoError(t, err)
				end := len(archive.Data)
				if i+1 < len(archive.Offsets) {
					end = int(archive.Offsets[i+1])
				}
				assert.Equal(t, archive.Data[end:], rest, "member %d consumed past its end", i)
			}
		})
	}
}

func TestDecoder_SequentialMembers(t *testing.T) {
	t.Parallel()

	for _, c := range codecs {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			archive := testutil.BuildArchive(t, c, 4, 3)
			r := bufio.NewReader(bytes.NewReader(archive.Data))
			d := NewDecoder()
			for range archive.Offsets {
				_, err := d.Decode(r, CompressionAuto)
				require.NoError(t, err)
			}
			_, err := r.Peek(1)
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestDecoder_AutoDetect(t *testing.T) {
	t.Parallel()

	content := []byte(testutil.PageXML(9, "Nine"))
	for _, c := range codecs {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			compressed := testutil.Compress(t, c, content)
			r := bufio.NewReader(bytes.NewReader(compressed))

			detected, err := Detect(r)
			require.NoError(t, err)
			assert.Equal(t, c, detected)

			got, err := NewDecoder().Decode(r, CompressionAuto)
			require.NoError(t, err)
			assert.Equal(t, content, got)
		})
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	content := []byte(testutil.PageXML(3, "Three"))

	t.Run("plain text", func(t *testing.T) {
		t.Parallel()
		_, err := NewDecoder().Decode(bufio.NewReader(bytes.NewReader(content)), CompressionAuto)
		require.ErrorIs(t, err, dumptype.ErrDecompression)
		assert.ErrorIs(t, err, dumptype.ErrUnknownCompression)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, err := NewDecoder().Decode(bufio.NewReader(bytes.NewReader(nil)), CompressionAuto)
		assert.ErrorIs(t, err, dumptype.ErrDecompression)
	})

	t.Run("wrong codec", func(t *testing.T) {
		t.Parallel()
		compressed := testutil.Compress(t, CompressionGzip, content)
		for _, c := range []Compression{CompressionBzip2, CompressionZstd} {
			_, err := NewDecoder().Decode(bufio.NewReader(bytes.NewReader(compressed)), c)
			assert.ErrorIs(t, err, dumptype.ErrDecompression, c.String())
		}
	})

	for _, c := range codecs {
		t.Run("truncated "+c.String(), func(t *testing.T) {
			t.Parallel()
			compressed := testutil.Compress(t, c, content)
			cut := compressed[:len(compressed)-6]
			_, err := NewDecoder().Decode(bufio.NewReader(bytes.NewReader(cut)), c)
			assert.ErrorIs(t, err, dumptype.ErrDecompression)
		})
	}
}

func TestDecoder_MaxBlockSize(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte(testutil.PageXML(1, "Big")), 200)
	for _, c := range codecs {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			compressed := testutil.Compress(t, c, content)
			d := NewDecoder(WithMaxBlockSize(uint64(len(content) - 1)))
			_, err := d.Decode(bufio.NewReader(bytes.NewReader(compressed)), c)
			assert.ErrorIs(t, err, dumptype.ErrSizeOverflow)

			unlimited := NewDecoder(WithMaxBlockSize(0))
			got, err := unlimited.Decode(bufio.NewReader(bytes.NewReader(compressed)), c)
			require.NoError(t, err)
			assert.Len(t, got, len(content))
		})
	}
}

func TestDecoder_NewStreamReader(t *testing.T) {
	t.Parallel()

	index := testutil.BuildIndex(testutil.Records(50, 10), dumptype.DefaultSeparator)

	for _, c := range append([]Compression{CompressionNone}, codecs...) {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			// Split the index over two members to exercise multistream reads.
			half := len(index) / 2
			var data []byte
			data = append(data, testutil.Compress(t, c, []byte(index[:half]))...)
			data = append(data, testutil.Compress(t, c, []byte(index[half:]))...)

			for _, mode := range []Compression{c, CompressionAuto} {
				rc, err := NewDecoder().NewStreamReader(bytes.NewReader(data), mode)
				require.NoError(t, err)
				got, err := io.ReadAll(rc)
				require.NoError(t, err)
				require.NoError(t, rc.Close())
				assert.Equal(t, index, string(got))
			}
		})
	}
}

func TestDecompressPool_Reuse(t *testing.T) {
	t.Parallel()

	pool := NewDecompressPool(0)
	content := []byte("pooled decoder content")
	compressed := testutil.Compress(t, CompressionZstd, content)

	for range 3 {
		dec, release, err := pool.Get()
		require.NoError(t, err)
		got, err := dec.DecodeAll(compressed, nil)
		require.NoError(t, err)
		assert.Equal(t, content, got)
		release()
	}
}
