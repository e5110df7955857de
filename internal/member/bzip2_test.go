package member

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/multistream/internal/dumptype"
	"github.com/meigma/multistream/internal/testutil"
)

func TestReadBzip2Member_ExactLength(t *testing.T) {
	t.Parallel()

	// Different payload sizes put the end marker at different bit alignments.
	for n := 1; n <= 16; n++ {
		content := bytes.Repeat([]byte{'a' + byte(n)}, n*37)
		member := testutil.Compress(t, dumptype.CompressionBzip2, content)
		next := []byte("BZh9trailing")

		r := bufio.NewReader(bytes.NewReader(append(append([]byte{}, member...), next...)))
		raw, err := readBzip2Member(r, 0)
		require.NoError(t, err, "payload %d", n)
		assert.Equal(t, member, raw, "payload %d", n)
	}
}

func TestReadBzip2Member_InvalidHeader(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"BZh0xxxx", "BZx9xxxx", "PK\x03\x04"} {
		_, err := readBzip2Member(bufio.NewReader(bytes.NewReader([]byte(in))), 0)
		assert.ErrorIs(t, err, dumptype.ErrDecompression, in)
	}
}

func TestReadBzip2Member_Limit(t *testing.T) {
	t.Parallel()

	member := testutil.Compress(t, dumptype.CompressionBzip2, []byte(testutil.PageXML(1, "x")))
	_, err := readBzip2Member(bufio.NewReader(bytes.NewReader(member)), 8)
	assert.ErrorIs(t, err, dumptype.ErrSizeOverflow)
}
