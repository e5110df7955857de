package dumptype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Compression
	}{
		{"", CompressionAuto},
		{"auto", CompressionAuto},
		{"none", CompressionNone},
		{"plain", CompressionNone},
		{"bzip2", CompressionBzip2},
		{"BZ2", CompressionBzip2},
		{"gzip", CompressionGzip},
		{"gz", CompressionGzip},
		{"zstd", CompressionZstd},
		{"zst", CompressionZstd},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCompression(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseCompression("lz4")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestCompression_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "auto", CompressionAuto.String())
	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "bzip2", CompressionBzip2.String())
	assert.Equal(t, "gzip", CompressionGzip.String())
	assert.Equal(t, "zstd", CompressionZstd.String())
}
