package member

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/multistream/internal/dumptype"
)

func TestReadZstdFrame_EncoderVariants(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("<page><id>1</id></page>\n"), 20000)
	tests := []struct {
		name string
		opts []zstd.EOption
	}{
		{"default", nil},
		{"no checksum", []zstd.EOption{zstd.WithEncoderCRC(false)}},
		{"fastest", []zstd.EOption{zstd.WithEncoderLevel(zstd.SpeedFastest)}},
		{"no content size", []zstd.EOption{zstd.WithSingleSegment(false), zstd.WithWindowSize(1 << 17)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			enc, err := zstd.NewWriter(nil, tt.opts...)
			require.NoError(t, err)
			frame := enc.EncodeAll(content, nil)
			require.NoError(t, enc.Close())

			following := append(append([]byte{}, frame...), 0xAA, 0xBB)
			r := bytes.NewReader(following)
			got, err := readZstdFrame(r, 0)
			require.NoError(t, err)
			assert.Equal(t, frame, got)
			assert.Equal(t, 2, r.Len())
		})
	}
}

func TestReadZstdFrame_Invalid(t *testing.T) {
	t.Parallel()

	_, err := readZstdFrame(bytes.NewReader([]byte("not zstd at all")), 0)
	assert.ErrorIs(t, err, dumptype.ErrDecompression)

	// Magic followed by a header with the reserved bit set.
	_, err = readZstdFrame(bytes.NewReader([]byte{0x28, 0xB5, 0x2F, 0xFD, 0x08, 0, 0, 0}), 0)
	assert.ErrorIs(t, err, dumptype.ErrDecompression)
}
