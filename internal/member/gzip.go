package member

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/meigma/multistream/internal/sizing"
)

// decodeGzip decompresses one gzip member from r.
//
// r must be an io.ByteReader so the flate decoder reads no further than the
// member trailer.
func (d *Decoder) decodeGzip(r byteReader) ([]byte, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", errDecompression, err)
	}
	defer zr.Close()
	zr.Multistream(false)

	data, err := sizing.ReadAllWithLimit(zr, d.maxBlockSize, errSizeOverflow)
	if err != nil {
		if errors.Is(err, errSizeOverflow) {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: gzip: unexpected end of member", errDecompression)
		}
		return nil, fmt.Errorf("%w: gzip: %w", errDecompression, err)
	}
	return data, nil
}
