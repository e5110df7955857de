package member

import (
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/multistream/internal/sizing"
)

const (
	// bzip2EndMagic is the bit-aligned end-of-stream marker (BCD of sqrt(pi)).
	bzip2EndMagic  = 0x177245385090
	bzip2MagicBits = 48
	bzip2MagicMask = 1<<bzip2MagicBits - 1

	bzip2HeaderSize = 4
	// The 32-bit stream CRC follows the end marker and the stream is then
	// padded to a byte boundary. However the marker is aligned, that is
	// always four more bytes.
	bzip2TrailerSize = 4
)

// readBzip2Member returns the compressed bytes of the bzip2 stream at the
// start of r. Nothing past the stream's final padded byte is consumed.
//
// bzip2 records no stream length and its end marker is bit-aligned, so the
// marker is located by sliding a 48-bit window over the input one bit at a
// time.
func readBzip2Member(r io.ByteReader, limit uint64) ([]byte, error) {
	buf := make([]byte, 0, 64<<10)
	var window uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, truncated(err, "bzip2")
		}
		buf = append(buf, b)
		window = window<<8 | uint64(b)

		if len(buf) < bzip2HeaderSize {
			continue
		}
		if len(buf) == bzip2HeaderSize {
			if !validBzip2Header(buf) {
				return nil, fmt.Errorf("%w: bzip2: invalid stream header", errDecompression)
			}
			continue
		}
		if limit > 0 && uint64(len(buf)) > limit {
			return nil, errSizeOverflow
		}

		bits := (len(buf) - bzip2HeaderSize) * 8
		// Earliest end position first: a marker ending 7 bits before the
		// newest bit precedes one ending on it.
		for shift := 7; shift >= 0; shift-- {
			if bits < bzip2MagicBits+shift {
				continue
			}
			if (window>>shift)&bzip2MagicMask != bzip2EndMagic {
				continue
			}
			for range bzip2TrailerSize {
				b, err := r.ReadByte()
				if err != nil {
					return nil, truncated(err, "bzip2")
				}
				buf = append(buf, b)
			}
			return buf, nil
		}
	}
}

func validBzip2Header(h []byte) bool {
	return h[0] == 'B' && h[1] == 'Z' && h[2] == 'h' && h[3] >= '1' && h[3] <= '9'
}

// decodeBzip2 decompresses one bzip2 stream from r.
func (d *Decoder) decodeBzip2(r io.ByteReader) ([]byte, error) {
	raw, err := readBzip2Member(r, d.maxBlockSize)
	if err != nil {
		return nil, err
	}
	data, err := sizing.ReadAllWithLimit(bzip2.NewReader(bytes.NewReader(raw)), d.maxBlockSize, errSizeOverflow)
	if err != nil {
		if errors.Is(err, errSizeOverflow) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: bzip2: %w", errDecompression, err)
	}
	return data, nil
}
