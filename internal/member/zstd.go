package member

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	zstdMagic        = 0xFD2FB528
	zstdMaxBlockSize = 128 << 10
	zstdChecksumSize = 4
)

var zstdDictIDSizes = [4]int{0, 1, 2, 4}

// frameReader copies whole fields of a zstd frame into buf.
// After the first error every read returns zeroes and err is kept.
type frameReader struct {
	r     io.Reader
	buf   []byte
	limit uint64
	err   error
}

func (f *frameReader) next(n int) []byte {
	if f.err != nil {
		return make([]byte, n)
	}
	if f.limit > 0 && uint64(len(f.buf)+n) > f.limit {
		f.err = errSizeOverflow
		return make([]byte, n)
	}
	start := len(f.buf)
	f.buf = append(f.buf, make([]byte, n)...)
	if _, err := io.ReadFull(f.r, f.buf[start:]); err != nil {
		f.err = truncated(err, "zstd")
		return make([]byte, n)
	}
	return f.buf[start:]
}

func (f *frameReader) fail(msg string) {
	if f.err == nil {
		f.err = fmt.Errorf("%w: zstd: %s", errDecompression, msg)
	}
}

// readZstdFrame returns the bytes of the zstd frame at the start of r.
// The frame is walked header by header, so nothing past its last block
// (or checksum) is consumed.
func readZstdFrame(r io.Reader, limit uint64) ([]byte, error) {
	f := &frameReader{r: r, limit: limit}

	if binary.LittleEndian.Uint32(f.next(4)) != zstdMagic {
		f.fail("invalid frame magic")
		return nil, f.err
	}

	fhd := f.next(1)[0]
	if fhd&0x08 != 0 {
		f.fail("reserved frame header bit set")
	}
	singleSegment := fhd&0x20 != 0
	hasChecksum := fhd&0x04 != 0

	headerSize := zstdDictIDSizes[fhd&0x03]
	if !singleSegment {
		headerSize++ // window descriptor
	}
	switch fhd >> 6 {
	case 0:
		if singleSegment {
			headerSize++
		}
	case 1:
		headerSize += 2
	case 2:
		headerSize += 4
	case 3:
		headerSize += 8
	}
	f.next(headerSize)

	for f.err == nil {
		h := f.next(3)
		header := uint32(h[0]) | uint32(h[1])<<8 | uint32(h[2])<<16
		last := header&1 == 1
		size := int(header >> 3)
		if size > zstdMaxBlockSize {
			f.fail("block size exceeds maximum")
			break
		}

		switch (header >> 1) & 0x03 {
		case 0, 2: // raw, compressed
			f.next(size)
		case 1: // RLE
			f.next(1)
		default:
			f.fail("reserved block type")
		}
		if last {
			break
		}
	}
	if hasChecksum {
		f.next(zstdChecksumSize)
	}

	if f.err != nil {
		return nil, f.err
	}
	return f.buf, nil
}

// decodeZstd decompresses one zstd frame from r.
func (d *Decoder) decodeZstd(r io.Reader) ([]byte, error) {
	frame, err := readZstdFrame(r, d.maxBlockSize)
	if err != nil {
		return nil, err
	}

	dec, release, err := d.pool.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", errDecompression, err)
	}
	defer release()

	data, err := dec.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", errDecompression, err)
	}
	if d.maxBlockSize > 0 && uint64(len(data)) > d.maxBlockSize {
		return nil, errSizeOverflow
	}
	return data, nil
}
