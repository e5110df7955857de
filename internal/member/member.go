// Package member decodes single members of multi-member compressed archives.
//
// A multi-member archive is a concatenation of independently decodable
// compressed streams: bzip2 streams, gzip members or zstd frames. Given a
// reader positioned at a member boundary, Decoder.Decode decompresses that
// member alone and leaves the reader positioned at the next boundary.
package member

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/meigma/multistream/internal/dumptype"
)

// Compression is an alias for dumptype.Compression.
type Compression = dumptype.Compression

// Re-export compression constants.
const (
	CompressionAuto  = dumptype.CompressionAuto
	CompressionNone  = dumptype.CompressionNone
	CompressionBzip2 = dumptype.CompressionBzip2
	CompressionGzip  = dumptype.CompressionGzip
	CompressionZstd  = dumptype.CompressionZstd
)

var (
	errDecompression = dumptype.ErrDecompression
	errSizeOverflow  = dumptype.ErrSizeOverflow
)

const (
	// DefaultMaxBlockSize is the default maximum size of one decompressed block (256MB).
	DefaultMaxBlockSize = 256 << 20

	// DefaultMaxDecoderMemory is the default maximum zstd decoder memory (256MB).
	DefaultMaxDecoderMemory = 256 << 20
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Decoder decompresses single archive members.
// A Decoder is safe for concurrent use.
type Decoder struct {
	maxBlockSize     uint64
	maxDecoderMemory uint64
	pool             *DecompressPool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxBlockSize limits the size of one member, compressed and decompressed.
// Set limit to 0 to disable the limit.
func WithMaxBlockSize(limit uint64) Option {
	return func(d *Decoder) {
		d.maxBlockSize = limit
	}
}

// WithMaxDecoderMemory limits the memory used by the zstd decoder.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(d *Decoder) {
		d.maxDecoderMemory = limit
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxBlockSize:     DefaultMaxBlockSize,
		maxDecoderMemory: DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pool = NewDecompressPool(d.maxDecoderMemory)
	return d
}

// Decode decompresses exactly one member from the start of r.
//
// With CompressionAuto the format is detected from the member's magic bytes.
// On success r is positioned immediately after the member.
func (d *Decoder) Decode(r *bufio.Reader, c Compression) ([]byte, error) {
	if c == CompressionAuto {
		detected, err := Detect(r)
		if err != nil {
			return nil, err
		}
		c = detected
	}

	switch c {
	case CompressionBzip2:
		return d.decodeBzip2(r)
	case CompressionGzip:
		return d.decodeGzip(r)
	case CompressionZstd:
		return d.decodeZstd(r)
	case CompressionNone:
		return nil, fmt.Errorf("%w: %w: no compressed member at offset", errDecompression, dumptype.ErrUnknownCompression)
	default:
		return nil, fmt.Errorf("%w: %d", dumptype.ErrUnknownCompression, c)
	}
}

// Detect identifies the compression format from the magic bytes at the start
// of r without consuming them. Input without a known magic is reported as
// CompressionNone.
func Detect(r *bufio.Reader) (Compression, error) {
	magic, err := r.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return CompressionNone, err
	}
	switch {
	case len(magic) >= 3 && bytes.Equal(magic[:3], []byte("BZh")):
		return CompressionBzip2, nil
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		return CompressionGzip, nil
	case len(magic) == 4 && binary.LittleEndian.Uint32(magic) == zstdMagic:
		return CompressionZstd, nil
	default:
		return CompressionNone, nil
	}
}

// NewStreamReader returns a reader over the whole decompressed content of r,
// decoding every member in sequence. It is used for compressed index files.
// With CompressionAuto, input without a known magic is read as plain text.
func (d *Decoder) NewStreamReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	if c == CompressionAuto {
		detected, err := Detect(br)
		if err != nil {
			return nil, err
		}
		c = detected
	}

	switch c {
	case CompressionNone:
		return io.NopCloser(br), nil
	case CompressionBzip2:
		return io.NopCloser(bzip2.NewReader(br)), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", errDecompression, err)
		}
		return zr, nil
	case CompressionZstd:
		rc, err := d.pool.NewStream(br)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", errDecompression, err)
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("%w: %d", dumptype.ErrUnknownCompression, c)
	}
}

// truncated maps an end of input inside a member to a decompression error
// and passes other read errors through unchanged.
func truncated(err error, codec string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: unexpected end of member", errDecompression, codec)
	}
	return err
}
