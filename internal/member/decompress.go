package member

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DecompressPool manages reusable zstd decoders to reduce allocation overhead.
type DecompressPool struct {
	pool             *sync.Pool
	maxDecoderMemory uint64
}

// NewDecompressPool creates a new pool for zstd decoders.
// If maxMemory is 0, no memory limit is applied to decoders.
func NewDecompressPool(maxMemory uint64) *DecompressPool {
	p := &DecompressPool{
		maxDecoderMemory: maxMemory,
	}
	p.pool = &sync.Pool{
		New: func() any {
			dec, err := p.newDecoder(nil)
			if err != nil {
				return nil
			}
			return dec
		},
	}
	return p
}

// Get returns a decoder for DecodeAll calls.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *DecompressPool) Get() (*zstd.Decoder, func(), error) {
	dec, ok := p.pool.Get().(*zstd.Decoder)
	if !ok || dec == nil {
		// Pool's New function failed, try directly
		dec, err := p.newDecoder(nil)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	}

	return dec, func() {
		p.pool.Put(dec)
	}, nil
}

// NewStream returns a streaming reader over all frames in r.
// Closing the reader releases the decoder.
func (p *DecompressPool) NewStream(r io.Reader) (io.ReadCloser, error) {
	dec, err := p.newDecoder(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// newDecoder creates a new zstd decoder with the configured memory limit.
func (p *DecompressPool) newDecoder(r io.Reader) (*zstd.Decoder, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if p.maxDecoderMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxDecoderMemory))
	}
	return zstd.NewReader(r, opts...)
}
