// Package ioutil holds small io helpers shared by the scanner and extractor.
package ioutil

import (
	"errors"
	"io"
	"sync/atomic"
)

// ErrOverflow indicates the counter exceeded its maximum value.
var ErrOverflow = errors.New("counter overflow")

// CountingReader wraps a reader and counts bytes read.
// Count may be called from another goroutine while reads are in progress.
type CountingReader struct {
	R io.Reader
	n atomic.Uint64
}

// NewCountingReader returns a CountingReader reading from r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{R: r}
}

// Read implements io.Reader.
func (cr *CountingReader) Read(p []byte) (int, error) {
	n, err := cr.R.Read(p)
	if n > 0 {
		cur := cr.n.Load()
		//nolint:gosec // n is guaranteed non-negative by io.Reader contract
		if cur > ^uint64(0)-uint64(n) {
			return n, ErrOverflow
		}
		cr.n.Add(uint64(n)) //nolint:gosec // overflow checked above
	}
	return n, err
}

// Count returns the number of bytes read so far.
func (cr *CountingReader) Count() uint64 {
	return cr.n.Load()
}
