// Package sizing provides overflow-safe size conversions and bounded reads.
package sizing

import (
	"io"
	"math"
)

// ToInt64 converts a block offset to int64, returning overflowErr if it doesn't fit.
func ToInt64(offset uint64, overflowErr error) (int64, error) {
	if offset > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(offset), nil
}

// ReadAllWithLimit reads r to EOF, returning overflowErr once more than
// maxSize bytes are produced. A maxSize of 0 disables the limit.
func ReadAllWithLimit(r io.Reader, maxSize uint64, overflowErr error) ([]byte, error) {
	if maxSize == 0 {
		return io.ReadAll(r)
	}
	if maxSize > uint64(math.MaxInt64-1) {
		return nil, overflowErr
	}
	lr := &io.LimitedReader{R: r, N: int64(maxSize) + 1} //nolint:gosec // checked above
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > maxSize {
		return nil, overflowErr
	}
	return data, nil
}
