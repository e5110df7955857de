package multistream

import (
	"context"
	"io"
)

// ByteSource provides random access to the archive.
//
// Implementations exist for local files (*os.File) and HTTP range requests.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// rangeReader is implemented by sources that can stream a byte range with
// one request, such as the HTTP source.
type rangeReader interface {
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}
