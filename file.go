package multistream

import (
	"fmt"
	"os"
)

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive file: %w", err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// IndexFile wraps a Scanner with its underlying index file handle.
// Close must be called to release file resources.
type IndexFile struct {
	*Scanner
	file *os.File
}

// OpenIndex opens an index file for searching.
//
// The file may be plain text or compressed with bzip2, gzip or zstd. Since
// files are seekable, the returned IndexFile supports repeated searches.
func OpenIndex(path string, opts ...ScannerOption) (*IndexFile, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat index file: %w", err)
	}
	return &IndexFile{
		Scanner: NewScanner(f, info.Size(), opts...),
		file:    f,
	}, nil
}

// Close closes the underlying index file.
func (i *IndexFile) Close() error {
	if i.file == nil {
		return nil
	}
	err := i.file.Close()
	i.file = nil
	return err
}

// ArchiveFile wraps an Extractor with its underlying archive file handle.
// Close must be called to release file resources.
type ArchiveFile struct {
	*Extractor
	file *os.File
}

// OpenArchive opens a multistream archive for extraction.
func OpenArchive(path string, opts ...ExtractorOption) (*ArchiveFile, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	source, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ArchiveFile{
		Extractor: NewExtractor(source, opts...),
		file:      f,
	}, nil
}

// Close closes the underlying archive file.
func (a *ArchiveFile) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Interface compliance.
var (
	_ ByteSource                 = (*fileSource)(nil)
	_ interface{ Close() error } = (*IndexFile)(nil)
	_ interface{ Close() error } = (*ArchiveFile)(nil)
)
