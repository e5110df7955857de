package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/meigma/multistream/internal/dumptype"
)

// FileSink writes one file per document with atomic writes.
//
// Files are written to a temporary file in the destination directory,
// then renamed to the final path on Commit. This ensures that
// partially written documents are never visible at the final path.
type FileSink struct {
	destDir   string
	overwrite bool
	ext       string
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithExtension sets the file name extension, ".xml" by default.
func WithExtension(ext string) FileSinkOption {
	return func(s *FileSink) {
		s.ext = ext
	}
}

// NewFileSink creates a FileSink that writes to destDir.
//
// Documents are named by their id. destDir is created on first write.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		destDir: destDir,
		ext:     ".xml",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the destination path for rec.
func (s *FileSink) Path(rec dumptype.Record) string {
	return filepath.Join(s.destDir, strconv.FormatInt(rec.ID, 10)+s.ext)
}

// ShouldProcess returns false if the file already exists and overwrite is disabled.
func (s *FileSink) ShouldProcess(rec dumptype.Record) bool {
	if s.overwrite {
		return true
	}
	_, err := os.Stat(s.Path(rec))
	return os.IsNotExist(err)
}

// Writer returns a Committer that writes to a temp file and renames on Commit.
func (s *FileSink) Writer(rec dumptype.Record) (Committer, error) {
	if err := os.MkdirAll(s.destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", s.destDir, err)
	}

	tempFile, err := os.CreateTemp(s.destDir, ".multistream-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &fileCommitter{
		destPath: s.Path(rec),
		tempFile: tempFile,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destPath string
	tempFile *os.File
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	tempPath := c.tempFile.Name()

	if err := c.tempFile.Close(); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, c.destPath); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	tempPath := c.tempFile.Name()
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	return os.Remove(tempPath)
}
