package dumptype

import (
	"fmt"
	"strings"
)

// Compression identifies the compression format of an archive or index.
type Compression uint8

const (
	// CompressionAuto detects the format from the leading magic bytes.
	CompressionAuto Compression = iota
	CompressionNone
	CompressionBzip2
	CompressionGzip
	CompressionZstd
)

// String returns the human-readable name of the compression format.
func (c Compression) String() string {
	switch c {
	case CompressionAuto:
		return "auto"
	case CompressionNone:
		return "none"
	case CompressionBzip2:
		return "bzip2"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression converts a name such as "bzip2" or "zst" to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return CompressionAuto, nil
	case "none", "plain", "text":
		return CompressionNone, nil
	case "bzip2", "bz2":
		return CompressionBzip2, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}
