package multistream

import "log/slog"

// DefaultProgressInterval is the number of index lines between scan
// progress events.
const DefaultProgressInterval = 1000

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithSeparator sets the index field separator. The default is ':'.
func WithSeparator(sep rune) ScannerOption {
	return func(s *Scanner) {
		s.sep = sep
	}
}

// WithIndexCompression sets the compression of the index file.
// The default, CompressionAuto, reads plain text unless the file starts with
// a bzip2, gzip or zstd magic.
func WithIndexCompression(c Compression) ScannerOption {
	return func(s *Scanner) {
		s.compression = c
	}
}

// WithProgressInterval sets how many lines pass between scan progress events.
// Values < 1 use DefaultProgressInterval.
func WithProgressInterval(lines int) ScannerOption {
	return func(s *Scanner) {
		s.interval = lines
	}
}

// WithScannerProgress sets a callback to receive scan progress and matches.
func WithScannerProgress(fn ProgressFunc) ScannerOption {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// WithScannerLogger sets the logger for scan operations.
// If not set, logging is disabled.
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}
