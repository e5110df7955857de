package multistream

import "github.com/meigma/multistream/internal/dumptype"

// --- Re-exports from internal/dumptype ---

// Record is one parsed index line.
type Record = dumptype.Record

// Document is one extracted document subtree.
type Document = dumptype.Document

// Schema names the elements of the export format.
type Schema = dumptype.Schema

// Compression identifies the compression format of an archive or index.
type Compression = dumptype.Compression

// Compression constants.
const (
	CompressionAuto  = dumptype.CompressionAuto
	CompressionNone  = dumptype.CompressionNone
	CompressionBzip2 = dumptype.CompressionBzip2
	CompressionGzip  = dumptype.CompressionGzip
	CompressionZstd  = dumptype.CompressionZstd
)

// DefaultSeparator separates the fields of an index line.
const DefaultSeparator = dumptype.DefaultSeparator

// DefaultSchema matches the MediaWiki XML export format.
var DefaultSchema = dumptype.DefaultSchema

// ParseRecord parses an index line of the form offset SEP id SEP title.
var ParseRecord = dumptype.ParseRecord

// ParseCompression converts a name such as "bzip2" or "zst" to a Compression.
var ParseCompression = dumptype.ParseCompression

// NewDocument wraps a detached element resolved for a record.
var NewDocument = dumptype.NewDocument
