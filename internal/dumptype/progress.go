package dumptype

// ProgressEvent represents a progress update during scanning or extraction.
type ProgressEvent struct {
	// Stage identifies the kind of update.
	Stage ProgressStage

	// BytesDone is the number of index bytes consumed so far (StageScanning).
	BytesDone uint64

	// BytesTotal is the size of the index in bytes.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// Record is the matched record (StageRecordFound, StageDocumentFound).
	Record *Record

	// Document is the resolved document (StageDocumentFound).
	Document *Document

	// Offset is the block offset just decompressed (StageDecompressing).
	Offset uint64

	// BlocksDone is the number of blocks decompressed so far.
	BlocksDone int

	// BlocksTotal is the number of distinct blocks the extraction needs.
	BlocksTotal int

	// DocumentsDone is the cumulative number of documents resolved.
	DocumentsDone int

	// DocumentsTotal is the number of records requested.
	DocumentsTotal int
}

// Percent returns the completion percentage of the stage, truncated toward zero.
// Scan events report bytes, block events report blocks and document events
// report resolved documents over requested records.
func (e ProgressEvent) Percent() int {
	switch e.Stage {
	case StageScanning:
		if e.BytesTotal == 0 {
			return 0
		}
		return int(min(e.BytesDone, e.BytesTotal) * 100 / e.BytesTotal) //nolint:gosec // bounded by 100
	case StageDecompressing:
		return percent(e.BlocksDone, e.BlocksTotal)
	case StageDocumentFound:
		return percent(e.DocumentsDone, e.DocumentsTotal)
	default:
		return 0
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}

// ProgressStage identifies the kind of progress update.
type ProgressStage uint8

// Progress stages for scanning and extraction.
const (
	// StageScanning reports index bytes consumed. It is emitted every
	// progress interval lines and once more when the scan completes.
	StageScanning ProgressStage = iota

	// StageRecordFound reports an index record matching the query.
	StageRecordFound

	// StageDecompressing reports a block that was decompressed and parsed.
	StageDecompressing

	// StageDocumentFound reports a document resolved from its block.
	StageDocumentFound
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageRecordFound:
		return "record found"
	case StageDecompressing:
		return "decompressing"
	case StageDocumentFound:
		return "document found"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates.
// Scanners and extractors call it from the goroutine running the operation,
// one event at a time.
type ProgressFunc func(ProgressEvent)
