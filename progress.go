package multistream

import "github.com/meigma/multistream/internal/dumptype"

// Re-export progress types from internal/dumptype.
type (
	// ProgressEvent represents a progress update during scanning or extraction.
	ProgressEvent = dumptype.ProgressEvent

	// ProgressStage identifies the kind of progress update.
	ProgressStage = dumptype.ProgressStage

	// ProgressFunc receives progress updates.
	// It is called from the goroutine running the operation, one event at a time.
	ProgressFunc = dumptype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageScanning reports index bytes consumed.
	StageScanning = dumptype.StageScanning

	// StageRecordFound reports an index record matching the query.
	StageRecordFound = dumptype.StageRecordFound

	// StageDecompressing reports a block that was decompressed and parsed.
	StageDecompressing = dumptype.StageDecompressing

	// StageDocumentFound reports a document resolved from its block.
	StageDocumentFound = dumptype.StageDocumentFound
)
