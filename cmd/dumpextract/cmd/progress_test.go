package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meigma/multistream"
)

func TestProgressBar_NilIsNoop(t *testing.T) {
	var p *progressBar
	assert.NotPanics(t, func() {
		p.Update(multistream.ProgressEvent{Stage: multistream.StageScanning})
		p.Finish()
	})
}

func TestNewProgressBar_NotATerminal(t *testing.T) {
	assert.Nil(t, newProgressBar(&bytes.Buffer{}))
}

func TestProgressBar_RendersScan(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressBarWith(&buf, true)

	p.Update(multistream.ProgressEvent{Stage: multistream.StageRecordFound})
	p.Update(multistream.ProgressEvent{Stage: multistream.StageRecordFound})
	p.Update(multistream.ProgressEvent{Stage: multistream.StageScanning, BytesDone: 50, BytesTotal: 100})
	p.Finish()

	out := buf.String()
	assert.Contains(t, out, "scanning")
	assert.Contains(t, out, " 50%")
	assert.Contains(t, out, "2 matches")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestProgressBar_SkipsIdenticalLines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressBarWith(&buf, true)

	ev := multistream.ProgressEvent{Stage: multistream.StageDecompressing, BlocksDone: 1, BlocksTotal: 4}
	p.Update(ev)
	p.Update(ev)

	assert.Equal(t, 1, strings.Count(buf.String(), "\r"))
	assert.Contains(t, buf.String(), "1/4 blocks")
}

func TestProgressBar_RendersDocuments(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressBarWith(&buf, true)

	p.Update(multistream.ProgressEvent{Stage: multistream.StageDocumentFound, DocumentsDone: 3, DocumentsTotal: 4})

	assert.Contains(t, buf.String(), "document found")
	assert.Contains(t, buf.String(), " 75%")
	assert.Contains(t, buf.String(), "3/4 documents")
}

func TestProgressBar_FinishWithoutOutput(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressBarWith(&buf, true)
	p.Finish()
	assert.Empty(t, buf.String())
}
