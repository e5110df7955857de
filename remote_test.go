package multistream_test

import (
	"bytes"
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/multistream"
	mshttp "github.com/meigma/multistream/http"
	"github.com/meigma/multistream/internal/testutil"
)

func TestExtract_RemoteArchive(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildArchive(t, multistream.CompressionZstd, 6, 10)
	var blockRequests atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if rng := r.Header.Get("Range"); rng != "" && rng != "bytes=0-0" {
			blockRequests.Add(1)
		}
		nethttp.ServeContent(w, r, "dump", time.Time{}, bytes.NewReader(archive.Data))
	}))
	t.Cleanup(server.Close)

	src, err := mshttp.NewSource(context.Background(), server.URL, mshttp.WithConditionalHeaders())
	require.NoError(t, err)

	index := testutil.BuildIndex(archive.Records, multistream.DefaultSeparator)
	scanner := multistream.NewScanner(strings.NewReader(index), int64(len(index)))
	records, err := scanner.SearchByIDs(context.Background(), 4, 5, 41, 59)
	require.NoError(t, err)

	docs, err := multistream.NewExtractor(src, multistream.WithWorkers(2)).Extract(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, docs, 4)
	for i, doc := range docs {
		assert.Equal(t, records[i].Title, doc.Title())
	}
	assert.Equal(t, int32(3), blockRequests.Load(), "one range request per distinct block")
}
