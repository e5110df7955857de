package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	mshttp "github.com/meigma/multistream/http"
)

// newHTTPSource serves data over HTTP when cfg.dataURL is "local" and opens
// the archive through range requests.
//
//nolint:gocritic // hugeParam acceptable for profiler
func newHTTPSource(cfg config, data []byte) (*mshttp.Source, func(), error) {
	if cfg.dataURL != "local" {
		return nil, nil, errors.New(`data-url must be "local": records are only known for generated archives`)
	}

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "dump.xml", time.Time{}, bytes.NewReader(data))
	}))

	source, err := mshttp.NewSource(context.Background(), server.URL,
		mshttp.WithClient(newHTTPClient(cfg)),
		mshttp.WithConditionalHeaders(),
	)
	if err != nil {
		server.Close()
		return nil, nil, err
	}
	return source, server.Close, nil
}

//nolint:gocritic // hugeParam acceptable for profiler
func newHTTPClient(cfg config) *nethttp.Client {
	transport := nethttp.DefaultTransport
	if base, ok := transport.(*nethttp.Transport); ok {
		transport = base.Clone()
	}
	if cfg.dataHTTPLatency > 0 || cfg.dataHTTPBPS > 0 {
		transport = &throttledTransport{
			base:           transport,
			latency:        cfg.dataHTTPLatency,
			bytesPerSecond: cfg.dataHTTPBPS,
		}
	}
	return &nethttp.Client{Transport: transport}
}

// throttledTransport delays every request and caps body throughput, to
// approximate a distant dump mirror.
type throttledTransport struct {
	base           nethttp.RoundTripper
	latency        time.Duration
	bytesPerSecond int64
}

func (t *throttledTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	if t.latency > 0 {
		select {
		case <-time.After(t.latency):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if t.bytesPerSecond > 0 && resp.Body != nil {
		resp.Body = newThrottledBody(req.Context(), resp.Body, t.bytesPerSecond)
	}
	return resp, nil
}

// throttledBody caps the read rate of a response body with a token bucket
// holding one second of bytes.
type throttledBody struct {
	io.ReadCloser
	ctx     context.Context
	limiter *rate.Limiter
}

func newThrottledBody(ctx context.Context, body io.ReadCloser, bytesPerSecond int64) *throttledBody {
	burst := int(min(bytesPerSecond, 1<<30))
	return &throttledBody{
		ReadCloser: body,
		ctx:        ctx,
		limiter:    rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
	}
}

func (b *throttledBody) Read(p []byte) (int, error) {
	if len(p) > b.limiter.Burst() {
		p = p[:b.limiter.Burst()]
	}
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		if waitErr := b.limiter.WaitN(b.ctx, n); waitErr != nil && err == nil {
			err = waitErr
		}
	}
	return n, err
}

var byteUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"gb", 1 << 30}, {"g", 1 << 30},
	{"mb", 1 << 20}, {"m", 1 << 20},
	{"kb", 1 << 10}, {"k", 1 << 10},
}

// parseBytesPerSecond parses rates such as "512k", "10MBps" or "1g/s".
func parseBytesPerSecond(value string) (int64, error) {
	text := strings.ToLower(strings.TrimSpace(value))
	text = strings.TrimSuffix(text, "/s")
	text = strings.TrimSuffix(text, "ps")

	multiplier := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(text, u.suffix) {
			multiplier = u.multiplier
			text = strings.TrimSuffix(text, u.suffix)
			break
		}
	}

	raw, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || raw <= 0 {
		return 0, fmt.Errorf("invalid bytes-per-second %q", value)
	}
	return raw * multiplier, nil
}
