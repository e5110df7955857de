// Package http reads multistream archives over HTTP range requests.
//
// A Source satisfies multistream.ByteSource and additionally streams
// open-ended ranges, so the extractor reads each block with a single
// request and stops as soon as the block's member ends.
package http //nolint:revive // intentional naming for domain clarity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrRangeUnsupported is returned when the server ignores range requests.
	ErrRangeUnsupported = errors.New("http: range requests not supported")

	// ErrSourceChanged is returned when a conditional range request fails
	// because the remote archive no longer matches the probed version.
	ErrSourceChanged = errors.New("http: remote content changed")
)

// maxDrain bounds how much of an abandoned range body is read on Close to
// keep the connection reusable. Larger remainders close the connection.
const maxDrain = 64 << 10

// Source implements random access reads via HTTP range requests.
type Source struct {
	url                   string
	client                *nethttp.Client
	headers               nethttp.Header
	size                  int64
	etag                  string
	lastModified          string
	useConditionalHeaders bool
	limiter               *rate.Limiter
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header. Dump mirrors commonly reject
// requests without a descriptive agent.
func WithUserAgent(agent string) Option {
	return WithHeader("User-Agent", agent)
}

// WithConditionalHeaders pins reads to the probed version of the archive
// using ETag or Last-Modified. A read against a changed archive fails with
// ErrSourceChanged, since its block offsets no longer match the index.
func WithConditionalHeaders() Option {
	return func(s *Source) {
		s.useConditionalHeaders = true
	}
}

// WithRateLimit spaces requests at least every apart, allowing bursts of
// up to burst requests. Public dump mirrors throttle clients that open many
// range requests at once.
func WithRateLimit(every time.Duration, burst int) Option {
	return func(s *Source) {
		if every <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(every), max(burst, 1))
	}
}

// NewSource creates a Source backed by HTTP range requests.
// It probes the remote to determine the content size.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:    url,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	size, etag, lastModified, err := s.fetchMetadata(ctx)
	if err != nil {
		return nil, err
	}
	s.size = size
	s.etag = etag
	s.lastModified = lastModified
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// ReadRange returns a reader for the byte range [off, off+length).
// The range is clamped to the content size. If the offset is at or beyond
// the content size, it returns io.EOF. The returned reader must be closed
// by the caller to release the underlying HTTP connection.
func (s *Source) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if length < 0 {
		return nil, fmt.Errorf("read range length %d: negative length", length)
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if off < 0 {
		return nil, fmt.Errorf("read range %d: negative offset", off)
	}
	if off >= s.size {
		return io.NopCloser(bytes.NewReader(nil)), io.EOF
	}
	if length > s.size-off {
		length = s.size - off
	}

	resp, err := s.rangeRequest(ctx, off, off+length-1)
	if err != nil {
		return nil, err
	}
	if err := checkRangeStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &rangeReadCloser{
		body:   resp.Body,
		reader: io.LimitReader(resp.Body, length),
	}, nil
}

// ReadAt reads len(p) bytes from the remote at the given offset using HTTP range requests.
// It implements [io.ReaderAt]. If fewer bytes are available than requested, it returns
// the number of bytes read along with io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	rc, err := s.ReadRange(context.Background(), off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	expected := len(p)
	if rest := s.size - off; rest < int64(expected) {
		expected = int(rest)
	}
	n, err := io.ReadFull(rc, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// checkRangeStatus maps a range response status to an error.
func checkRangeStatus(resp *nethttp.Response) error {
	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		return nil
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return io.EOF
	case nethttp.StatusPreconditionFailed:
		return ErrSourceChanged
	case nethttp.StatusOK:
		return ErrRangeUnsupported
	default:
		return fmt.Errorf("range request failed: %s", resp.Status)
	}
}

// fetchMetadata retrieves content size and cache validators from the remote server.
// It first attempts a HEAD request, then verifies with a range probe.
func (s *Source) fetchMetadata(ctx context.Context) (size int64, etag, lastModified string, err error) {
	size = -1

	if resp, headErr := s.doHead(ctx); headErr == nil {
		size = resp.ContentLength
		etag = resp.Header.Get("ETag")
		lastModified = resp.Header.Get("Last-Modified")
		resp.Body.Close()
	}

	rangeSize, rangeETag, rangeLastModified, err := s.rangeProbe(ctx)
	if err != nil {
		return 0, "", "", err
	}
	if size > 0 && size != rangeSize {
		return 0, "", "", fmt.Errorf("content size mismatch: head=%d range=%d", size, rangeSize)
	}
	if etag == "" {
		etag = rangeETag
	}
	if lastModified == "" {
		lastModified = rangeLastModified
	}
	return rangeSize, etag, lastModified, nil
}

// rangeProbe verifies range request support and extracts content size from Content-Range.
func (s *Source) rangeProbe(ctx context.Context) (size int64, etag, lastModified string, err error) {
	req, err := s.newRequest(ctx, nethttp.MethodGet, false)
	if err != nil {
		return 0, "", "", err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.do(req)
	if err != nil {
		return 0, "", "", err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != nethttp.StatusPartialContent {
		if resp.StatusCode == nethttp.StatusOK {
			return 0, "", "", ErrRangeUnsupported
		}
		return 0, "", "", fmt.Errorf("range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return 0, "", "", errors.New("range probe missing Content-Range")
	}
	size, err = parseContentRange(crange)
	if err != nil {
		return 0, "", "", err
	}

	return size, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

// doHead performs a HEAD request to retrieve metadata without body content.
func (s *Source) doHead(ctx context.Context) (*nethttp.Response, error) {
	req, err := s.newRequest(ctx, nethttp.MethodHead, false)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

// newRequest creates an HTTP request with configured headers and optional conditional headers.
func (s *Source) newRequest(ctx context.Context, method string, withConditions bool) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, s.url, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if withConditions && s.useConditionalHeaders {
		if s.etag != "" && req.Header.Get("If-Match") == "" {
			req.Header.Set("If-Match", s.etag)
		}
		if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}
	return req, nil
}

// rangeRequest performs a GET request for the inclusive byte range [off, end].
func (s *Source) rangeRequest(ctx context.Context, off, end int64) (*nethttp.Response, error) {
	req, err := s.newRequest(ctx, nethttp.MethodGet, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))
	return s.do(req)
}

// do sends req once the rate limiter, if any, admits it.
func (s *Source) do(req *nethttp.Request) (*nethttp.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return s.client.Do(req)
}

// rangeReadCloser wraps an HTTP response body with a limit reader.
type rangeReadCloser struct {
	body   io.ReadCloser
	reader io.Reader
}

// Read reads from the underlying limit reader.
func (r *rangeReadCloser) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

// Close drains a short remainder for connection reuse and closes the body.
func (r *rangeReadCloser) Close() error {
	_, _ = io.CopyN(io.Discard, r.reader, maxDrain) //nolint:errcheck // best-effort drain for connection reuse
	return r.body.Close()
}

// parseContentRange extracts the total size from a Content-Range header value.
// It expects the format "bytes start-end/size" and returns the size portion.
func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "bytes ") {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	parts := strings.SplitN(strings.TrimPrefix(value, "bytes "), "/", 2)
	if len(parts) != 2 || parts[1] == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
