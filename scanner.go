package multistream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/meigma/multistream/internal/dumptype"
	"github.com/meigma/multistream/internal/ioutil"
	"github.com/meigma/multistream/internal/member"
)

// Scanner selects records from an index with a single forward pass.
//
// Searches on one Scanner are serialized. A Scanner over an io.Seeker is
// rewound before every search; otherwise only one search is possible.
type Scanner struct {
	r    io.Reader
	size int64

	sep         rune
	compression Compression
	interval    int
	progress    ProgressFunc
	logger      *slog.Logger
	decoder     *member.Decoder

	mu   sync.Mutex
	used bool
}

// NewScanner creates a Scanner reading the index from r.
//
// size is the length of r in bytes and is used for progress reporting;
// pass 0 if it is unknown.
func NewScanner(r io.Reader, size int64, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		r:        r,
		size:     size,
		sep:      DefaultSeparator,
		interval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval < 1 {
		s.interval = DefaultProgressInterval
	}
	s.decoder = member.NewDecoder(member.WithMaxBlockSize(0))
	return s
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Scanner) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// SearchByIDs returns the records whose document id is one of ids.
// An empty set matches nothing.
func (s *Scanner) SearchByIDs(ctx context.Context, ids ...int64) ([]Record, error) {
	if ids == nil {
		ids = []int64{}
	}
	return s.Search(ctx, Query{IDs: ids})
}

// SearchByTitles returns the records whose title equals one of titles.
// An empty set matches nothing.
func (s *Scanner) SearchByTitles(ctx context.Context, titles ...string) ([]Record, error) {
	if titles == nil {
		titles = []string{}
	}
	return s.Search(ctx, Query{Titles: titles})
}

// SearchByPattern returns the records whose title contains a match of re.
func (s *Scanner) SearchByPattern(ctx context.Context, re *regexp.Regexp) ([]Record, error) {
	return s.Search(ctx, Query{Pattern: re})
}

// Search returns the records matching q in index order.
//
// Every non-empty line must parse; the first malformed line aborts the
// search with a *ParseError and no records. Cancellation is checked
// before each line.
func (s *Scanner) Search(ctx context.Context, q Query) ([]Record, error) {
	if q.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rewind(); err != nil {
		return nil, err
	}

	counter := ioutil.NewCountingReader(s.r)
	stream, err := s.decoder.NewStreamReader(counter, s.compression)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer stream.Close()

	s.log().Debug("index scan started", "size", s.size, "ids", len(q.IDs), "titles", len(q.Titles),
		"pattern", q.Pattern != nil)

	m := newMatcher(q)
	br := bufio.NewReaderSize(stream, 64<<10)
	var matches []Record
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read index: %w", readErr)
		}
		if line == "" && readErr != nil {
			break
		}
		lineNo++

		if (lineNo-1)%s.interval == 0 {
			s.emit(ProgressEvent{Stage: StageScanning, BytesDone: counter.Count(), BytesTotal: s.total()})
		}

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			rec, err := dumptype.ParseRecord(line, s.sep)
			if err != nil {
				var pe *ParseError
				if errors.As(err, &pe) {
					pe.Line = lineNo
				}
				return nil, err
			}
			if m.match(rec) {
				matches = append(matches, rec)
				s.emit(ProgressEvent{Stage: StageRecordFound, Record: &rec})
			}
		}

		if readErr != nil {
			break
		}
	}

	s.emit(ProgressEvent{Stage: StageScanning, BytesDone: counter.Count(), BytesTotal: s.total()})
	s.log().Debug("index scan finished", "lines", lineNo, "matches", len(matches), "bytes", counter.Count())
	return matches, nil
}

// rewind positions the index at its start for a new search.
func (s *Scanner) rewind() error {
	if !s.used {
		s.used = true
		return nil
	}
	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return ErrIndexConsumed
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind index: %w", err)
	}
	return nil
}

func (s *Scanner) total() uint64 {
	if s.size <= 0 {
		return 0
	}
	return uint64(s.size)
}

func (s *Scanner) emit(e ProgressEvent) {
	if s.progress != nil {
		s.progress(e)
	}
}
