// Package batch runs per-block work for groups of index records.
//
// Records that share a block offset are grouped so each block is read and
// decoded once. Groups are handled in ascending offset order, either one at
// a time or on a bounded pool of decode workers whose results are consumed
// in order.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/meigma/multistream/internal/fragment"
)

// DecodeFunc reads and parses the block for one group.
// It may be called concurrently for different groups.
type DecodeFunc func(ctx context.Context, g Group) (*fragment.Block, error)

// ConsumeFunc receives a decoded block. It is called once per group, in
// ascending offset order, never concurrently.
type ConsumeFunc func(g Group, block *fragment.Block) error

// Processor drives decode and consume calls over a list of groups.
type Processor struct {
	workers   int // <2 = sequential
	readAhead int
	logger    *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of concurrent block decoders.
// Values < 2 decode sequentially.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithReadAhead caps the number of decoded blocks held in memory at once.
// Zero uses twice the worker count.
func WithReadAhead(n int) ProcessorOption {
	return func(p *Processor) {
		p.readAhead = n
	}
}

// WithProcessorLogger sets the logger for batch processing operations.
// If not set, logging is disabled.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a new batch processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decodes every group and hands each block to consume.
//
// Groups must be in ascending offset order, as returned by GroupByOffset.
// Cancellation is observed between groups. Processing stops on the first
// error encountered.
func (p *Processor) Process(ctx context.Context, groups []Group, decode DecodeFunc, consume ConsumeFunc) error {
	if len(groups) == 0 {
		return nil
	}
	p.log().Debug("batch processing", "groups", len(groups), "workers", max(p.workers, 1))

	if len(groups) > 1 && p.workers > 1 {
		return p.processPipelined(ctx, groups, decode, consume)
	}
	return p.processSequential(ctx, groups, decode, consume)
}

// processSequential handles groups one at a time.
func (p *Processor) processSequential(ctx context.Context, groups []Group, decode DecodeFunc, consume ConsumeFunc) error {
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		block, err := decode(ctx, g)
		if err != nil {
			return err
		}
		if err := consume(g, block); err != nil {
			return err
		}
	}
	return nil
}

// groupTask is a group waiting for a decode worker.
type groupTask struct {
	index int
	group Group
}

// groupResult is a decoded group waiting for its turn to be consumed.
type groupResult struct {
	index int
	group Group
	block *fragment.Block
}

// processPipelined decodes groups on p.workers goroutines and consumes them
// in index order. A slot in the read-ahead window is taken before a task is
// dispatched and returned after its block is consumed, so the lowest pending
// index always holds a slot.
//
//nolint:gocognit // producer, workers and in-order consumer coordinate through channels
func (p *Processor) processPipelined(ctx context.Context, groups []Group, decode DecodeFunc, consume ConsumeFunc) error {
	workers := min(p.workers, len(groups))
	window := p.readAhead
	if window < 1 {
		window = 2 * workers
	}
	slots := semaphore.NewWeighted(int64(window))

	taskCh := make(chan groupTask)
	readyCh := make(chan groupResult, workers)
	eg, ctx := errgroup.WithContext(ctx)

	var decodeWg sync.WaitGroup
	decodeWg.Add(workers)
	for range workers {
		eg.Go(func() error {
			defer decodeWg.Done()
			for task := range taskCh {
				if err := ctx.Err(); err != nil {
					return err
				}
				block, err := decode(ctx, task.group)
				if err != nil {
					return err
				}
				select {
				case readyCh <- groupResult{index: task.index, group: task.group, block: block}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer close(taskCh)
		for i, g := range groups {
			if err := slots.Acquire(ctx, 1); err != nil {
				return err
			}
			select {
			case taskCh <- groupTask{index: i, group: g}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	go func() {
		decodeWg.Wait()
		close(readyCh)
	}()

	eg.Go(func() error {
		next := 0
		pending := make(map[int]groupResult, window)
		for next < len(groups) {
			select {
			case res, ok := <-readyCh:
				if !ok {
					if err := ctx.Err(); err != nil {
						return err
					}
					return errors.New("batch: decode pipeline ended unexpectedly")
				}
				pending[res.index] = res
				for {
					res, ok := pending[next]
					if !ok {
						break
					}
					delete(pending, next)
					if err := ctx.Err(); err != nil {
						return err
					}
					if err := consume(res.group, res.block); err != nil {
						return err
					}
					slots.Release(1)
					next++
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return eg.Wait()
}
