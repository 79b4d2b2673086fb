// Package pipeline connects the walker, the hasher and a writer.
//
// A pool of producer goroutines pulls paths from the walker's cursor, hashes
// them and pushes results onto a queue. A single consumer goroutine drains the
// queue into the writer, so writers never see concurrent calls. With more than
// one producer the writer receives results in completion order, not discovery
// order; set Workers to 1 when discovery order matters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mordilloSan/go-logger/logger"
	"golang.org/x/sync/errgroup"

	"DirectoryHasher/internal/hasher"
	"DirectoryHasher/internal/metrics"
	"DirectoryHasher/internal/output"
	"DirectoryHasher/internal/types"
	"DirectoryHasher/internal/walk"
)

type Options struct {
	// Workers is the number of producer goroutines. Defaults to runtime.NumCPU().
	Workers int
	// FailFast cancels the run on the first per-file failure.
	FailFast bool
	// ResultQueueSize bounds the result queue. 0 means unbounded.
	ResultQueueSize int
	// OnFileError is called from producer goroutines for every per-file failure.
	OnFileError func(fe *types.FileError)
}

type Summary struct {
	Files  int64
	Failed int64
	// WalkErrors counts directory entries the walker skipped.
	WalkErrors int64
	Bytes      int64
	Failures   []*types.FileError
	Elapsed    time.Duration
}

type Coordinator struct {
	walker walk.Walker
	hasher hasher.Hasher
	writer output.Writer
	stats  *metrics.Stats
	opts   Options
	// skip filters out the writer's own files when the destination is inside the tree
	skip func(path string) bool

	mu       sync.Mutex
	failures []*types.FileError
}

// New builds a coordinator for one run. stats receives the progress counter
// and may be sampled concurrently by a display.
func New(w walk.Walker, h hasher.Hasher, out output.Writer, stats *metrics.Stats, opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if stats == nil {
		stats = &metrics.Stats{}
	}
	c := &Coordinator{walker: w, hasher: h, writer: out, stats: stats, opts: opts}
	if o, ok := out.(output.Owner); ok {
		c.skip = o.Owns
	}
	return c
}

// Run hashes every regular file under root and commits the results.
//
// Fatal conditions (missing root, writer initialisation) are returned before
// any file is hashed. Cancellation of ctx yields an error matching
// types.ErrCancelled and nothing is flushed. Per-file failures are counted in
// the summary and do not fail the run unless FailFast is set.
func (c *Coordinator) Run(ctx context.Context, root string) (Summary, error) {
	const errCtx = "running pipeline"

	c.stats.Start()
	defer c.stats.Stop()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	cursor, err := c.walker.Enumerate(runCtx, root)
	if err != nil {
		return c.summary(), fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := c.writer.Initialise(runCtx); err != nil {
		cancel(err)
		return c.summary(), fmt.Errorf("%s: %w", errCtx, writerFailure(err))
	}

	queue := newResultQueue(runCtx, c.opts.ResultQueueSize)

	consumed := make(chan error, 1)
	go func() {
		consumed <- c.consume(runCtx, queue, cancel)
	}()

	g, gctx := errgroup.WithContext(runCtx)
	for i := 0; i < c.opts.Workers; i++ {
		g.Go(func() error {
			return c.produce(gctx, cursor, queue)
		})
	}

	prodErr := g.Wait()
	if prodErr != nil {
		// stops the walker and lets the consumer bail out
		cancel(prodErr)
	}
	queue.close()
	consErr := <-consumed

	logger.Debugf("pipeline drained: producers=%v consumer=%v", prodErr, consErr)

	switch {
	case consErr != nil && !types.IsCancelled(consErr):
		return c.summary(), fmt.Errorf("%s: %w", errCtx, consErr)
	case ctx.Err() != nil:
		return c.summary(), types.CtxErr(ctx)
	case prodErr != nil:
		return c.summary(), fmt.Errorf("%s: %w", errCtx, prodErr)
	}

	if err := cursor.Err(); err != nil {
		return c.summary(), fmt.Errorf("%s: walking %s: %w", errCtx, root, err)
	}

	if err := c.writer.Flush(runCtx); err != nil {
		return c.summary(), fmt.Errorf("%s: %w", errCtx, writerFailure(err))
	}

	return c.summary(), nil
}

func (c *Coordinator) produce(ctx context.Context, cursor walk.Cursor, q *resultQueue) error {
	for {
		task, ok := cursor.Next(ctx)
		if !ok {
			return types.CtxErr(ctx)
		}
		if c.skip != nil && c.skip(task.Path) {
			logger.Debugf("not hashing output file %s", task.Path)
			continue
		}

		res, err := c.hasher.Compute(ctx, task.Path)
		if err != nil {
			if types.IsCancelled(err) {
				return err
			}
			fe := c.recordFailure(task, err)
			if c.opts.FailFast {
				return fe
			}
			continue
		}

		if err := q.push(ctx, res); err != nil {
			return err
		}
		atomic.AddInt64(&c.stats.BytesHashed, res.ByteLength)
		atomic.AddInt64(&c.stats.Processed, 1)
	}
}

func (c *Coordinator) consume(ctx context.Context, q *resultQueue, cancel context.CancelCauseFunc) error {
	results := q.results()
	for {
		select {
		case r, ok := <-results:
			if !ok {
				return nil
			}
			if err := c.writer.Write(ctx, r); err != nil {
				err = writerFailure(err)
				cancel(err)
				return err
			}
		case <-ctx.Done():
			return types.CtxErr(ctx)
		}
	}
}

func (c *Coordinator) recordFailure(task types.FileTask, err error) *types.FileError {
	var fe *types.FileError
	if !errors.As(err, &fe) {
		fe = &types.FileError{Path: task.Path, Op: "hash", Err: err}
	}

	atomic.AddInt64(&c.stats.Failed, 1)
	switch {
	case errors.Is(err, types.ErrFileNotFound):
		atomic.AddInt64(&c.stats.NotFound, 1)
	case errors.Is(err, types.ErrAccessDenied):
		atomic.AddInt64(&c.stats.Denied, 1)
	}

	logger.Warnf("failed to hash %s: %v", task.Path, fe.Err)

	c.mu.Lock()
	c.failures = append(c.failures, fe)
	c.mu.Unlock()

	if c.opts.OnFileError != nil {
		c.opts.OnFileError(fe)
	}
	return fe
}

func (c *Coordinator) summary() Summary {
	c.mu.Lock()
	failures := append([]*types.FileError(nil), c.failures...)
	c.mu.Unlock()

	snap := c.stats.Snapshot()
	return Summary{
		Files:      snap.Processed,
		Failed:     snap.Failed,
		WalkErrors: snap.WalkErrors,
		Bytes:      snap.BytesHashed,
		Failures:   failures,
		Elapsed:    c.stats.Duration(),
	}
}

func writerFailure(err error) error {
	if errors.Is(err, types.ErrWriterFailure) || types.IsCancelled(err) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrWriterFailure, err)
}
