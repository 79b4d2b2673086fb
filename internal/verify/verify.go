// Package verify re-hashes the entries of a manifest and reports drift.
package verify

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mordilloSan/go-logger/logger"

	"DirectoryHasher/internal/hasher"
	"DirectoryHasher/internal/index"
	"DirectoryHasher/internal/metrics"
	"DirectoryHasher/internal/progress"
	"DirectoryHasher/internal/types"
)

type checker struct {
	algorithm types.Algorithm
	stats     *metrics.Stats
	bar       *progress.Bar

	mu  sync.Mutex
	res Result
}

// check compares one manifest entry with the file on disk. It returns false
// only when the entry was abandoned because ctx was cancelled.
func (c *checker) check(ctx context.Context, fi index.FileItem) bool {
	info, err := os.Stat(fi.Path)
	switch {
	case err != nil:
		logger.Warnf("verify: stat %s: %v", fi.Path, err)
		c.failed(&c.stats.StatErrors, fi.Path)
		return true
	case info.Size() != fi.Length:
		logger.Warnf("verify: %s: size %d, manifest says %d", fi.Path, info.Size(), fi.Length)
		c.failed(&c.stats.SizeMismatches, fi.Path)
		return true
	}

	computed, _, err := hasher.FileHashHex(ctx, fi.Path, c.algorithm, c.hashed)
	if types.IsCancelled(err) {
		return false
	}
	if err != nil {
		logger.Warnf("verify: hash %s: %v", fi.Path, err)
		c.failed(&c.stats.HashErrors, fi.Path)
		return true
	}

	if strings.EqualFold(computed, strings.TrimSpace(fi.Hash)) {
		atomic.AddInt64(&c.stats.OK, 1)
		return true
	}

	atomic.AddInt64(&c.stats.HashMismatches, 1)
	c.mu.Lock()
	c.res.Mismatches = append(c.res.Mismatches, Mismatch{Path: fi.Path, Expected: fi.Hash, Computed: computed})
	c.mu.Unlock()
	return true
}

func (c *checker) hashed(n int64) {
	atomic.AddInt64(&c.stats.BytesHashed, n)
	if c.bar != nil {
		c.bar.AddBytes(n)
	}
}

func (c *checker) failed(counter *int64, path string) {
	atomic.AddInt64(counter, 1)
	c.mu.Lock()
	c.res.Failed = append(c.res.Failed, path)
	c.mu.Unlock()
}

// Verify checks items against the files on disk. It returns early with a
// cancellation error when ctx is done; the partial result is still returned.
func Verify(ctx context.Context, algorithm types.Algorithm, items []index.FileItem, opts Options, stats *metrics.Stats, bar *progress.Bar) (*Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	c := &checker{algorithm: algorithm, stats: stats, bar: bar}

	jobs := make(chan index.FileItem)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for fi := range jobs {
				if c.check(ctx, fi) {
					atomic.AddInt64(&stats.Processed, 1)
				}
			}
		}()
	}

feed:
	for _, fi := range items {
		select {
		case jobs <- fi:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return &c.res, types.CtxErr(ctx)
}
