package metrics

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_concurrentProgress(t *testing.T) {
	s := &Stats{}
	const workers, iterations = 8, 1000

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				atomic.AddInt64(&s.Processed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*iterations), s.Snapshot().Processed)
}

func TestStats_Duration(t *testing.T) {
	s := &Stats{Started: time.Unix(100, 0), Finished: time.Unix(102, 500_000_000)}
	assert.Equal(t, 2500*time.Millisecond, s.Duration())
	assert.Equal(t, int64(2500), s.Snapshot().DurationMs)

	running := &Stats{}
	running.Start()
	assert.GreaterOrEqual(t, running.Duration(), time.Duration(0))
}

func TestPrint(t *testing.T) {
	s := &Stats{
		RunID:       "run-1",
		Processed:   3,
		Failed:      1,
		BytesHashed: 2_000_000,
		Started:     time.Unix(0, 0),
		Finished:    time.Unix(2, 0),
	}

	var buf bytes.Buffer
	Print(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "run: run-1\n")
	assert.Contains(t, out, "files: 3\n")
	assert.Contains(t, out, "failed: 1\n")
	assert.Contains(t, out, "throughput_mb_per_sec: 1\n")
}

func TestPrintVerify(t *testing.T) {
	s := &Stats{Total: 4, OK: 2, HashMismatches: 1, StatErrors: 1}

	var buf bytes.Buffer
	PrintVerify(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "total: 4\n")
	assert.Contains(t, out, "ok: 2\n")
	assert.Contains(t, out, "hash_mismatches: 1\n")
	assert.Contains(t, out, "stat_errors: 1\n")
}
