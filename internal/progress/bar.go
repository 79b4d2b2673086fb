package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// SnapshotFn samples the run counters. It is called from the bar's own goroutine.
type SnapshotFn func() (files, failed, bytesHashed int64)

// Bar renders a spinner with bytes hashed and a per-second description. The
// total number of files is unknown while the walk is running.
type Bar struct {
	bar  *progressbar.ProgressBar
	ch   chan int64
	done chan struct{}
	stop chan struct{}

	// bytes that did not fit into ch
	overflow int64

	snap SnapshotFn
	rate rate
}

// rate turns successive byte totals into MB/s.
type rate struct {
	bytes int64
	at    time.Time
}

func (r *rate) observe(total int64, now time.Time) float64 {
	var mbps float64
	if secs := now.Sub(r.at).Seconds(); secs > 0 {
		mbps = float64(total-r.bytes) / 1e6 / secs
	}
	r.bytes, r.at = total, now
	return mbps
}

func New(w io.Writer, snap SnapshotFn) *Bar {
	b := &Bar{
		ch:   make(chan int64, 16384),
		done: make(chan struct{}),
		stop: make(chan struct{}),
		snap: snap,
		rate: rate{at: time.Now()},
	}

	b.bar = progressbar.NewOptions64(
		-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription("hashing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(120*time.Millisecond),
	)

	_ = b.bar.RenderBlank()
	go func() {
		defer close(b.done)
		for n := range b.ch {
			_ = b.bar.Add64(n + atomic.SwapInt64(&b.overflow, 0))
		}
		_ = b.bar.Add64(atomic.SwapInt64(&b.overflow, 0))
		_ = b.bar.Finish()
	}()

	go func() {
		t := time.NewTicker(1 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				b.updateDescription()
			case <-b.stop:
				return
			}
		}
	}()

	return b
}

// AddBytes never blocks the caller.
func (b *Bar) AddBytes(n int64) {
	if n <= 0 {
		return
	}
	select {
	case b.ch <- n:
	default:
		atomic.AddInt64(&b.overflow, n)
	}
}

// Close stops the bar. AddBytes must not be called afterwards.
func (b *Bar) Close() {
	close(b.stop)
	close(b.ch)
	<-b.done
}

func (b *Bar) updateDescription() {
	if b.snap == nil {
		return
	}
	files, failed, bytesHashed := b.snap()
	b.bar.Describe(Describe(files, failed, b.rate.observe(bytesHashed, time.Now())))
}

func Describe(files, failed int64, mbps float64) string {
	return fmt.Sprintf("hashing %d files | failed=%d | %.1f MB/s", files, failed, mbps)
}
