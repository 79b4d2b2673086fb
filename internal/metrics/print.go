package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

type Snapshot struct {
	RunID          string
	DurationMs     int64
	Processed      int64
	Failed         int64
	NotFound       int64
	Denied         int64
	WalkErrors     int64
	Total          int64
	OK             int64
	StatErrors     int64
	SizeMismatches int64
	HashErrors     int64
	HashMismatches int64
	BytesHashed    int64
}

func (s *Stats) Snapshot() Snapshot {
	dur := s.Duration()

	return Snapshot{
		RunID:          s.RunID,
		DurationMs:     dur.Milliseconds(),
		Processed:      atomic.LoadInt64(&s.Processed),
		Failed:         atomic.LoadInt64(&s.Failed),
		NotFound:       atomic.LoadInt64(&s.NotFound),
		Denied:         atomic.LoadInt64(&s.Denied),
		WalkErrors:     atomic.LoadInt64(&s.WalkErrors),
		Total:          atomic.LoadInt64(&s.Total),
		OK:             atomic.LoadInt64(&s.OK),
		StatErrors:     atomic.LoadInt64(&s.StatErrors),
		SizeMismatches: atomic.LoadInt64(&s.SizeMismatches),
		HashErrors:     atomic.LoadInt64(&s.HashErrors),
		HashMismatches: atomic.LoadInt64(&s.HashMismatches),
		BytesHashed:    atomic.LoadInt64(&s.BytesHashed),
	}
}

// Print writes the scan summary.
func Print(w io.Writer, s *Stats) {
	snap := s.Snapshot()

	fmt.Fprintln(w, "--- stats ---")
	fmt.Fprintln(w, "run:", snap.RunID)
	fmt.Fprintln(w, "duration_ms:", snap.DurationMs)
	fmt.Fprintln(w, "files:", snap.Processed)
	fmt.Fprintln(w, "failed:", snap.Failed)
	fmt.Fprintln(w, "not_found:", snap.NotFound)
	fmt.Fprintln(w, "access_denied:", snap.Denied)
	fmt.Fprintln(w, "walk_errors:", snap.WalkErrors)
	fmt.Fprintln(w, "bytes_hashed:", snap.BytesHashed)
	printThroughput(w, snap)
}

// PrintVerify writes the verify summary.
func PrintVerify(w io.Writer, s *Stats) {
	snap := s.Snapshot()

	fmt.Fprintln(w, "--- stats ---")
	fmt.Fprintln(w, "run:", snap.RunID)
	fmt.Fprintln(w, "duration_ms:", snap.DurationMs)
	fmt.Fprintln(w, "total:", snap.Total)
	fmt.Fprintln(w, "processed:", snap.Processed)
	fmt.Fprintln(w, "ok:", snap.OK)
	fmt.Fprintln(w, "stat_errors:", snap.StatErrors)
	fmt.Fprintln(w, "size_mismatches:", snap.SizeMismatches)
	fmt.Fprintln(w, "hash_errors:", snap.HashErrors)
	fmt.Fprintln(w, "hash_mismatches:", snap.HashMismatches)
	fmt.Fprintln(w, "bytes_hashed:", snap.BytesHashed)
	printThroughput(w, snap)
}

func printThroughput(w io.Writer, snap Snapshot) {
	if snap.DurationMs > 0 {
		secs := float64(snap.DurationMs) / 1000.0
		bps := float64(snap.BytesHashed) / secs
		fmt.Fprintln(w, "throughput_bytes_per_sec:", bps)
		fmt.Fprintln(w, "throughput_mb_per_sec:", bps/1_000_000.0)
	}
}
