package metrics

import "time"

// Stats holds run counters. Every field except the timestamps is updated with
// sync/atomic by concurrent workers and must be read the same way.
type Stats struct {
	RunID string

	// Processed is the progress counter: files fully hashed so far.
	Processed int64
	Failed    int64
	NotFound  int64
	Denied    int64

	WalkErrors int64

	// verify mode
	Total          int64
	OK             int64
	StatErrors     int64
	SizeMismatches int64
	HashErrors     int64
	HashMismatches int64

	BytesHashed int64
	Started     time.Time
	Finished    time.Time
}

func (s *Stats) Start() { s.Started = time.Now() }
func (s *Stats) Stop()  { s.Finished = time.Now() }
func (s *Stats) Duration() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}
