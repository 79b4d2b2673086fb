package pipeline

import (
	"context"

	"DirectoryHasher/internal/types"
)

// resultQueue carries results from producers to the consumer. With a
// positive capacity it is a plain buffered channel and producers block when
// it is full. With capacity 0 a pump goroutine buffers without limit.
type resultQueue struct {
	in  chan types.HashResult
	out chan types.HashResult
}

func newResultQueue(ctx context.Context, capacity int) *resultQueue {
	if capacity > 0 {
		ch := make(chan types.HashResult, capacity)
		return &resultQueue{in: ch, out: ch}
	}

	q := &resultQueue{
		in:  make(chan types.HashResult),
		out: make(chan types.HashResult),
	}
	go q.pump(ctx)
	return q
}

func (q *resultQueue) pump(ctx context.Context) {
	defer close(q.out)

	var buf []types.HashResult
	in := q.in
	for in != nil || len(buf) > 0 {
		var (
			out  chan types.HashResult
			next types.HashResult
		)
		if len(buf) > 0 {
			out = q.out
			next = buf[0]
		}

		select {
		case r, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, r)
		case out <- next:
			buf[0] = types.HashResult{}
			buf = buf[1:]
		case <-ctx.Done():
			return
		}
	}
}

// push blocks until r is queued or ctx is done.
func (q *resultQueue) push(ctx context.Context, r types.HashResult) error {
	select {
	case q.in <- r:
		return nil
	case <-ctx.Done():
		return types.CtxErr(ctx)
	}
}

// close marks the producer side complete. Call once, after every push returned.
func (q *resultQueue) close() {
	close(q.in)
}

func (q *resultQueue) results() <-chan types.HashResult {
	return q.out
}
