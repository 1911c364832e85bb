package queue

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity bounds the in-memory queue when no capacity is configured.
const DefaultCapacity = 1024

// MemoryQueue is a bounded, process-local queue backed by a channel.
type MemoryQueue struct {
	items  chan int64
	closed chan struct{}
	once   sync.Once
}

// NewMemory builds an in-memory queue holding at most capacity ids.
func NewMemory(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryQueue{
		items:  make(chan int64, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue never blocks: a full queue drops the id and returns ErrFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, id int64) error {
	select {
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case q.items <- id:
		return nil
	default:
		return ErrFull
	}
}

func (q *MemoryQueue) Receive(ctx context.Context, timeout time.Duration) (int64, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-q.closed:
		return 0, ErrClosed
	case id := <-q.items:
		return id, nil
	case <-timer.C:
		return 0, ErrEmpty
	}
}

// Len reports the number of buffered ids.
func (q *MemoryQueue) Len() int {
	return len(q.items)
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}

var _ Queue = (*MemoryQueue)(nil)
