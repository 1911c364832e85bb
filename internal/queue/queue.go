// Package queue carries transaction identifiers from the submission gateway to
// the processor. Delivery is best-effort: the processor's fallback scan picks
// up anything that is lost, duplicated or reordered here.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrEmpty is returned by Receive when nothing arrived before the timeout.
	ErrEmpty = errors.New("queue: receive timed out")
	// ErrClosed is returned once the queue has been shut down.
	ErrClosed = errors.New("queue: closed")
	// ErrFull is returned by Enqueue when a bounded queue cannot take more ids.
	ErrFull = errors.New("queue: full")
)

// Queue is a FIFO of transaction identifiers with at-least-once intent.
type Queue interface {
	// Enqueue pushes id without blocking indefinitely.
	Enqueue(ctx context.Context, id int64) error
	// Receive waits up to timeout for the next id. It returns ErrEmpty on
	// timeout, ErrClosed after Close, or the context error on cancellation.
	Receive(ctx context.Context, timeout time.Duration) (int64, error)
	// Close releases the queue; blocked receivers return ErrClosed.
	Close() error
}

func encodeID(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

func decodeID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("queue: malformed transaction id %q: %w", raw, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("queue: non-positive transaction id %d", id)
	}
	return id, nil
}
