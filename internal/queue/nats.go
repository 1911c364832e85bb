package queue

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// DefaultNATSSubject is the subject used when no queue name is configured.
	DefaultNATSSubject = "coinledger.transactions.submitted"
	natsQueueGroup     = "coinledger-processor"
)

// NATSQueue publishes ids on a subject and consumes them through a queue-group
// subscription, so only one subscriber receives each id. Core NATS is
// at-most-once; lost ids are recovered by the processor's fallback scan.
type NATSQueue struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewNATS subscribes to subject and returns a queue bound to it.
func NewNATS(conn *nats.Conn, subject string) (*NATSQueue, error) {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	sub, err := conn.QueueSubscribeSync(subject, natsQueueGroup)
	if err != nil {
		return nil, err
	}
	return &NATSQueue{conn: conn, subject: subject, sub: sub}, nil
}

func (q *NATSQueue) Enqueue(_ context.Context, id int64) error {
	if err := q.conn.Publish(q.subject, encodeID(id)); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

func (q *NATSQueue) Receive(ctx context.Context, timeout time.Duration) (int64, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := q.sub.NextMsgWithContext(waitCtx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return 0, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return 0, ErrEmpty
		case errors.Is(err, nats.ErrBadSubscription), errors.Is(err, nats.ErrConnectionClosed):
			return 0, ErrClosed
		default:
			return 0, err
		}
	}
	return decodeID(string(msg.Data))
}

func (q *NATSQueue) Close() error {
	if err := q.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrBadSubscription) && !errors.Is(err, nats.ErrConnectionClosed) {
		return err
	}
	return nil
}

var _ Queue = (*NATSQueue)(nil)
