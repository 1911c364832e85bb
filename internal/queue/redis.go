package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list used when no queue name is configured.
const DefaultRedisKey = "coinledger:transactions:queue"

// RedisQueue stores ids in a Redis list: RPUSH to enqueue, BLPOP to receive.
// Redis rounds blocking timeouts below one second up to one second.
type RedisQueue struct {
	client *redis.Client
	key    string
	closed atomic.Bool
}

// NewRedis builds a queue on the given list key. The client stays owned by the caller.
func NewRedis(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, id int64) error {
	if q.closed.Load() {
		return ErrClosed
	}
	return q.client.RPush(ctx, q.key, encodeID(id)).Err()
}

func (q *RedisQueue) Receive(ctx context.Context, timeout time.Duration) (int64, error) {
	if q.closed.Load() {
		return 0, ErrClosed
	}
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			return 0, ErrEmpty
		case ctx.Err() != nil:
			return 0, ctx.Err()
		case errors.Is(err, redis.ErrClosed):
			return 0, ErrClosed
		default:
			return 0, err
		}
	}
	// BLPOP replies with [key, value].
	if len(res) != 2 {
		return 0, ErrEmpty
	}
	return decodeID(res[1])
}

// Len reports the list length.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

var _ Queue = (*RedisQueue)(nil)
