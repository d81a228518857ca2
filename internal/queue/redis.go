package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBroker implements Broker on Redis lists. Records are LPUSHed and
// BRPOPed, so each list behaves as a FIFO queue; a requeue is another LPUSH,
// which puts the record at the tail behind everything enqueued since.
type redisBroker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisBroker creates a Broker backed by the Redis instance at addr.
// The connection is long-lived and shared across all jobs of the process.
func NewRedisBroker(addr string, logger *slog.Logger) Broker {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		// Blocking pops manage their own deadlines; a client-side read
		// timeout would kill an indefinite BRPOP.
		ReadTimeout: -1,
	})
	return &redisBroker{client: client, logger: logger}
}

// NewRedisBrokerFromClient wraps an existing client. Used by tests.
func NewRedisBrokerFromClient(client *redis.Client, logger *slog.Logger) Broker {
	return &redisBroker{client: client, logger: logger}
}

func (b *redisBroker) Enqueue(ctx context.Context, queue string, record []byte) error {
	if err := b.client.LPush(ctx, queue, record).Err(); err != nil {
		return fmt.Errorf("%w: LPUSH %s: %v", ErrBrokerUnavailable, queue, err)
	}
	return nil
}

func (b *redisBroker) DequeueBlocking(ctx context.Context, queues []string, timeout time.Duration) (string, []byte, error) {
	res, err := b.client.BRPop(ctx, timeout, queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, ErrNoJob
		}
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, fmt.Errorf("%w: BRPOP: %v", ErrBrokerUnavailable, err)
	}
	// BRPOP returns [queue, value].
	if len(res) != 2 {
		return "", nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	return res[0], []byte(res[1]), nil
}

func (b *redisBroker) Requeue(ctx context.Context, queue string, record []byte) error {
	b.logger.Warn("re-queueing job record", "queue", queue, "bytes", len(record))
	return b.Enqueue(ctx, queue, record)
}

func (b *redisBroker) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return nil
}

func (b *redisBroker) Close() error {
	return b.client.Close()
}
