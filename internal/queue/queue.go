// Package queue provides the durable job broker: named FIFO queues with
// at-least-once delivery. A record popped from a queue is gone; a consumer
// that fails to process it is responsible for re-inserting it.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrBrokerUnavailable reports that the underlying store cannot be reached.
// It is fatal for worker startup and turns webhook requests into 503s.
var ErrBrokerUnavailable = errors.New("job broker is unreachable")

// ErrNoJob reports that a bounded blocking dequeue timed out with every
// queue empty. It is never returned for an infinite timeout.
var ErrNoJob = errors.New("no job available")

// Broker is the contract for the durable job queues.
//
// Routing is decided by queue membership: the record itself is opaque to the
// broker, and the queue name returned by DequeueBlocking tells the consumer
// how to decode it.
type Broker interface {
	// Enqueue appends a record to the tail of the named queue.
	Enqueue(ctx context.Context, queue string, record []byte) error

	// DequeueBlocking blocks until a record is available in any of the
	// given queues and returns the queue it came from together with the
	// record. A timeout of zero blocks forever. When several queues are
	// ready simultaneously the tie-break is broker-defined; callers must
	// not rely on ordering across distinct queues.
	DequeueBlocking(ctx context.Context, queues []string, timeout time.Duration) (string, []byte, error)

	// Requeue re-appends a failed record to the tail of its source queue.
	// The record loses its place in line and may be delayed arbitrarily
	// behind newer records.
	Requeue(ctx context.Context, queue string, record []byte) error

	// Ping probes broker connectivity. Run eagerly at process start.
	Ping(ctx context.Context) error

	// Close releases the broker connection.
	Close() error
}
