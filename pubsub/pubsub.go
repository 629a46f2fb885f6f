package pubsub

import (
	"context"
	"errors"
)

var (
	// ErrUnknownBroker is returned by New for an unsupported broker id.
	ErrUnknownBroker = errors.New("pubsub: unknown broker")
	// ErrClosed is returned when an operation runs on a client that was
	// never opened or has already been closed.
	ErrClosed = errors.New("pubsub: client is closed")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("pubsub: handler is required")
	// ErrTopicRequired is returned when a client is built without a topic.
	ErrTopicRequired = errors.New("pubsub: topic is required")
	// ErrSubscriptionRequired is returned when a consume call needs a
	// subscription name and none was configured.
	ErrSubscriptionRequired = errors.New("pubsub: subscription is required")
)

// Handler processes the payload of one received message.
//
// Returning a non-nil error marks the message as failed: the Redis
// backend dead-letters it (when configured) and stops the consume loop,
// the Pub/Sub backend withholds the ack or dead-letters it.
type Handler func(ctx context.Context, payload []byte) error

// Client is a broker-agnostic publish/subscribe client bound to one topic.
//
// A client owns exactly one connection. It is not safe to drive more
// than one Consume loop per instance, and concurrent publishes require
// external synchronization.
type Client interface {
	// Open establishes the broker connection and verifies it is usable.
	// Transient transport faults are retried with backoff.
	Open(ctx context.Context) error

	// Close releases the connection unconditionally. It is safe to call
	// more than once.
	Close() error

	// Publish sends one payload to the client's bound topic. It returns
	// once the broker confirms acceptance, together with the broker
	// message id when the broker assigns one (empty for fire-and-forget
	// backends).
	Publish(ctx context.Context, payload []byte) (string, error)

	// Consume blocks, invoking handler once per received message, until
	// ctx is cancelled (returns nil) or a fatal fault occurs.
	Consume(ctx context.Context, handler Handler, opts ...ConsumeOption) error
}

// ProcessingError reports that a message handler failed. The original
// handler error is available through Unwrap.
type ProcessingError struct {
	Err error
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	return "pubsub: message processing failed: " + e.Err.Error()
}

// Unwrap returns the handler error.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// WithClient opens c, runs fn, and closes c exactly once on every path.
// The first error of fn and Close wins.
func WithClient(ctx context.Context, c Client, fn func(ctx context.Context, c Client) error) (err error) {
	if err := c.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, c)
}
