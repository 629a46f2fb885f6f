package pubsub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/gobus/backoff"
)

// RedisConfig configures the Redis channel backend.
type RedisConfig struct {
	// Host is the Redis server host.
	Host string
	// Port is the Redis server port.
	Port int
	// DB is the database index.
	DB int
	// Password authenticates the connection; empty means no auth.
	Password string
	// Topic is the channel this client publishes to and consumes from.
	Topic string
}

func (c RedisConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Redis is a Client backed by Redis channel pub/sub.
//
// The channel has no persistence: only events published after the
// consumer subscribed are delivered, and there is no delivery
// confirmation on publish.
type Redis struct {
	cfg    RedisConfig
	policy backoff.Policy

	mu     sync.Mutex
	client *redis.Client
	closed bool
}

// NewRedis constructs an unopened Redis client.
func NewRedis(cfg RedisConfig) *Redis {
	return &Redis{
		cfg:    cfg,
		policy: backoff.Policy{Expected: transportFault},
	}
}

// transportFault matches name-resolution and connection-level failures,
// the transient fault set every Redis operation tolerates.
func transportFault(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF)
}

// Open establishes the connection and verifies liveness with a ping.
func (r *Redis) Open(ctx context.Context) error {
	if r.cfg.Topic == "" {
		return ErrTopicRequired
	}

	return r.policy.Do(ctx, "redis open", func(ctx context.Context) error {
		client := redis.NewClient(&redis.Options{
			Addr:     r.cfg.addr(),
			DB:       r.cfg.DB,
			Password: r.cfg.Password,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return err
		}

		r.mu.Lock()
		prev := r.client
		wasOpen := prev != nil && !r.closed
		r.client = client
		r.closed = false
		r.mu.Unlock()

		// Reopening replaces the connection; release the old one.
		if wasOpen {
			prev.Close()
		}

		slog.InfoContext(ctx, "redis pubsub ready", "addr", r.cfg.addr(), "topic", r.cfg.Topic)
		return nil
	})
}

// Close releases the connection unconditionally.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.client == nil {
		r.closed = true
		return nil
	}
	r.closed = true
	err := r.client.Close()
	slog.Debug("redis pubsub closed", "topic", r.cfg.Topic)
	return err
}

// Publish sends one payload to the bound channel. Redis gives no
// delivery confirmation, so the returned message id is always empty.
func (r *Redis) Publish(ctx context.Context, payload []byte) (string, error) {
	client, err := r.conn()
	if err != nil {
		return "", err
	}

	return "", r.policy.Do(ctx, "redis publish", func(ctx context.Context) error {
		return client.Publish(ctx, r.cfg.Topic, payload).Err()
	})
}

// Consume subscribes to the bound channel and dispatches messages on the
// calling goroutine, one at a time.
//
// A handler fault is logged, the raw payload is republished to the dead
// letter topic when one is configured, and the loop stops with a
// ProcessingError: this backend is fail-stop, not fail-open. Context
// cancellation exits the loop orderly with a nil error.
func (r *Redis) Consume(ctx context.Context, handler Handler, opts ...ConsumeOption) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	client, err := r.conn()
	if err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	// Handler faults are fail-stop and must never reach the transport
	// fault classifier: a handler error wrapping a net error would be
	// reclassified as transient and retried. They leave the retry loop
	// through procErr instead.
	var procErr *ProcessingError
	err = r.policy.Do(ctx, "redis consume", func(ctx context.Context) error {
		sub := client.Subscribe(ctx, r.cfg.Topic)
		defer sub.Close()

		// Wait for the subscribe confirmation. The channel has no
		// backlog, so only events from this point on are visible.
		if _, err := sub.Receive(ctx); err != nil {
			return err
		}
		slog.DebugContext(ctx, "subscribed", "topic", r.cfg.Topic)

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case m, ok := <-ch:
				if !ok {
					return ErrClosed
				}
				if perr := r.dispatch(ctx, client, m, handler, co.deadLetter); perr != nil {
					procErr = perr
					return nil
				}
			}
		}
	})

	switch {
	case procErr != nil:
		return procErr
	case ctx.Err() != nil:
		slog.InfoContext(ctx, "redis consume cancelled, graceful exit", "topic", r.cfg.Topic)
		return nil
	default:
		return err
	}
}

func (r *Redis) dispatch(ctx context.Context, client *redis.Client, m *redis.Message, handler Handler, deadLetter string) *ProcessingError {
	payload := []byte(m.Payload)
	err := invokeHandler(ctx, "redis", func(ctx context.Context) error {
		return handler(ctx, payload)
	})
	if err == nil {
		return nil
	}

	slog.ErrorContext(ctx, "message handler failed", "topic", m.Channel, "error", err)
	if deadLetter != "" {
		if perr := client.Publish(ctx, deadLetter, payload).Err(); perr != nil {
			slog.ErrorContext(ctx, "dead letter republish failed", "topic", deadLetter, "error", perr)
		} else {
			slog.InfoContext(ctx, "payload redirected to dead letter", "topic", deadLetter)
		}
	}
	return &ProcessingError{Err: err}
}

func (r *Redis) conn() (*redis.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil || r.closed {
		return nil, ErrClosed
	}
	return r.client, nil
}
