package backoff

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Defaults applied when a Policy field is left zero. Retries are always
// bounded so a dead broker cannot turn into an unbounded retry storm.
const (
	DefaultMaxAttempts = 10
	DefaultInitial     = 200 * time.Millisecond
	DefaultCap         = 5 * time.Second
)

// Classifier reports whether an error belongs to a fault class.
type Classifier func(error) bool

// Any combines classifiers into one that matches when any of them match.
func Any(classifiers ...Classifier) Classifier {
	return func(err error) bool {
		for _, classify := range classifiers {
			if classify != nil && classify(err) {
				return true
			}
		}
		return false
	}
}

// Policy decides how faults raised by a wrapped operation are handled.
//
// The zero value retries nothing and suppresses nothing; different call
// sites construct policies with the fault sets they tolerate.
type Policy struct {
	// Expected matches transient faults that are retried with backoff.
	Expected Classifier

	// Noisy matches benign faults that are logged at low severity and
	// treated as success.
	Noisy Classifier

	// MaxAttempts bounds the number of retries after the first attempt.
	MaxAttempts uint64

	// Initial is the first backoff delay; it grows along a fibonacci
	// sequence on subsequent retries.
	Initial time.Duration

	// Cap limits how large a single backoff delay can grow.
	Cap time.Duration
}

// Do runs op under the policy. The name identifies the operation in logs.
//
// On success the operation's result is returned unchanged. A noisy fault
// is suppressed and reported as success. An expected fault is retried
// until it succeeds, the attempt budget is exhausted, or ctx is done.
// Any other fault is returned immediately without retrying.
func (p Policy) Do(ctx context.Context, name string, op func(context.Context) error) error {
	initial := p.Initial
	if initial <= 0 {
		initial = DefaultInitial
	}
	maxDelay := p.Cap
	if maxDelay <= 0 {
		maxDelay = DefaultCap
	}
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = DefaultMaxAttempts
	}

	b := retry.NewFibonacci(initial)
	b = retry.WithCappedDuration(maxDelay, b)
	b = retry.WithMaxRetries(attempts, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		// Cancellation is not a fault; surface it untouched.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if p.Noisy != nil && p.Noisy(err) {
			slog.DebugContext(ctx, "suppressing benign fault", "op", name, "error", err)
			return nil
		}
		if p.Expected != nil && p.Expected(err) {
			slog.WarnContext(ctx, "transient fault, backing off", "op", name, "error", err)
			return retry.RetryableError(err)
		}
		slog.ErrorContext(ctx, "unrecoverable fault", "op", name, "error", err)
		return err
	})
}
