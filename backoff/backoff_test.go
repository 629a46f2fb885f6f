package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	errTransient = errors.New("connection refused")
	errBenign    = errors.New("already exists")
	errFatal     = errors.New("permission denied")
)

func is(target error) Classifier {
	return func(err error) bool { return errors.Is(err, target) }
}

func fastPolicy() Policy {
	return Policy{
		Expected:    is(errTransient),
		Noisy:       is(errBenign),
		MaxAttempts: 3,
		Initial:     time.Millisecond,
		Cap:         5 * time.Millisecond,
	}
}

func TestDoSuccessPassesThrough(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(t.Context(), "op", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want 1", calls)
	}
}

func TestDoNoisySuppressed(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(t.Context(), "op", func(context.Context) error {
		calls++
		return errBenign
	})
	if err != nil {
		t.Fatalf("Do() = %v, want nil (noisy fault suppressed)", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want 1 (no retry for noisy faults)", calls)
	}
}

func TestDoExpectedRetriedUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(t.Context(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("op called %d times, want 3", calls)
	}
}

func TestDoUnclassifiedPropagatesImmediately(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(t.Context(), "op", func(context.Context) error {
		calls++
		return errFatal
	})
	if !errors.Is(err, errFatal) {
		t.Fatalf("Do() = %v, want %v", err, errFatal)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want 1 (no retry for unclassified faults)", calls)
	}
}

func TestDoAttemptsBounded(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(t.Context(), "op", func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("Do() = %v, want %v", err, errTransient)
	}
	// MaxAttempts bounds retries after the first attempt.
	if calls != 4 {
		t.Fatalf("op called %d times, want 4", calls)
	}
}

func TestDoContextCancelAbortsBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	p := fastPolicy()
	p.Initial = time.Second
	p.Cap = time.Second

	err := p.Do(ctx, "op", func(context.Context) error {
		return errTransient
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Do() = %v, want context.DeadlineExceeded", err)
	}
}

func TestAny(t *testing.T) {
	classify := Any(is(errTransient), nil, is(errBenign))
	if !classify(errTransient) || !classify(errBenign) {
		t.Fatal("Any() should match both classified errors")
	}
	if classify(errFatal) {
		t.Fatal("Any() should not match an unclassified error")
	}
}
