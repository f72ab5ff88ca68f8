package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned by Poll when the policy timeout elapses before the
// condition is met.
var ErrTimeout = errors.New("timed out waiting for condition")

var errNotReady = errors.New("condition not met")

// PollPolicy describes how long and how often a condition is polled.
type PollPolicy struct {
	// Interval is the delay before the second attempt.
	Interval time.Duration
	// MaxInterval caps the growing delay.
	MaxInterval time.Duration
	// Multiplier grows the delay after each attempt. 1 keeps it fixed.
	Multiplier float64
	// Timeout bounds the whole wait. Zero waits until the context ends.
	Timeout time.Duration
}

// DefaultPollPolicy polls every 5s, backing off to 30s, for up to timeout.
func DefaultPollPolicy(timeout time.Duration) PollPolicy {
	return PollPolicy{
		Interval:    5 * time.Second,
		MaxInterval: 30 * time.Second,
		Multiplier:  1.5,
		Timeout:     timeout,
	}
}

// Condition reports whether the awaited state has been reached.
// Returning an error wrapped with Fatal aborts the poll; other errors are
// treated as "not yet" and remembered for the timeout message.
type Condition func(ctx context.Context) (bool, error)

// Poll evaluates condition until it returns true, the policy times out, or ctx
// is cancelled.
func Poll(ctx context.Context, policy PollPolicy, condition Condition) error {
	if policy.Interval <= 0 {
		policy.Interval = time.Second
	}
	if policy.MaxInterval < policy.Interval {
		policy.MaxInterval = policy.Interval
	}

	b := newBackOff(policy.Interval, policy.MaxInterval, policy.Multiplier, policy.Timeout)

	var lastErr error
	err := backoff.Retry(func() error {
		done, err := condition(ctx)
		if err != nil {
			if IsFatal(err) {
				return backoff.Permanent(err)
			}
			lastErr = err
			return err
		}
		if !done {
			return errNotReady
		}
		return nil
	}, backoff.WithContext(b, ctx))

	switch {
	case err == nil:
		return nil
	case IsFatal(err):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("poll cancelled: %w", ctx.Err())
	case lastErr != nil:
		return fmt.Errorf("%w after %v: %w", ErrTimeout, policy.Timeout, lastErr)
	default:
		return fmt.Errorf("%w after %v", ErrTimeout, policy.Timeout)
	}
}
