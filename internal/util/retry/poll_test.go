package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(timeout time.Duration) PollPolicy {
	return PollPolicy{Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 1, Timeout: timeout}
}

func TestPoll_ReturnsOnceConditionHolds(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Poll(context.Background(), fastPolicy(time.Second), func(context.Context) (bool, error) {
		calls++
		return calls == 4, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestPoll_TimesOut(t *testing.T) {
	t.Parallel()
	err := Poll(context.Background(), fastPolicy(20*time.Millisecond), func(context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPoll_TimeoutKeepsLastError(t *testing.T) {
	t.Parallel()
	transient := errors.New("no route to host")
	err := Poll(context.Background(), fastPolicy(20*time.Millisecond), func(context.Context) (bool, error) {
		return false, transient
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, transient)
}

func TestPoll_FatalAborts(t *testing.T) {
	t.Parallel()
	calls := 0
	denied := errors.New("permission denied")
	err := Poll(context.Background(), fastPolicy(0), func(context.Context) (bool, error) {
		calls++
		return false, Fatal(denied)
	})

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 1, calls)
}

func TestPoll_UnboundedStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := Poll(ctx, fastPolicy(0), func(context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultPollPolicy(t *testing.T) {
	t.Parallel()
	p := DefaultPollPolicy(time.Minute)
	assert.Equal(t, 5*time.Second, p.Interval)
	assert.Equal(t, 30*time.Second, p.MaxInterval)
	assert.Equal(t, time.Minute, p.Timeout)
}
