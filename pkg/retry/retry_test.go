package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("connection reset")
	errPermanent = errors.New("validation failed")
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func isPermanent(err error) bool {
	return errors.Is(err, errPermanent)
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var failures []int
	r := New(fastPolicy(3), isPermanent, func(attempt int, err error) {
		failures = append(failures, attempt)
	})

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, failures)
}

func TestDoStopsAfterAttempts(t *testing.T) {
	r := New(fastPolicy(3), isPermanent, nil)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	notified := false
	r := New(fastPolicy(3), isPermanent, func(int, error) { notified = true })

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errPermanent
	})

	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
	assert.False(t, notified)
}

func TestDoHonoursContextCancellation(t *testing.T) {
	r := New(Policy{Attempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestNewClampsAttempts(t *testing.T) {
	r := New(Policy{Attempts: 0}, nil, nil)

	calls := 0
	_ = r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	})

	assert.Equal(t, 1, calls)
}
