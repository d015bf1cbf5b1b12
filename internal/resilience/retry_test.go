package resilience

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry_TransientThenSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{InitialBackoff: time.Millisecond}, func(_ context.Context) error {
		calls++
		if calls < 2 {
			return syscall.ECONNRESET
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_PermanentErrorStops(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{InitialBackoff: time.Millisecond}, func(_ context.Context) error {
		calls++
		return errors.New("unique constraint violated")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}, func(_ context.Context) error {
		calls++
		return errors.New("database is locked")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(syscall.ECONNREFUSED))
	assert.True(t, IsTransient(errors.New("read tcp: i/o timeout")))
	assert.False(t, IsTransient(errors.New("syntax error at or near")))
}

func TestIsTransientStatus(t *testing.T) {
	for _, s := range []int{408, 429, 500, 502, 503, 504, 529} {
		assert.True(t, IsTransientStatus(s), s)
	}
	for _, s := range []int{200, 400, 401, 404} {
		assert.False(t, IsTransientStatus(s), s)
	}
}
