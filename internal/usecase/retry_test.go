package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Do(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name         string
		failures     int
		permanentAt  int
		wantAttempts int
		wantErr      error
	}{
		{name: "first call succeeds", failures: 0, wantAttempts: 1},
		{name: "succeeds on last attempt", failures: 2, wantAttempts: 3},
		{name: "budget exhausted", failures: 5, wantAttempts: 3, wantErr: errBoom},
		{name: "permanent error stops early", failures: 5, permanentAt: 2, wantAttempts: 2, wantErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			attempts, err := fastRetry.Do(context.Background(), func(ctx context.Context, attempt int) error {
				calls++
				assert.Equal(t, calls, attempt)
				if attempt == tt.permanentAt {
					return permanent(errBoom)
				}
				if attempt <= tt.failures {
					return errBoom
				}
				return nil
			})

			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantAttempts, calls)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryPolicy_Defaults(t *testing.T) {
	p := RetryPolicy{}.withDefaults()

	assert.Equal(t, DefaultRetryAttempts, p.Attempts)
	assert.Equal(t, time.Duration(0), p.Delay)
}

func TestRetryPolicy_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errBoom := errors.New("boom")

	policy := RetryPolicy{Attempts: 3, Delay: time.Hour}
	calls := 0
	start := time.Now()

	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errBoom
	})

	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errBoom, err)
}

func TestRetryPolicy_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := fastRetry.Do(ctx, func(ctx context.Context, attempt int) error {
		t.Fatal("fn should not be called")
		return nil
	})

	assert.Equal(t, 0, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}
