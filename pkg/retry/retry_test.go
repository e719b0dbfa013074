package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/retry"
)

func fastPolicy[T any]() retry.Policy[T] {
	return retry.Policy[T]{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	p := fastPolicy[string]()

	result, err := p.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDo_RecoversAfterTransientFailures(t *testing.T) {
	calls := 0
	retries := 0
	p := fastPolicy[int]()
	p.OnRetry = func(err error, attempt int) {
		retries++
		assert.Equal(t, retries, attempt)
	}

	result, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.ErrSourceUnavailable("engagement", nil)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries, "callback fires once per backoff sleep")
}

func TestDo_ExhaustedAttemptsReturnLastError(t *testing.T) {
	calls := 0
	p := fastPolicy[int]()

	_, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.ErrSourceUnavailable("profile", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.IsTransient(err))
}

func TestDo_NonRetryableFailsFast(t *testing.T) {
	calls := 0
	p := fastPolicy[int]()
	p.OnRetry = func(err error, attempt int) {
		t.Fatal("callback must not fire for non-retryable errors")
	}

	start := time.Now()
	_, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.ErrMissingUsername()
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.IsValidation(err))
	assert.Less(t, time.Since(start), time.Millisecond, "no backoff sleep on fail-fast")
}

func TestDo_RetryOnErrorVetoSkipsSleep(t *testing.T) {
	calls := 0
	p := fastPolicy[int]()
	p.RetryOnError = func(err error) bool { return false }

	_, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.ErrSourceUnavailable("engagement", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryOnResultReturnsLastResult(t *testing.T) {
	calls := 0
	p := fastPolicy[int]()
	p.RetryOnResult = func(v int) bool { return v < 10 }

	result, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, result, "last retry-worthy result is returned, not an error")
}

func TestDo_FinalAttemptErrorWinsOverEarlierResult(t *testing.T) {
	calls := 0
	p := fastPolicy[int]()
	p.RetryOnResult = func(v int) bool { return true }

	result, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 5, nil
		}
		return 0, errors.New(errors.CodeTransient, "source down")
	})

	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, 0, result, "stale mid-sequence result must not be returned")
	assert.Equal(t, 3, calls)
}

func TestDo_RetryOnResultStopsOnAcceptableValue(t *testing.T) {
	calls := 0
	p := fastPolicy[int]()
	p.RetryOnResult = func(v int) bool { return v < 2 }

	result, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result)
	assert.Equal(t, 2, calls)
}

func TestDo_CallbackPanicIsSwallowed(t *testing.T) {
	calls := 0
	p := fastPolicy[int]()
	p.OnRetry = func(err error, attempt int) {
		panic("callback exploded")
	}

	result, err := p.Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.ErrSourceUnavailable("engagement", nil)
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestDo_ContextCancellationDuringBackoff(t *testing.T) {
	p := retry.Policy[int]{
		MaxAttempts: 3,
		BaseDelay:   time.Minute,
		MaxDelay:    time.Minute,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Do(ctx, func(ctx context.Context) (int, error) {
		return 0, errors.ErrSourceUnavailable("engagement", nil)
	})

	require.ErrorIs(t, err, context.Canceled)
}
