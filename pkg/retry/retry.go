// Package retry implements exponential backoff with jitter for fallible
// operations. It is the only suspension point in the evaluation pipeline and
// is shared by the engagement and profile source calls.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// Policy configures retry behavior for an operation returning T.
type Policy[T any] struct {
	// MaxAttempts caps the total number of invocations. Zero or negative
	// falls back to constants.DefaultMaxAttempts.
	MaxAttempts int

	// BaseDelay is the first backoff delay; each retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Retryable classifies an error as retry-worthy. Nil defaults to
	// errors.IsTransient. A non-retryable error propagates immediately.
	Retryable func(error) bool

	// RetryOnResult optionally marks a successful result as retry-worthy.
	// After exhausting attempts the last such result is returned, not an
	// error.
	RetryOnResult func(T) bool

	// RetryOnError optionally vetoes retrying a retryable error. When it
	// returns false the error propagates immediately, without sleeping.
	RetryOnError func(error) bool

	// OnRetry is invoked with (err, attempt) before each backoff sleep on
	// the error path. Panics inside the callback are swallowed and logged so
	// they never mask the original error.
	OnRetry func(err error, attempt int)

	// Logger receives retry and callback-failure messages. Nil disables
	// retry logging.
	Logger logger.Logger
}

// Default returns a Policy with the service-wide retry defaults.
func Default[T any]() Policy[T] {
	return Policy[T]{
		MaxAttempts: constants.DefaultMaxAttempts,
		BaseDelay:   constants.DefaultBaseDelay,
		MaxDelay:    constants.DefaultMaxDelay,
	}
}

// Do executes op under the policy. It returns the first success, the final
// attempt's result when that attempt satisfied RetryOnResult, or the last
// error when the final attempt failed.
func (p Policy[T]) Do(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastResult T
	var lastErr error

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = constants.DefaultMaxAttempts
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = errors.IsTransient
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := op(ctx)

		if err == nil {
			if p.RetryOnResult == nil || !p.RetryOnResult(result) {
				return result, nil
			}
			lastResult = result
			if attempt == maxAttempts-1 {
				// Exhausted on a retry-worthy result: hand it back.
				return lastResult, nil
			}
			p.logRetry(ctx, attempt+1, maxAttempts, "result condition", nil)
			if err := p.sleep(ctx, attempt); err != nil {
				return lastResult, err
			}
			continue
		}

		if !retryable(err) {
			return zero, err
		}
		if p.RetryOnError != nil && !p.RetryOnError(err) {
			return zero, err
		}

		lastErr = err
		if attempt == maxAttempts-1 {
			// Exhausted on an error: the error wins even when an earlier
			// attempt produced a retry-worthy result.
			return zero, lastErr
		}

		p.logRetry(ctx, attempt+1, maxAttempts, "error", err)
		p.invokeCallback(ctx, err, attempt+1)
		if serr := p.sleep(ctx, attempt); serr != nil {
			return zero, serr
		}
	}

	return zero, lastErr
}

// delay computes min(base*2^attempt + jitter, max) where jitter is a random
// duration in [0, 1s).
func (p Policy[T]) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = constants.DefaultBaseDelay
	}
	max := p.MaxDelay
	if max <= 0 {
		max = constants.DefaultMaxDelay
	}

	backoff := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	jitter := time.Duration(rand.Float64() * float64(time.Second))
	d := backoff + jitter
	if d > max {
		d = max
	}
	return d
}

func (p Policy[T]) sleep(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay(attempt)):
		return nil
	}
}

func (p Policy[T]) invokeCallback(ctx context.Context, err error, attempt int) {
	if p.OnRetry == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && p.Logger != nil {
			p.Logger.Warn(ctx, "on-retry callback panicked",
				logger.Any("panic", r),
				logger.Int("attempt", attempt),
			)
		}
	}()
	p.OnRetry(err, attempt)
}

func (p Policy[T]) logRetry(ctx context.Context, attempt, maxAttempts int, reason string, err error) {
	if p.Logger == nil {
		return
	}
	fields := []logger.Field{
		logger.Int("attempt", attempt),
		logger.Int("max_attempts", maxAttempts),
		logger.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, logger.Err(err))
	}
	p.Logger.Warn(ctx, "retrying operation", fields...)
}
