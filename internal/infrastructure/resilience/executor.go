package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassifier decides whether a failed attempt may be retried.
// Permanent errors are returned to the caller immediately.
type ErrorClassifier func(err error) (retryable bool)

// Executor runs calls to one outbound dependency with retries and an
// optional circuit breaker.
type Executor struct {
	name     string
	policy   Policy
	classify ErrorClassifier
	breaker  *gobreaker.CircuitBreaker[any]
}

func NewExecutor(name string, policy Policy, classify ErrorClassifier) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BackoffMultiplier <= 0 {
		policy.BackoffMultiplier = 1
	}
	if classify == nil {
		classify = func(error) bool { return false }
	}

	e := &Executor{name: name, policy: policy, classify: classify}
	if policy.BreakerEnabled {
		e.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    name,
			Timeout: policy.BreakerOpenInterval,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= policy.BreakerMaxFailures
			},
		})
	}
	return e
}

// Do invokes fn until it succeeds, a permanent error occurs, attempts
// are exhausted, or ctx is done. The last error is returned.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := e.policy.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = e.call(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if errors.Is(lastErr, gobreaker.ErrOpenState) || errors.Is(lastErr, gobreaker.ErrTooManyRequests) {
			return lastErr
		}
		if !e.classify(lastErr) {
			return lastErr
		}
		if attempt == e.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * e.policy.BackoffMultiplier)
		if e.policy.MaxBackoff > 0 && backoff > e.policy.MaxBackoff {
			backoff = e.policy.MaxBackoff
		}
	}
	return lastErr
}

func (e *Executor) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.breaker == nil {
		return fn(ctx)
	}
	_, err := e.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}
