package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/intel-sieve/internal/service"
)

var (
	// ErrRateLimit indicates that a source asked us to slow down.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// Retry defaults applied to zero RetryOptions fields.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 100 * time.Millisecond
	DefaultRetryMaxDelay = 30 * time.Second
	DefaultRetryFactor   = 2.0
)

// RetryableError marks an error as worth retrying or not. After, when set,
// is the delay the upstream asked for.
type RetryableError struct {
	Err       error
	After     time.Duration
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether WithRetry would try err again. An explicit
// RetryableError decides; cancellation never retries; anything else does.
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultRetryAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultRetryDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultRetryMaxDelay
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = DefaultRetryFactor
	}
	return opts
}

// retryDelay picks the wait before the next attempt: the upstream's
// Retry-After when given, the maximum for a bare rate limit, otherwise the
// backoff delay. The result never exceeds opts.MaxDelay.
func retryDelay(err error, backoff time.Duration, opts service.RetryOptions) time.Duration {
	delay := backoff
	var retryableErr *RetryableError
	switch {
	case errors.As(err, &retryableErr) && retryableErr.After > 0:
		delay = retryableErr.After
	case errors.Is(err, ErrRateLimit):
		delay = opts.MaxDelay
	}
	return min(delay, opts.MaxDelay)
}

// WithRetry runs operation until it succeeds, returns a non-retryable error
// or runs out of attempts. The final error wraps both ErrMaxRetries and the
// last failure.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)
	backoff := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		delay := retryDelay(err, backoff, opts)
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(time.Duration(float64(backoff)*opts.Multiplier), opts.MaxDelay)
	}
}
