// Package retrying wraps a delivery transport with exponential backoff
// retries for transient failures.
package retrying

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rbaliyan/courier/mail"
)

// Default retry behavior.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 100 * time.Millisecond
	DefaultMaxBackoff     = 30 * time.Second
	DefaultMultiplier     = 2.0
	DefaultJitter         = 0.1
)

// Sentinel errors.
var (
	// ErrNotRetryable marks errors that must not be retried.
	ErrNotRetryable = errors.New("retrying: error is not retryable")

	// ErrMaxRetries is returned when all retry attempts are exhausted.
	ErrMaxRetries = errors.New("retrying: max retries exceeded")
)

// Transport decorates another transport with retry behavior. Retries
// only help against transient transport failures; permanent rejections
// should be wrapped with MarkNotRetryable by the inner transport or a
// custom IsRetryable.
type Transport struct {
	inner mail.Transport
	opts  *options
}

// New wraps inner with retries.
func New(inner mail.Transport, opts ...Option) *Transport {
	return &Transport{
		inner: inner,
		opts:  newOptions(opts...),
	}
}

// Name returns the inner transport's name; the decorator is invisible
// to delivery method selection.
func (t *Transport) Name() string {
	return t.inner.Name()
}

// Deliver attempts delivery through the inner transport, retrying
// retryable failures with exponential backoff until the attempt budget
// or the context runs out.
func (t *Transport) Deliver(ctx context.Context, msg *mail.Message) error {
	var lastErr error
	for attempt := 0; attempt <= t.opts.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return &RetryError{Cause: lastErr, Attempts: attempt, Err: err}
			}
			return err
		}

		err := t.inner.Deliver(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if !t.opts.isRetryable(err) {
			return &RetryError{Cause: err, Attempts: attempt + 1, Err: ErrNotRetryable}
		}

		// No sleep after the final attempt.
		if attempt < t.opts.maxRetries {
			select {
			case <-ctx.Done():
				return &RetryError{Cause: lastErr, Attempts: attempt + 1, Err: ctx.Err()}
			case <-time.After(t.backoff(attempt)):
			}
		}
	}
	return &RetryError{Cause: lastErr, Attempts: t.opts.maxRetries + 1, Err: ErrMaxRetries}
}

// backoff computes the delay before the next attempt.
func (t *Transport) backoff(attempt int) time.Duration {
	d := float64(t.opts.initialBackoff) * math.Pow(t.opts.multiplier, float64(attempt))
	if d > float64(t.opts.maxBackoff) {
		d = float64(t.opts.maxBackoff)
	}
	if t.opts.jitter > 0 {
		spread := d * t.opts.jitter
		d = d - spread + rand.Float64()*2*spread
	}
	return time.Duration(d)
}

// RetryError provides details about a failed delivery after retries.
type RetryError struct {
	// Cause is the last error returned by the inner transport.
	Cause error

	// Attempts is the number of delivery attempts made.
	Attempts int

	// Err classifies the failure (ErrMaxRetries, ErrNotRetryable, or a
	// context error).
	Err error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("delivery failed after %d attempts (%s): %s", e.Attempts, e.Err, e.Cause)
}

func (e *RetryError) Unwrap() error {
	return e.Cause
}

func (e *RetryError) Is(target error) bool {
	return errors.Is(e.Err, target) || errors.Is(e.Cause, target)
}

// DefaultIsRetryable treats errors as retryable unless they carry an
// explicit non-retryable marker.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotRetryable) {
		return false
	}
	var retryable interface{ Retryable() bool }
	if errors.As(err, &retryable) {
		return retryable.Retryable()
	}
	return true
}

// MarkNotRetryable wraps an error to indicate it should not be retried.
func MarkNotRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{cause: err, retryable: false}
}

// MarkRetryable wraps an error to explicitly indicate it can be retried.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{cause: err, retryable: true}
}

type markedError struct {
	cause     error
	retryable bool
}

func (e *markedError) Error() string {
	return e.cause.Error()
}

func (e *markedError) Unwrap() error {
	return e.cause
}

func (e *markedError) Retryable() bool {
	return e.retryable
}
