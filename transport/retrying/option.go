package retrying

import "time"

// options holds retry configuration.
type options struct {
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         float64
	isRetryable    func(error) bool
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		multiplier:     DefaultMultiplier,
		jitter:         DefaultJitter,
		isRetryable:    DefaultIsRetryable,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures the retrying transport.
type Option func(*options)

// WithMaxRetries sets the maximum number of retry attempts after the
// first delivery. Zero means a single attempt. Default is 3.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithInitialBackoff sets the delay before the first retry.
// Default is 100ms.
func WithInitialBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.initialBackoff = d
		}
	}
}

// WithMaxBackoff caps the backoff duration. Default is 30s.
func WithMaxBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxBackoff = d
		}
	}
}

// WithMultiplier sets the backoff growth factor. Default is 2.0.
func WithMultiplier(m float64) Option {
	return func(o *options) {
		if m > 0 {
			o.multiplier = m
		}
	}
}

// WithJitter sets the backoff jitter fraction between 0 and 1.
// Default is 0.1.
func WithJitter(j float64) Option {
	return func(o *options) {
		if j >= 0 && j <= 1 {
			o.jitter = j
		}
	}
}

// WithIsRetryable sets a custom retryable-error classifier.
// Default is DefaultIsRetryable.
func WithIsRetryable(fn func(error) bool) Option {
	return func(o *options) {
		if fn != nil {
			o.isRetryable = fn
		}
	}
}
