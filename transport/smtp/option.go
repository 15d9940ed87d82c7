package smtp

import (
	"time"

	"github.com/rbaliyan/courier/mail"
)

// DefaultDialTimeout bounds the TCP connect to the SMTP endpoint.
const DefaultDialTimeout = 10 * time.Second

type options struct {
	settings    mail.Settings
	dialTimeout time.Duration
}

func defaultOptions() options {
	return options{dialTimeout: DefaultDialTimeout}
}

// Option configures the SMTP transport.
type Option func(*options)

// WithDialTimeout overrides the connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}
