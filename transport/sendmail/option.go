package sendmail

type options struct {
	path string
	args []string
}

func defaultOptions() options {
	return options{
		path: DefaultPath,
		args: append([]string(nil), DefaultArgs...),
	}
}

// Option configures the sendmail transport.
type Option func(*options)

// WithPath overrides the sendmail binary location.
func WithPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.path = path
		}
	}
}

// WithArgs replaces the arguments passed to the binary.
func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = append([]string(nil), args...)
	}
}
