package gcs

import (
	"log/slog"
)

// DefaultPrefix is the object key prefix for uploaded blobs.
const DefaultPrefix = "attachments"

type options struct {
	bucket string
	prefix string

	// Custom endpoint for emulators.
	endpoint string

	// Mutually exclusive; with neither set, Application Default
	// Credentials apply.
	credentialsJSON []byte
	credentialsFile string

	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
}

// Option configures the GCS blob store.
type Option func(*options)

// WithBucket sets the GCS bucket name (required).
func WithBucket(bucket string) Option {
	return func(o *options) {
		o.bucket = bucket
	}
}

// WithPrefix sets the object key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEndpoint sets a custom GCS endpoint for emulators.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithCredentialsJSON sets service account credentials from JSON bytes.
func WithCredentialsJSON(json []byte) Option {
	return func(o *options) {
		o.credentialsJSON = json
	}
}

// WithCredentialsFile sets the path to a service account key file.
func WithCredentialsFile(path string) Option {
	return func(o *options) {
		o.credentialsFile = path
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
