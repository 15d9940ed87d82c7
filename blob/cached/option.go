package cached

import (
	"log/slog"
	"os"
	"time"
)

// Defaults for the caching store.
const (
	DefaultMaxSize = int64(1 << 30)
	DefaultTTL     = 24 * time.Hour
)

type options struct {
	cacheDir string
	maxSize  int64
	ttl      time.Duration
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{
		cacheDir: os.TempDir(),
		maxSize:  DefaultMaxSize,
		ttl:      DefaultTTL,
		logger:   slog.Default(),
	}
}

// Option configures the caching store.
type Option func(*options)

// WithCacheDir sets the directory for cached files. Default is the
// system temp directory.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.cacheDir = dir
		}
	}
}

// WithMaxSize caps the cache size in bytes. New entries are skipped
// once the cap is reached.
func WithMaxSize(size int64) Option {
	return func(o *options) {
		if size > 0 {
			o.maxSize = size
		}
	}
}

// WithTTL sets the freshness window for cached files. Zero disables
// expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
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
