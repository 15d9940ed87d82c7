// Package cached wraps a blob store with a local file cache so repeated
// attachment loads skip the remote round trip.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rbaliyan/courier/blob"
)

// Store decorates a blob.Store with file caching. Uploads and deletes
// pass through; loads populate the cache.
type Store struct {
	backend  blob.Store
	cacheDir string
	maxSize  int64
	ttl      time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	cacheSize int64
}

var _ blob.Store = (*Store)(nil)

// New creates a caching store over backend.
func New(backend blob.Store, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cacheDir := filepath.Join(o.cacheDir, "courier-blobs")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("cached: create cache directory: %w", err)
	}

	s := &Store{
		backend:  backend,
		cacheDir: cacheDir,
		maxSize:  o.maxSize,
		ttl:      o.ttl,
		logger:   o.logger,
	}
	s.measure()
	return s, nil
}

// Upload passes through to the backend. Content is cached on Load, not
// on Upload.
func (s *Store) Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	return s.backend.Upload(ctx, filename, contentType, content)
}

// Load serves from the cache when a fresh entry exists, otherwise loads
// from the backend and fills the cache as the caller reads.
func (s *Store) Load(ctx context.Context, uri string) (io.ReadCloser, error) {
	cachePath := filepath.Join(s.cacheDir, cacheKey(uri))

	if info, err := os.Stat(cachePath); err == nil {
		if s.ttl <= 0 || time.Since(info.ModTime()) < s.ttl {
			if f, err := os.Open(cachePath); err == nil {
				s.logger.Debug("blob cache hit", "uri", uri)
				now := time.Now()
				_ = os.Chtimes(cachePath, now, now)
				return f, nil
			}
		} else {
			os.Remove(cachePath)
			s.adjust(-info.Size())
		}
	}

	s.logger.Debug("blob cache miss", "uri", uri)
	reader, err := s.backend.Load(ctx, uri)
	if err != nil {
		return nil, err
	}
	return s.fillOnRead(reader, cachePath), nil
}

// Delete evicts the cached copy and removes the blob from the backend.
func (s *Store) Delete(ctx context.Context, uri string) error {
	cachePath := filepath.Join(s.cacheDir, cacheKey(uri))
	if info, err := os.Stat(cachePath); err == nil {
		os.Remove(cachePath)
		s.adjust(-info.Size())
	}
	return s.backend.Delete(ctx, uri)
}

// Clear removes every cached file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		return fmt.Errorf("cached: read cache dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			os.Remove(filepath.Join(s.cacheDir, entry.Name()))
		}
	}
	s.cacheSize = 0
	return nil
}

func cacheKey(uri string) string {
	h := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(h[:])
}

// fillOnRead tees the backend reader into a temp file that is promoted
// into the cache when the caller finishes reading.
func (s *Store) fillOnRead(source io.ReadCloser, cachePath string) io.ReadCloser {
	tmp, err := os.CreateTemp(s.cacheDir, "fill-*")
	if err != nil {
		s.logger.Warn("blob cache fill unavailable", "error", err)
		return source
	}
	return &fillReader{source: source, tmp: tmp, cachePath: cachePath, store: s}
}

type fillReader struct {
	source    io.ReadCloser
	tmp       *os.File
	cachePath string
	store     *Store
	size      int64
	closed    bool
}

func (r *fillReader) Read(p []byte) (n int, err error) {
	n, err = r.source.Read(p)
	if n > 0 {
		if _, werr := r.tmp.Write(p[:n]); werr != nil {
			r.store.logger.Warn("blob cache write failed", "error", werr)
		}
		r.size += int64(n)
	}
	return n, err
}

func (r *fillReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	sourceErr := r.source.Close()
	if err := r.tmp.Close(); err != nil {
		os.Remove(r.tmp.Name())
		return sourceErr
	}

	if r.store.fits(r.size) {
		if err := os.Rename(r.tmp.Name(), r.cachePath); err != nil {
			os.Remove(r.tmp.Name())
			r.store.logger.Warn("blob cache promote failed", "error", err)
		} else {
			r.store.adjust(r.size)
		}
	} else {
		os.Remove(r.tmp.Name())
	}
	return sourceErr
}

func (s *Store) fits(size int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheSize+size <= s.maxSize
}

func (s *Store) adjust(delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheSize += delta
	if s.cacheSize < 0 {
		s.cacheSize = 0
	}
}

// measure seeds the tracked size from the files already on disk.
func (s *Store) measure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size int64
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		s.logger.Warn("blob cache size scan failed", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	s.cacheSize = size
}
