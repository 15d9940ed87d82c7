// Package blob defines remote content storage for message attachments.
//
// A Store keeps attachment bytes out of the composition pipeline; the
// composer references uploaded content by URI and resolves it back to
// bytes at build time.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidURI reports a URI that does not match the store's scheme or
// lacks an object key.
var ErrInvalidURI = fmt.Errorf("blob: invalid uri")

// Store handles blob storage operations. Implementations cover S3, GCS
// and decorators over either.
type Store interface {
	// Upload stores content and returns a URI for later retrieval.
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (uri string, err error)

	// Load returns a reader for the blob content. The caller closes
	// the reader.
	Load(ctx context.Context, uri string) (io.ReadCloser, error)

	// Delete removes the blob from storage.
	Delete(ctx context.Context, uri string) error
}

// ParseURI splits a "<scheme>://bucket/key" URI into bucket and key.
func ParseURI(scheme, uri string) (bucket, key string, err error) {
	prefix := scheme + "://"
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w (no key): %s", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}
