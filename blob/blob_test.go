package blob

import (
	"errors"
	"testing"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://my-bucket/blobs/2026/01/02/id/file.pdf", "my-bucket", "blobs/2026/01/02/id/file.pdf", true},
		{"s3://bucket/key", "bucket", "key", true},
		{"gs://bucket/key", "", "", false},
		{"s3://bucket", "", "", false},
		{"s3://bucket/", "", "", false},
		{"s3:///key", "", "", false},
		{"bucket/key", "", "", false},
	}
	for _, tt := range tests {
		bucket, key, err := ParseURI("s3", tt.uri)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseURI(s3, %q) error: %v", tt.uri, err)
				continue
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("ParseURI(s3, %q) = %q, %q; want %q, %q", tt.uri, bucket, key, tt.bucket, tt.key)
			}
		} else if !errors.Is(err, ErrInvalidURI) {
			t.Errorf("ParseURI(s3, %q) err = %v, want %v", tt.uri, err, ErrInvalidURI)
		}
	}
}
