package storage

import (
	"context"
	"errors"
	"os"
)

// ErrNotFound is returned when the requested key does not exist in the
// store.
var ErrNotFound = errors.New("Not found")

// Storage is implemented by the backing stores the ledger can persist to.
// Keys are slash separated paths, the same shape as S3 object keys.
type Storage interface {
	Write(ctx context.Context, key string, body []byte, options *Options) error
	Read(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error

	// List returns the keys found under a given path prefix.
	List(ctx context.Context, path string) ([]string, error)

	// Clear removes all objects under a given path prefix.
	Clear(ctx context.Context, path string) error
}

// Options alter the behavior of a write.
type Options struct {
	// TTL is the time to live in seconds. Zero means no expiry.
	TTL int64

	// Mode is the file mode used by filesystem backed storage.
	Mode os.FileMode

	// DirMode is the mode used when creating missing directories.
	DirMode os.FileMode
}

// NewOptions returns Options with sane defaults.
func NewOptions() Options {
	return Options{
		Mode:    0644,
		DirMode: 0755,
	}
}
