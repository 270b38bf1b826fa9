package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FilesystemStorage implements the Storage interface against the local
// filesystem. It is selected with the special bucket name "standalone".
type FilesystemStorage struct {
	Config Config
}

// NewFilesystemStorage implements the Storage interface for simple S3 like
// file system interactions.
func NewFilesystemStorage(config Config) FilesystemStorage {
	return FilesystemStorage{
		Config: config,
	}
}

// Write will write the data to the key under the storage root.
func (f FilesystemStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	if options == nil {
		opts := NewOptions()
		options = &opts
	}

	filename := f.buildPath(key)

	// make sure directory exists.
	if err := f.ensureExists(path.Dir(filename), options); err != nil {
		return err
	}

	var mode os.FileMode = 0644
	if options.Mode != 0 {
		mode = options.Mode
	}

	return os.WriteFile(filename, body, mode)
}

// Read reads the data from a file on the local filesystem.
func (f FilesystemStorage) Read(ctx context.Context, key string) ([]byte, error) {
	filename := f.buildPath(key)

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, ErrNotFound
	}

	return os.ReadFile(filename)
}

// Remove removes the object stored at key.
func (f FilesystemStorage) Remove(ctx context.Context, key string) error {
	filename := f.buildPath(key)

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return ErrNotFound
	}

	return os.Remove(filename)
}

// List returns the keys of the objects found under a path prefix.
func (f FilesystemStorage) List(ctx context.Context, path string) ([]string, error) {
	dir := f.buildPath(path)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys = append(keys, strings.Join([]string{path, entry.Name()}, "/"))
	}

	sort.Strings(keys)
	return keys, nil
}

// Clear removes all objects under a path prefix.
func (f FilesystemStorage) Clear(ctx context.Context, path string) error {
	keys, err := f.List(ctx, path)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := f.Remove(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

func (f FilesystemStorage) buildPath(key string) string {
	parts := []string{
		f.Config.Root,
		f.Config.Bucket,
	}

	if len(key) > 0 {
		parts = append(parts, key)
	}

	return filepath.FromSlash(strings.Join(parts, "/"))
}

func (f FilesystemStorage) ensureExists(dir string, options *Options) error {
	if options == nil {
		opts := NewOptions()
		options = &opts
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, options.DirMode); err != nil {
			return err
		}
	}

	return nil
}
