// internal/storage/archive/interface.go
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Read when no blob exists at the key.
var ErrNotFound = errors.New("archive: not found")

// Storage is a flat blob store addressed by slash-separated keys.
type Storage interface {
	// Write stores data at key, replacing any previous blob
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the blob at key or ErrNotFound
	Read(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Options selects and configures a backend.
type Options struct {
	Type string // "localfs" or "s3"
	Path string
	S3   S3Config
}

// New builds the backend named by opts.Type.
func New(opts Options) (Storage, error) {
	switch opts.Type {
	case "localfs":
		return NewLocalFS(opts.Path)
	case "s3":
		return NewS3(opts.S3)
	default:
		return nil, fmt.Errorf("unknown archive type: %q", opts.Type)
	}
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("archive: empty key")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("archive: invalid key %q", key)
	}
	return cleaned, nil
}
