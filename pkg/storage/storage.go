// Package storage is the blob layer behind the YAML repositories: flat
// paths mapped onto a directory or an S3 prefix.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Watcher is implemented by backends that can report out-of-band changes,
// such as a view file edited by hand while the server runs.
type Watcher interface {
	// Watch sends the storage path of every file created, written or
	// removed under prefix until ctx is done.
	Watch(ctx context.Context, prefix string) (<-chan string, error)
}
