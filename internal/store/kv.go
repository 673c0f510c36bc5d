package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a KV backend when a key is absent.
var ErrNotFound = errors.New("not found")

// KV is the persistent key-value pair the relationship store is built on.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}
