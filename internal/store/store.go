package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Store owns every persisted relationship record of one local user:
// relationships, per-pair message logs, the unread queue and the offline queue.
// Collections are stored as JSON arrays and rewritten whole on every mutation;
// mu serializes those read-modify-write sequences.
type Store struct {
	kv    KV
	owner string
	mu    sync.Mutex
}

// New creates a store for owner's collections on top of kv.
func New(kv KV, owner string) *Store {
	return &Store{kv: kv, owner: owner}
}

// Owner returns the local username the store is namespaced by.
func (s *Store) Owner() string {
	return s.owner
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

// Keys are ":"-separated; usernames cannot contain ":" (see
// hangout.ValidateUsername), so no two partitions share a key.
func (s *Store) hangoutsKey() string        { return s.owner + ":hangouts" }
func (s *Store) unreadKey() string          { return s.owner + ":unread-hangouts" }
func (s *Store) offlineHangoutsKey() string { return s.owner + ":offline-hangouts" }

func (s *Store) messagesKey(remote string) string {
	return s.owner + ":messages:" + remote
}

func (s *Store) offlineMessagesKey(remote string) string {
	return s.owner + ":offline-messages:" + remote
}

// load returns the collection under key. A missing key is an empty collection.
func load[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return items, nil
}

func save[T any](ctx context.Context, kv KV, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}

// saveOrClear writes items, or removes key entirely when items is empty.
func saveOrClear[T any](ctx context.Context, kv KV, key string, items []T) error {
	if len(items) == 0 {
		return kv.Delete(ctx, key)
	}
	return save(ctx, kv, key, items)
}
