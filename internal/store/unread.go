package store

import (
	"context"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// Unread returns the owner's unread queue.
func (s *Store) Unread(ctx context.Context) ([]hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[hangout.Hangout](ctx, s.kv, s.unreadKey())
}

// HasUnread reports whether the unread queue key exists at all.
func (s *Store) HasUnread(ctx context.Context) (bool, error) {
	return s.kv.Exists(ctx, s.unreadKey())
}

// AppendUnread appends h to the unread queue unless the same event
// (remote username and timestamp) is already queued.
func (s *Store) AppendUnread(ctx context.Context, h hangout.Hangout) ([]hangout.Hangout, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := load[hangout.Hangout](ctx, s.kv, s.unreadKey())
	if err != nil {
		return nil, false, err
	}
	for _, e := range items {
		if e.Username == h.Username && e.Timestamp == h.Timestamp {
			return items, false, nil
		}
	}
	items = append(items, h)
	if err := save(ctx, s.kv, s.unreadKey(), items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// RemoveUnread drops every entry for remote. When nothing remains the key is
// removed instead of keeping an empty collection.
func (s *Store) RemoveUnread(ctx context.Context, remote string) ([]hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := load[hangout.Hangout](ctx, s.kv, s.unreadKey())
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, e := range items {
		if e.Username != remote {
			kept = append(kept, e)
		}
	}
	if err := saveOrClear(ctx, s.kv, s.unreadKey(), kept); err != nil {
		return nil, err
	}
	return kept, nil
}
