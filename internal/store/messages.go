package store

import (
	"context"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// Messages returns the ordered message log shared with remote.
func (s *Store) Messages(ctx context.Context, remote string) ([]hangout.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[hangout.Message](ctx, s.kv, s.messagesKey(remote))
}

// AppendMessage appends m to the log shared with remote.
func (s *Store) AppendMessage(ctx context.Context, remote string, m hangout.Message) ([]hangout.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.messagesKey(remote)
	items, err := load[hangout.Message](ctx, s.kv, key)
	if err != nil {
		return nil, err
	}
	items = append(items, m)
	if err := save(ctx, s.kv, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

// MergeMessage patches the entry that is the same message as m, or appends m
// when none exists. Patching only raises the read and delivered flags.
func (s *Store) MergeMessage(ctx context.Context, remote string, m hangout.Message) ([]hangout.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.messagesKey(remote)
	items, err := load[hangout.Message](ctx, s.kv, key)
	if err != nil {
		return nil, err
	}
	items = mergeMessage(items, m)
	if err := save(ctx, s.kv, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkMessagesRead flags every message shared with remote as read.
func (s *Store) MarkMessagesRead(ctx context.Context, remote string) ([]hangout.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.messagesKey(remote)
	items, err := load[hangout.Message](ctx, s.kv, key)
	if err != nil {
		return nil, false, err
	}
	changed := false
	for i := range items {
		if !items[i].Read {
			items[i].Read = true
			changed = true
		}
	}
	if !changed {
		return items, false, nil
	}
	if err := save(ctx, s.kv, key, items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func mergeMessage(items []hangout.Message, m hangout.Message) []hangout.Message {
	for i := range items {
		if items[i].SameAs(m) {
			items[i].Read = items[i].Read || m.Read
			items[i].Delivered = items[i].Delivered || m.Delivered
			return items
		}
	}
	return append(items, m)
}
