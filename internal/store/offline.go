package store

import (
	"context"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// OfflineHangouts returns the offline queue, oldest first.
func (s *Store) OfflineHangouts(ctx context.Context) ([]hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[hangout.Hangout](ctx, s.kv, s.offlineHangoutsKey())
}

// QueueOffline appends h to the offline queue.
func (s *Store) QueueOffline(ctx context.Context, h hangout.Hangout) ([]hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := load[hangout.Hangout](ctx, s.kv, s.offlineHangoutsKey())
	if err != nil {
		return nil, err
	}
	items = append(items, h)
	if err := save(ctx, s.kv, s.offlineHangoutsKey(), items); err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveOffline drops the queued entry sent at timestamp ts.
func (s *Store) RemoveOffline(ctx context.Context, ts int64) ([]hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := load[hangout.Hangout](ctx, s.kv, s.offlineHangoutsKey())
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, e := range items {
		if e.Timestamp != ts {
			kept = append(kept, e)
		}
	}
	if err := saveOrClear(ctx, s.kv, s.offlineHangoutsKey(), kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// OfflineMessages returns messages composed for remote while disconnected.
func (s *Store) OfflineMessages(ctx context.Context, remote string) ([]hangout.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[hangout.Message](ctx, s.kv, s.offlineMessagesKey(remote))
}

// AppendOfflineMessage appends m to the offline log shared with remote.
func (s *Store) AppendOfflineMessage(ctx context.Context, remote string, m hangout.Message) ([]hangout.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.offlineMessagesKey(remote)
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

// RemoveOfflineMessage drops the offline message sent at timestamp ts.
func (s *Store) RemoveOfflineMessage(ctx context.Context, remote string, ts int64) ([]hangout.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.offlineMessagesKey(remote)
	items, err := load[hangout.Message](ctx, s.kv, key)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, m := range items {
		if m.Timestamp != ts {
			kept = append(kept, m)
		}
	}
	if err := saveOrClear(ctx, s.kv, key, kept); err != nil {
		return nil, err
	}
	return kept, nil
}
