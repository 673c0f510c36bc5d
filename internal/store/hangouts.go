package store

import (
	"context"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// Hangouts returns every relationship record of the owner.
func (s *Store) Hangouts(ctx context.Context) ([]hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[hangout.Hangout](ctx, s.kv, s.hangoutsKey())
}

// Hangout returns the relationship record with remote, or nil if none exists.
func (s *Store) Hangout(ctx context.Context, remote string) (*hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := load[hangout.Hangout](ctx, s.kv, s.hangoutsKey())
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Username == remote {
			h := items[i]
			return &h, nil
		}
	}
	return nil, nil
}

// SaveHangout stores h, replacing any record with the same remote username.
// It returns the resulting collection.
func (s *Store) SaveHangout(ctx context.Context, h hangout.Hangout) ([]hangout.Hangout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := load[hangout.Hangout](ctx, s.kv, s.hangoutsKey())
	if err != nil {
		return nil, err
	}
	items = replaceHangout(items, h)
	if err := save(ctx, s.kv, s.hangoutsKey(), items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkHangoutRead sets the read flag on the record with remote.
// It returns the resulting collection and whether a record was changed.
func (s *Store) MarkHangoutRead(ctx context.Context, remote string) ([]hangout.Hangout, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := load[hangout.Hangout](ctx, s.kv, s.hangoutsKey())
	if err != nil {
		return nil, false, err
	}
	changed := false
	for i := range items {
		if items[i].Username == remote && !items[i].Read {
			items[i].Read = true
			if items[i].Message != nil {
				items[i].Message.Read = true
			}
			changed = true
		}
	}
	if !changed {
		return items, false, nil
	}
	if err := save(ctx, s.kv, s.hangoutsKey(), items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func replaceHangout(items []hangout.Hangout, h hangout.Hangout) []hangout.Hangout {
	for i := range items {
		if items[i].Username == h.Username {
			items[i] = h
			return items
		}
	}
	return append(items, h)
}
