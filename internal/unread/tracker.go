// Package unread maintains the queue of relationship events the local user
// has not looked at yet.
package unread

import (
	"context"
	"fmt"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/store"
	"go.uber.org/zap"
)

// Tracker wraps the store's unread partition and announces every change.
type Tracker struct {
	store  *store.Store
	sink   dispatch.Sink
	logger *zap.Logger
}

// NewTracker creates a tracker over st.
func NewTracker(st *store.Store, sink dispatch.Sink, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: st, sink: sink, logger: logger}
}

// Enqueue records h as unseen. Re-delivery of an already queued event
// (same remote username and timestamp) is ignored.
func (t *Tracker) Enqueue(ctx context.Context, h hangout.Hangout) error {
	h.Read = false
	items, added, err := t.store.AppendUnread(ctx, h)
	if err != nil {
		return fmt.Errorf("enqueue unread %s: %w", h.Username, err)
	}
	if !added {
		t.logger.Debug("unread entry already queued",
			zap.String("remote", h.Username), zap.Int64("timestamp", h.Timestamp))
		return nil
	}
	t.announce(items)
	return nil
}

// MarkRead drops every queued entry for remote. It is idempotent.
func (t *Tracker) MarkRead(ctx context.Context, remote string) error {
	items, err := t.store.RemoveUnread(ctx, remote)
	if err != nil {
		return fmt.Errorf("mark read %s: %w", remote, err)
	}
	t.announce(items)
	return nil
}

// Count returns the number of queued entries not flagged read. It is
// recomputed from the store on every call.
func (t *Tracker) Count(ctx context.Context) (int, error) {
	items, err := t.store.Unread(ctx)
	if err != nil {
		return 0, err
	}
	return count(items), nil
}

// List returns the queued entries in arrival order.
func (t *Tracker) List(ctx context.Context) ([]hangout.Hangout, error) {
	return t.store.Unread(ctx)
}

func (t *Tracker) announce(items []hangout.Hangout) {
	t.sink.Dispatch(dispatch.UnreadUpdated, dispatch.UnreadPayload{
		Unread: items,
		Count:  count(items),
	})
}

func count(items []hangout.Hangout) int {
	n := 0
	for _, h := range items {
		if !h.Read {
			n++
		}
	}
	return n
}
