// Package focus tracks which conversation the local user is looking at.
package focus

import (
	"context"
	"fmt"
	"sync"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/store"
	"github.com/matheus3301/hangouts/internal/unread"
	"go.uber.org/zap"
)

// View holds the open conversation, if any.
type View struct {
	mu      sync.RWMutex
	current string

	store  *store.Store
	unread *unread.Tracker
	sink   dispatch.Sink
	logger *zap.Logger
}

// NewView creates a view with no conversation open.
func NewView(st *store.Store, tr *unread.Tracker, sink dispatch.Sink, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{store: st, unread: tr, sink: sink, logger: logger}
}

// Current returns the remote username of the open conversation, or "".
func (v *View) Current() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Open makes remote the open conversation and marks everything it holds read.
func (v *View) Open(ctx context.Context, remote string) error {
	v.mu.Lock()
	v.current = remote
	v.mu.Unlock()

	hangouts, changed, err := v.store.MarkHangoutRead(ctx, remote)
	if err != nil {
		return fmt.Errorf("open %s: %w", remote, err)
	}
	if changed {
		v.sink.Dispatch(dispatch.HangoutsUpdated, dispatch.HangoutsPayload{Hangouts: hangouts})
	}

	msgs, _, err := v.store.MarkMessagesRead(ctx, remote)
	if err != nil {
		return fmt.Errorf("open %s: %w", remote, err)
	}
	v.sink.Dispatch(dispatch.MessagesUpdated, dispatch.MessagesPayload{Remote: remote, Messages: msgs})

	if err := v.unread.MarkRead(ctx, remote); err != nil {
		return err
	}
	v.logger.Debug("conversation opened", zap.String("remote", remote))
	return nil
}

// Close leaves the open conversation.
func (v *View) Close() {
	v.mu.Lock()
	prev := v.current
	v.current = ""
	v.mu.Unlock()
	if prev != "" {
		v.logger.Debug("conversation closed", zap.String("remote", prev))
	}
}
