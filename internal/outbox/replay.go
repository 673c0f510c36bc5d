package outbox

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/store"
	"go.uber.org/zap"
)

// Subscriber delivers dispatched actions by kind prefix.
type Subscriber interface {
	Subscribe(prefix string, bufSize int) (<-chan dispatch.Action, func())
}

// Replayer resends the offline queue after the push channel comes back.
// Entries stay queued until the matching OFFLINE_ACKN removes them.
type Replayer struct {
	store     *store.Store
	transport Transport
	sink      dispatch.Sink
	logger    *zap.Logger

	mu     sync.Mutex // one replay at a time
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReplayer creates a replayer for the store's offline queue.
func NewReplayer(st *store.Store, tr Transport, sink dispatch.Sink, logger *zap.Logger) *Replayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replayer{store: st, transport: tr, sink: sink, logger: logger}
}

// Replay sends every queued entry, oldest first, and returns how many were
// sent. It stops at the first failed send so the remaining entries keep
// their order for the next attempt.
func (r *Replayer) Replay(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue, err := r.store.OfflineHangouts(ctx)
	if err != nil {
		return 0, err
	}
	if len(queue) == 0 {
		return 0, nil
	}

	sent := 0
	for _, h := range queue {
		cmd, err := hangout.CommandFor(h.State)
		if err != nil {
			r.logger.Warn("skipping offline entry with non-sender state",
				zap.String("remote", h.Username), zap.String("state", h.State.String()))
			continue
		}
		action := hangout.PendingAction{
			RequestID:      uuid.NewString(),
			RemoteUsername: h.Username,
			RemoteEmail:    h.Email,
			Message:        h.Message,
			Command:        cmd,
			Timestamp:      h.Timestamp,
			Offline:        true,
		}
		if err := r.transport.Send(ctx, action); err != nil {
			r.logger.Error("offline replay send failed",
				zap.Error(err), zap.String("remote", h.Username), zap.Int64("timestamp", h.Timestamp))
			r.sink.Dispatch(dispatch.ErrorReceived, dispatch.NewError("replay", err))
			return sent, err
		}
		sent++
	}
	r.logger.Info("offline queue replayed", zap.Int("sent", sent), zap.Int("queued", len(queue)))
	return sent, nil
}

// Start replays on every edge into CONNECTED announced on sub.
func (r *Replayer) Start(ctx context.Context, sub Subscriber) {
	ch, unsub := sub.Subscribe(string(dispatch.StatusChanged), 16)
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		defer unsub()
		for {
			select {
			case act := <-ch:
				change, ok := act.Payload.(status.StatusChange)
				if !ok || !change.Reconnected() {
					continue
				}
				if _, err := r.Replay(ctx); err != nil {
					r.logger.Warn("offline replay incomplete", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the replay loop and waits for it to exit.
func (r *Replayer) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
