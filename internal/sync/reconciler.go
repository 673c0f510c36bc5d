// Package sync merges server events into the relationship store.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/store"
	"github.com/matheus3301/hangouts/internal/transport"
	"github.com/matheus3301/hangouts/internal/unread"
	"go.uber.org/zap"
)

// Viewer reports the conversation the local user has open.
type Viewer interface {
	Current() string
}

// Backlog removes server-side backlog records once they are merged.
type Backlog interface {
	DeleteBacklog(ctx context.Context, h hangout.Hangout) error
}

// Acknowledger is told about every delivery confirmation.
type Acknowledger interface {
	Acknowledge(h hangout.Hangout)
}

// Deps are the collaborators of a Reconciler. Acks and Navigator may be nil.
type Deps struct {
	Store     *store.Store
	Unread    *unread.Tracker
	View      Viewer
	Backlog   Backlog
	Acks      Acknowledger
	Navigator hangout.Navigator
	Sink      dispatch.Sink
	Logger    *zap.Logger
}

// Reconciler applies acknowledgements, live remote events and backlog
// batches. Every path is safe to apply more than once with the same payload.
type Reconciler struct {
	Deps
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconciler creates a reconciler.
func NewReconciler(d Deps) *Reconciler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Navigator == nil {
		d.Navigator = hangout.NavigatorFunc(func(hangout.Route) {})
	}
	return &Reconciler{Deps: d}
}

// Start consumes events until ctx is cancelled or events is closed.
// Failures are logged and reported as error.received; the loop keeps going.
func (r *Reconciler) Start(ctx context.Context, events <-chan hangout.ServerEvent) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := r.Handle(ctx, ev); err != nil {
					r.Logger.Error("failed to reconcile event", zap.Error(err), zap.String("type", string(ev.Type)))
					r.Sink.Dispatch(dispatch.ErrorReceived, dispatch.NewError("reconcile", err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the consume loop and waits for it to exit.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// Handle merges one server event.
func (r *Reconciler) Handle(ctx context.Context, ev hangout.ServerEvent) error {
	r.Sink.Dispatch(dispatch.ServerMessageReceived, dispatch.ServerMessagePayload{Event: ev})

	switch ev.Type {
	case hangout.EventAcknowledgement, hangout.EventOfflineAck, hangout.EventHangout:
		if ev.Hangout == nil {
			return fmt.Errorf("%s event without hangout", ev.Type)
		}
		return r.apply(ctx, *ev.Hangout, ev.Type == hangout.EventOfflineAck, false)
	case hangout.EventUnreadHangouts:
		r.drainBacklog(ctx, ev.Hangouts)
		return nil
	default:
		return fmt.Errorf("%w: %q", hangout.ErrUnknownEventType, ev.Type)
	}
}

// apply routes h by the perspective of its state.
func (r *Reconciler) apply(ctx context.Context, h hangout.Hangout, offline, forceUnread bool) error {
	switch {
	case h.State.Acknowledged():
		return r.confirm(ctx, h, offline)
	case h.State.Received():
		return r.remote(ctx, h, forceUnread)
	default:
		return fmt.Errorf("%w: %q", hangout.ErrUnknownState, h.State)
	}
}

// confirm records that the server accepted one of the local user's actions.
func (r *Reconciler) confirm(ctx context.Context, h hangout.Hangout, offline bool) error {
	h = h.Clone()
	prev, err := r.issued(ctx, h, offline)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", h.Username, err)
	}
	if prev != nil {
		// Acks echo only what identifies the action; keep what we recorded.
		if h.Email == "" {
			h.Email = prev.Email
		}
		if h.Timestamp == 0 {
			h.Timestamp = prev.Timestamp
		}
		if h.Message == nil && prev.Message != nil {
			m := *prev.Message
			h.Message = &m
		}
	}
	h.Delivered = true
	h.Read = true
	if h.Message != nil {
		h.Message.Delivered = true
		h.Message.Read = true
	}

	hangouts, err := r.Store.SaveHangout(ctx, h)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", h.Username, err)
	}
	r.Sink.Dispatch(dispatch.HangoutsUpdated, dispatch.HangoutsPayload{Hangouts: hangouts})
	r.Sink.Dispatch(dispatch.HangoutUpdated, dispatch.HangoutPayload{Hangout: h})

	var msgs []hangout.Message
	if h.Message != nil {
		if msgs, err = r.Store.MergeMessage(ctx, h.Username, *h.Message); err != nil {
			return fmt.Errorf("confirm %s: %w", h.Username, err)
		}
	}
	if h.State == hangout.Blocked {
		notice := hangout.BlockedNotice(r.Store.Owner(), h.Timestamp)
		if msgs, err = r.Store.MergeMessage(ctx, h.Username, notice); err != nil {
			return fmt.Errorf("confirm %s: %w", h.Username, err)
		}
	}
	if msgs != nil {
		r.Sink.Dispatch(dispatch.MessagesUpdated, dispatch.MessagesPayload{Remote: h.Username, Messages: msgs})
	}

	if offline {
		if _, err := r.Store.RemoveOffline(ctx, h.Timestamp); err != nil {
			return fmt.Errorf("confirm offline %s: %w", h.Username, err)
		}
		if _, err := r.Store.RemoveOfflineMessage(ctx, h.Username, h.Timestamp); err != nil {
			return fmt.Errorf("confirm offline %s: %w", h.Username, err)
		}
	}

	if r.Acks != nil {
		r.Acks.Acknowledge(h)
	}
	r.Logger.Debug("action acknowledged",
		zap.String("remote", h.Username), zap.String("state", h.State.String()), zap.Bool("offline", offline))

	if h.State != hangout.Messaged {
		r.Navigator.Navigate(hangout.RouteFor(h.State))
	}
	return nil
}

// issued returns the locally recorded event the acknowledgement h refers to:
// the stored relationship with the same remote username and timestamp, or
// for an offline ack the matching offline queue entry. A zero timestamp on
// h matches any stored record for that username.
func (r *Reconciler) issued(ctx context.Context, h hangout.Hangout, offline bool) (*hangout.Hangout, error) {
	matches := func(c hangout.Hangout) bool {
		return c.Username == h.Username && (h.Timestamp == 0 || c.Timestamp == h.Timestamp)
	}
	stored, err := r.Store.Hangout(ctx, h.Username)
	if err != nil {
		return nil, err
	}
	if stored != nil && matches(*stored) {
		return stored, nil
	}
	if !offline {
		return nil, nil
	}
	queued, err := r.Store.OfflineHangouts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range queued {
		if matches(queued[i]) {
			return &queued[i], nil
		}
	}
	return nil, nil
}

// remote merges an action a remote party took towards the local user.
func (r *Reconciler) remote(ctx context.Context, h hangout.Hangout, forceUnread bool) error {
	viewing := !forceUnread && r.View.Current() == h.Username

	h = h.Clone()
	h.Read = viewing
	if h.Message != nil {
		h.Message.Read = viewing
	}

	hangouts, err := r.Store.SaveHangout(ctx, h)
	if err != nil {
		return fmt.Errorf("merge %s: %w", h.Username, err)
	}
	r.Sink.Dispatch(dispatch.HangoutsUpdated, dispatch.HangoutsPayload{Hangouts: hangouts})
	r.Sink.Dispatch(dispatch.HangoutUpdated, dispatch.HangoutPayload{Hangout: h})

	if h.Message != nil {
		msgs, err := r.Store.MergeMessage(ctx, h.Username, *h.Message)
		if err != nil {
			return fmt.Errorf("merge %s: %w", h.Username, err)
		}
		r.Sink.Dispatch(dispatch.MessagesUpdated, dispatch.MessagesPayload{Remote: h.Username, Messages: msgs})
	}

	if viewing {
		r.Navigator.Navigate(hangout.RouteFor(h.State))
		return nil
	}
	if h.State.Badged() {
		if err := r.Unread.Enqueue(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

// drainBacklog merges every backlog entry as unread and deletes its server
// record. A failing entry is reported and the rest still run.
func (r *Reconciler) drainBacklog(ctx context.Context, items []hangout.Hangout) {
	for _, h := range items {
		if err := r.apply(ctx, h, false, true); err != nil {
			r.Logger.Error("failed to merge backlog entry", zap.Error(err), zap.String("remote", h.Username))
			r.Sink.Dispatch(dispatch.ErrorReceived, dispatch.NewError("backlog", err))
			continue
		}
		if err := r.Backlog.DeleteBacklog(ctx, h); err != nil {
			if errors.Is(err, transport.ErrRecordNotFound) {
				r.Logger.Warn("backlog record already gone", zap.String("remote", h.Username), zap.Int64("timestamp", h.Timestamp))
			} else {
				r.Logger.Error("failed to delete backlog record", zap.Error(err), zap.String("remote", h.Username))
			}
			r.Sink.Dispatch(dispatch.ErrorReceived, dispatch.NewError("backlog.delete", err))
		}
	}
	r.Logger.Info("backlog merged", zap.Int("entries", len(items)))
}
