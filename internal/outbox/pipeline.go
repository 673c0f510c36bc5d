// Package outbox turns locally issued commands into optimistic store writes
// and transport sends, and replays what was queued while disconnected.
package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/store"
	"go.uber.org/zap"
)

// Transport delivers a pending action to the server.
type Transport interface {
	Send(ctx context.Context, action hangout.PendingAction) error
}

// Connectivity reports whether the push channel is up.
type Connectivity interface {
	Connected() bool
}

// Pipeline applies locally issued commands.
type Pipeline struct {
	store     *store.Store
	transport Transport
	conn      Connectivity
	sink      dispatch.Sink
	logger    *zap.Logger

	mu      sync.Mutex
	lastTS  int64
	pending *hangout.PendingAction
	now     func() time.Time
}

// NewPipeline creates a pipeline issuing commands on behalf of the store's owner.
func NewPipeline(st *store.Store, tr Transport, conn Connectivity, sink dispatch.Sink, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:     st,
		transport: tr,
		conn:      conn,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// IssueCommand applies cmd towards remote. Store writes happen before the
// send so they are visible immediately. A failed send is reported as an
// error.received action and the event is queued for replay; it is not
// returned as an error.
func (p *Pipeline) IssueCommand(ctx context.Context, remote hangout.User, cmd hangout.Command, text string) error {
	tr, err := hangout.MapCommand(cmd)
	if err != nil {
		return err
	}
	if err := hangout.ValidateUsername(remote.Username); err != nil {
		return err
	}

	ts := p.stamp()
	owner := p.store.Owner()

	var msg *hangout.Message
	if text != "" {
		msg = &hangout.Message{Text: text, Timestamp: ts, Username: owner, Read: true}
	}

	if msg != nil {
		existing, err := p.store.Hangout(ctx, remote.Username)
		if err != nil {
			return fmt.Errorf("issue %s to %s: %w", cmd, remote.Username, err)
		}
		if existing != nil && existing.State == hangout.Blocker {
			return p.blocked(ctx, remote.Username, *msg)
		}
	}

	h := hangout.Hangout{
		Username:  remote.Username,
		Email:     remote.Email,
		State:     tr.Sender,
		Message:   msg,
		Timestamp: ts,
		Read:      true,
	}
	action := hangout.PendingAction{
		RequestID:      uuid.NewString(),
		RemoteUsername: remote.Username,
		RemoteEmail:    remote.Email,
		Message:        msg,
		Command:        cmd,
		Timestamp:      ts,
	}

	if !p.conn.Connected() {
		p.logger.Info("disconnected; queueing command",
			zap.String("remote", remote.Username), zap.String("command", cmd.String()), zap.Int64("timestamp", ts))
		return p.queueOffline(ctx, h)
	}

	hangouts, err := p.store.SaveHangout(ctx, h)
	if err != nil {
		return fmt.Errorf("issue %s to %s: %w", cmd, remote.Username, err)
	}
	p.sink.Dispatch(dispatch.HangoutsUpdated, dispatch.HangoutsPayload{Hangouts: hangouts})
	p.sink.Dispatch(dispatch.HangoutUpdated, dispatch.HangoutPayload{Hangout: h})

	if msg != nil {
		msgs, err := p.store.AppendMessage(ctx, remote.Username, *msg)
		if err != nil {
			return fmt.Errorf("issue %s to %s: %w", cmd, remote.Username, err)
		}
		p.sink.Dispatch(dispatch.MessagesUpdated, dispatch.MessagesPayload{Remote: remote.Username, Messages: msgs})
	}

	p.track(action)

	if err := p.transport.Send(ctx, action); err != nil {
		p.logger.Error("failed to send command",
			zap.Error(err), zap.String("request_id", action.RequestID), zap.String("remote", remote.Username))
		p.sink.Dispatch(dispatch.ErrorReceived, dispatch.NewError("send", err))
		return p.queueOffline(ctx, h)
	}

	p.logger.Info("command sent",
		zap.String("request_id", action.RequestID),
		zap.String("remote", remote.Username),
		zap.String("command", cmd.String()))
	return nil
}

// Pending returns the command awaiting acknowledgement, if any.
func (p *Pipeline) Pending() *hangout.PendingAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return nil
	}
	a := *p.pending
	return &a
}

// Acknowledge clears the pending command if h confirms it.
func (p *Pipeline) Acknowledge(h hangout.Hangout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil && p.pending.RemoteUsername == h.Username && p.pending.Timestamp == h.Timestamp {
		p.pending = nil
	}
}

// track records action as the one awaiting acknowledgement. A previous
// unacknowledged command is overwritten and flagged.
// TODO: decide between rejecting and queueing a second in-flight command once
// the server protocol defines how it orders overlapping acknowledgements.
func (p *Pipeline) track(action hangout.PendingAction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		p.logger.Warn("command issued while another is pending",
			zap.String("pending_request_id", p.pending.RequestID),
			zap.String("pending_remote", p.pending.RemoteUsername),
			zap.String("request_id", action.RequestID))
	}
	p.pending = &action
}

// blocked records a message the remote party will never receive, followed by
// the local notice explaining why. Nothing is sent.
func (p *Pipeline) blocked(ctx context.Context, remote string, msg hangout.Message) error {
	if _, err := p.store.AppendMessage(ctx, remote, msg); err != nil {
		return fmt.Errorf("message %s: %w", remote, err)
	}
	msgs, err := p.store.AppendMessage(ctx, remote, hangout.BlockerNotice(p.store.Owner(), msg.Timestamp))
	if err != nil {
		return fmt.Errorf("message %s: %w", remote, err)
	}
	p.logger.Info("remote party blocked us; message kept local", zap.String("remote", remote))
	p.sink.Dispatch(dispatch.MessagesUpdated, dispatch.MessagesPayload{Remote: remote, Messages: msgs})
	return nil
}

func (p *Pipeline) queueOffline(ctx context.Context, h hangout.Hangout) error {
	if _, err := p.store.QueueOffline(ctx, h); err != nil {
		return fmt.Errorf("queue offline %s: %w", h.Username, err)
	}
	if h.Message != nil {
		if _, err := p.store.AppendOfflineMessage(ctx, h.Username, *h.Message); err != nil {
			return fmt.Errorf("queue offline %s: %w", h.Username, err)
		}
	}
	p.sink.Dispatch(dispatch.HangoutUpdated, dispatch.HangoutPayload{Hangout: h})
	return nil
}

// stamp returns the current time in milliseconds, bumped so successive
// commands never share a timestamp.
func (p *Pipeline) stamp() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts := p.now().UnixMilli()
	if ts <= p.lastTS {
		ts = p.lastTS + 1
	}
	p.lastTS = ts
	return ts
}
