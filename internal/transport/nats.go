package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Config addresses the push channel of one local user.
type Config struct {
	URL string
	// SubjectPrefix roots every subject; the owner's username is appended.
	SubjectPrefix  string
	Owner          string
	ReconnectWait  time.Duration
	RequestTimeout time.Duration
}

// StatusSink receives connectivity transitions.
type StatusSink interface {
	Transition(to status.State) error
}

// NATS is the push-channel transport. Connection callbacks drive the status
// machine; every edge into CONNECTED pulls the backlog onto the event stream.
type NATS struct {
	cfg  Config
	conn atomic.Pointer[nats.Conn]
	sub  atomic.Pointer[nats.Subscription]
	// ready is set once the events subscription exists. Connect callbacks
	// that fire earlier are ignored; Connect announces that edge itself.
	ready  atomic.Bool
	status StatusSink
	logger *zap.Logger
	events chan hangout.ServerEvent
	done   chan struct{}
}

// New creates an unconnected transport. Sends fail with ErrNotConnected
// until Connect succeeds.
func New(cfg Config, st StatusSink, logger *zap.Logger) *NATS {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "hangouts"
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &NATS{
		cfg:    cfg,
		status: st,
		logger: logger,
		events: make(chan hangout.ServerEvent, 256),
		done:   make(chan struct{}),
	}
}

// Dial creates a transport and connects it.
func Dial(cfg Config, st StatusSink, logger *zap.Logger) (*NATS, error) {
	n := New(cfg, st, logger)
	if err := n.Connect(); err != nil {
		return nil, err
	}
	return n, nil
}

// Connect connects to the configured URL. An unreachable server is not an
// error: the client keeps retrying in the background and reports
// DISCONNECTED meanwhile.
func (n *NATS) Connect() error {
	cfg := n.cfg
	n.transition(status.Connecting)
	conn, err := nats.Connect(cfg.URL,
		nats.Name("hangoutd-"+cfg.Owner),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.RetryOnFailedConnect(true),
		nats.ConnectHandler(n.onConnect),
		nats.ReconnectHandler(n.onConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				n.logger.Warn("push channel disconnected", zap.Error(err))
			}
			n.transition(status.Disconnected)
		}),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.URL, err)
	}
	n.conn.Store(conn)

	sub, err := conn.Subscribe(n.subject("events"), n.onEvent)
	if err != nil {
		conn.Close()
		return fmt.Errorf("subscribe events: %w", err)
	}
	n.sub.Store(sub)

	if conn.IsConnected() {
		if err := conn.FlushTimeout(cfg.RequestTimeout); err != nil {
			n.logger.Warn("flush after subscribe failed", zap.Error(err))
		}
	} else {
		n.transition(status.Disconnected)
	}
	n.ready.Store(true)
	if conn.IsConnected() {
		// A callback racing this one loses the CONNECTED transition.
		n.onConnect(conn)
	}
	return nil
}

// Events is the stream of server events, live pushes and backlog batches alike.
func (n *NATS) Events() <-chan hangout.ServerEvent {
	return n.events
}

// Send publishes action on the commands subject.
func (n *NATS) Send(ctx context.Context, action hangout.PendingAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn := n.conn.Load()
	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}
	data, err := EncodeAction(action)
	if err != nil {
		return err
	}
	if err := conn.Publish(n.subject("commands"), data); err != nil {
		return fmt.Errorf("publish command: %w", err)
	}
	return nil
}

// DeleteBacklog asks the server to drop the backlog record for h.
func (n *NATS) DeleteBacklog(ctx context.Context, h hangout.Hangout) error {
	conn := n.conn.Load()
	if conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(deleteRequest{Username: h.Username, Timestamp: h.Timestamp})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, n.cfg.RequestTimeout)
	defer cancel()
	msg, err := conn.RequestWithContext(ctx, n.subject("backlog.delete"), data)
	if err != nil {
		return fmt.Errorf("delete backlog %s@%d: %w", h.Username, h.Timestamp, err)
	}
	return decodeDeleteReply(msg.Data)
}

// FetchBacklog requests the UNREAD_HANGOUTS batch held for the owner.
func (n *NATS) FetchBacklog(ctx context.Context) (hangout.ServerEvent, error) {
	conn := n.conn.Load()
	if conn == nil {
		return hangout.ServerEvent{}, ErrNotConnected
	}
	return n.fetchBacklog(ctx, conn)
}

func (n *NATS) fetchBacklog(ctx context.Context, conn *nats.Conn) (hangout.ServerEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.RequestTimeout)
	defer cancel()
	msg, err := conn.RequestWithContext(ctx, n.subject("backlog"), nil)
	if err != nil {
		return hangout.ServerEvent{}, fmt.Errorf("fetch backlog: %w", err)
	}
	ev, err := DecodeEvent(msg.Data)
	if err != nil {
		return hangout.ServerEvent{}, err
	}
	if ev.Type != hangout.EventUnreadHangouts {
		return hangout.ServerEvent{}, fmt.Errorf("fetch backlog: unexpected %s reply", ev.Type)
	}
	return ev, nil
}

// Close closes the connection and stops delivering events.
func (n *NATS) Close() error {
	select {
	case <-n.done:
		return nil
	default:
	}
	close(n.done)
	if sub := n.sub.Load(); sub != nil {
		_ = sub.Unsubscribe()
	}
	if conn := n.conn.Load(); conn != nil {
		conn.Close()
	}
	return nil
}

func (n *NATS) subject(suffix string) string {
	return n.cfg.SubjectPrefix + "." + n.cfg.Owner + "." + suffix
}

func (n *NATS) transition(to status.State) bool {
	if err := n.status.Transition(to); err != nil {
		n.logger.Debug("status transition skipped", zap.String("to", string(to)), zap.Error(err))
		return false
	}
	return true
}

// onConnect runs for the initial connect and every reconnect. Only the
// callback that wins the CONNECTED transition fetches the backlog.
func (n *NATS) onConnect(conn *nats.Conn) {
	if !n.ready.Load() {
		return
	}
	if !n.transition(status.Connected) {
		return
	}
	n.logger.Info("push channel connected", zap.String("url", conn.ConnectedUrlRedacted()))
	go n.pullBacklog(conn)
}

func (n *NATS) pullBacklog(conn *nats.Conn) {
	ev, err := n.fetchBacklog(context.Background(), conn)
	if errors.Is(err, nats.ErrNoResponders) {
		n.logger.Warn("no backlog responder on the server")
		return
	}
	if err != nil {
		n.logger.Error("failed to fetch backlog", zap.Error(err))
		return
	}
	if len(ev.Hangouts) == 0 {
		return
	}
	n.push(ev)
}

func (n *NATS) onEvent(m *nats.Msg) {
	ev, err := DecodeEvent(m.Data)
	if err != nil {
		n.logger.Warn("dropping malformed event", zap.Error(err), zap.String("subject", m.Subject))
		return
	}
	n.push(ev)
}

func (n *NATS) push(ev hangout.ServerEvent) {
	select {
	case n.events <- ev:
	case <-n.done:
	}
}
