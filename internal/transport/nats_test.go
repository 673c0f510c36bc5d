package transport_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/transport"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
)

func setupNats(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("nats container test skipped in -short mode")
	}
	ctx := context.Background()
	container, err := tcnats.Run(ctx, "nats:2.10")
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)
	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return url
}

// fakeServer answers the backlog subjects and records published commands.
func fakeServer(t *testing.T, url string) (*nats.Conn, <-chan hangout.PendingAction) {
	t.Helper()
	srv, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	backlog := hangout.ServerEvent{
		Type:     hangout.EventUnreadHangouts,
		Hangouts: []hangout.Hangout{{Username: "bob", State: hangout.Inviter, Timestamp: 1}},
	}
	_, err = srv.Subscribe("hangouts.alice.backlog", func(m *nats.Msg) {
		data, _ := json.Marshal(backlog)
		_ = m.Respond(data)
	})
	require.NoError(t, err)

	_, err = srv.Subscribe("hangouts.alice.backlog.delete", func(m *nats.Msg) {
		var req struct {
			Username string `json:"username"`
		}
		_ = json.Unmarshal(m.Data, &req)
		if req.Username == "ghost" {
			_ = m.Respond([]byte(`{"error":"not_found"}`))
			return
		}
		_ = m.Respond([]byte(`{"ok":true}`))
	})
	require.NoError(t, err)

	commands := make(chan hangout.PendingAction, 4)
	_, err = srv.Subscribe("hangouts.alice.commands", func(m *nats.Msg) {
		var a hangout.PendingAction
		if json.Unmarshal(m.Data, &a) == nil {
			commands <- a
		}
	})
	require.NoError(t, err)
	require.NoError(t, srv.Flush())
	return srv, commands
}

func nextEvent(t *testing.T, n *transport.NATS) hangout.ServerEvent {
	t.Helper()
	select {
	case ev := <-n.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
		return hangout.ServerEvent{}
	}
}

func TestNATSRoundTrip(t *testing.T) {
	url := setupNats(t)
	srv, commands := fakeServer(t, url)

	m := status.NewMachine(nil)
	n, err := transport.Dial(transport.Config{URL: url, Owner: "alice"}, m, nil)
	require.NoError(t, err)
	defer n.Close()

	// The backlog is pulled on connect.
	ev := nextEvent(t, n)
	assert.Equal(t, hangout.EventUnreadHangouts, ev.Type)
	require.Len(t, ev.Hangouts, 1)
	assert.Equal(t, "bob", ev.Hangouts[0].Username)
	assert.True(t, m.Connected())

	// Live pushes arrive on the same stream.
	live := hangout.ServerEvent{Type: hangout.EventHangout, Hangout: &hangout.Hangout{Username: "carol", State: hangout.Messanger, Timestamp: 2}}
	data, _ := json.Marshal(live)
	require.NoError(t, srv.Publish("hangouts.alice.events", data))
	ev = nextEvent(t, n)
	assert.Equal(t, hangout.EventHangout, ev.Type)
	assert.Equal(t, "carol", ev.Hangout.Username)

	// Commands reach the server.
	ctx := context.Background()
	require.NoError(t, n.Send(ctx, hangout.PendingAction{RequestID: "r1", RemoteUsername: "bob", Command: hangout.CmdAccept, Timestamp: 3}))
	select {
	case a := <-commands:
		assert.Equal(t, "r1", a.RequestID)
		assert.Equal(t, hangout.CmdAccept, a.Command)
	case <-time.After(5 * time.Second):
		t.Fatal("command not received")
	}

	require.NoError(t, n.DeleteBacklog(ctx, hangout.Hangout{Username: "bob", Timestamp: 1}))
	assert.ErrorIs(t, n.DeleteBacklog(ctx, hangout.Hangout{Username: "ghost", Timestamp: 9}), transport.ErrRecordNotFound)
}

// Consumers react to the first CONNECTED edge by sending (offline replay);
// the connection must already be usable when that edge is announced.
func TestNATSSendOnFirstConnectedEdge(t *testing.T) {
	url := setupNats(t)
	_, commands := fakeServer(t, url)

	d := dispatch.New()
	changes, unsub := d.Subscribe(string(dispatch.StatusChanged), 8)
	defer unsub()

	n := transport.New(transport.Config{URL: url, Owner: "alice"}, status.NewMachine(d), nil)
	defer n.Close()

	sent := make(chan error, 1)
	go func() {
		for act := range changes {
			if c, ok := act.Payload.(status.StatusChange); ok && c.Reconnected() {
				sent <- n.Send(context.Background(), hangout.PendingAction{RequestID: "replayed", Offline: true})
				return
			}
		}
	}()

	require.NoError(t, n.Connect())
	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no CONNECTED edge")
	}
	select {
	case a := <-commands:
		assert.Equal(t, "replayed", a.RequestID)
	case <-time.After(5 * time.Second):
		t.Fatal("replayed command not received")
	}
}

func TestNATSMalformedEventDropped(t *testing.T) {
	url := setupNats(t)
	srv, _ := fakeServer(t, url)

	n, err := transport.Dial(transport.Config{URL: url, Owner: "alice"}, status.NewMachine(nil), nil)
	require.NoError(t, err)
	defer n.Close()

	_ = nextEvent(t, n) // backlog

	require.NoError(t, srv.Publish("hangouts.alice.events", []byte(`{"type":"NOPE"}`)))
	require.NoError(t, srv.Publish("hangouts.alice.events", []byte(`{"type":"HANGOUT","hangout":{"username":"dave","state":"INVITER"}}`)))

	ev := nextEvent(t, n)
	assert.Equal(t, "dave", ev.Hangout.Username)
}
