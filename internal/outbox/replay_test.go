package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
)

func TestReplayPreservesOrder(t *testing.T) {
	st := testStore(t)
	tr := &mockTransport{}
	r := NewReplayer(st, tr, dispatch.New(), nil)
	ctx := context.Background()

	msg := &hangout.Message{Text: "hi", Timestamp: 2, Username: "alice"}
	st.QueueOffline(ctx, hangout.Hangout{Username: "bob", State: hangout.Invited, Timestamp: 1})
	st.QueueOffline(ctx, hangout.Hangout{Username: "bob", State: hangout.Messaged, Message: msg, Timestamp: 2})

	n, err := r.Replay(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("sent = %d, want 2", n)
	}
	calls := tr.sent()
	if calls[0].Command != hangout.CmdInvite || calls[0].Timestamp != 1 {
		t.Errorf("first = %+v, want INVITE@1", calls[0])
	}
	if calls[1].Command != hangout.CmdMessage || calls[1].Timestamp != 2 || calls[1].Message.Text != "hi" {
		t.Errorf("second = %+v, want MESSAGE@2", calls[1])
	}
	for _, c := range calls {
		if !c.Offline {
			t.Errorf("replayed action %+v not flagged offline", c)
		}
	}

	// The queue is cleared by OFFLINE_ACKN, not by replay.
	queued, _ := st.OfflineHangouts(ctx)
	if len(queued) != 2 {
		t.Errorf("queue = %+v, want untouched", queued)
	}
}

func TestReplayStopsAtFirstFailure(t *testing.T) {
	st := testStore(t)
	tr := &mockTransport{err: errors.New("down"), failAfter: 1}
	d := dispatch.New()
	r := NewReplayer(st, tr, d, nil)
	ctx := context.Background()

	ch, unsub := d.Subscribe("error.", 10)
	defer unsub()

	for ts := int64(1); ts <= 3; ts++ {
		st.QueueOffline(ctx, hangout.Hangout{Username: "bob", State: hangout.Messaged, Timestamp: ts})
	}

	n, err := r.Replay(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Errorf("sent = %d, want 1", n)
	}
	if len(tr.sent()) != 1 {
		t.Errorf("transport saw %d sends", len(tr.sent()))
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no error.received action")
	}
}

func TestReplayEmptyQueue(t *testing.T) {
	tr := &mockTransport{}
	r := NewReplayer(testStore(t), tr, dispatch.New(), nil)
	n, err := r.Replay(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Replay = %d, %v; want 0, nil", n, err)
	}
}

func TestStartReplaysOnReconnect(t *testing.T) {
	st := testStore(t)
	tr := &mockTransport{}
	d := dispatch.New()
	m := status.NewMachine(d)
	r := NewReplayer(st, tr, d, nil)
	ctx := context.Background()

	st.QueueOffline(ctx, hangout.Hangout{Username: "bob", State: hangout.Invited, Timestamp: 1})

	r.Start(ctx, d)
	defer r.Stop()

	for _, s := range []status.State{status.Connecting, status.Connected} {
		if err := m.Transition(s); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(2 * time.Second)
	for len(tr.sent()) == 0 {
		select {
		case <-deadline:
			t.Fatal("offline queue not replayed after connect")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// A status change that is not an edge into CONNECTED does not replay.
	m.Transition(status.Disconnected)
	time.Sleep(50 * time.Millisecond)
	if n := len(tr.sent()); n != 1 {
		t.Errorf("sends = %d, want 1", n)
	}
}
