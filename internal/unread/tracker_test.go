package unread

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return store.New(db, "alice")
}

func TestEnqueueCountMarkRead(t *testing.T) {
	st := testStore(t)
	d := dispatch.New()
	tr := NewTracker(st, d, nil)
	ctx := context.Background()

	ch, unsub := d.Subscribe("unread.", 10)
	defer unsub()

	if err := tr.Enqueue(ctx, hangout.Hangout{Username: "bob", State: hangout.Inviter, Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	if err := tr.Enqueue(ctx, hangout.Hangout{Username: "carol", State: hangout.Messanger, Timestamp: 2}); err != nil {
		t.Fatal(err)
	}

	n, err := tr.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}

	select {
	case act := <-ch:
		p := act.Payload.(dispatch.UnreadPayload)
		if p.Count != 1 {
			t.Errorf("first announce count = %d, want 1", p.Count)
		}
	case <-time.After(time.Second):
		t.Fatal("no unread.updated action")
	}

	if err := tr.MarkRead(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	n, _ = tr.Count(ctx)
	if n != 1 {
		t.Errorf("Count after MarkRead = %d, want 1", n)
	}
}

func TestEnqueueForcesUnreadFlag(t *testing.T) {
	st := testStore(t)
	tr := NewTracker(st, dispatch.New(), nil)
	ctx := context.Background()

	tr.Enqueue(ctx, hangout.Hangout{Username: "bob", State: hangout.Accepter, Timestamp: 3, Read: true})
	n, _ := tr.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestEnqueueIgnoresRedelivery(t *testing.T) {
	st := testStore(t)
	tr := NewTracker(st, dispatch.New(), nil)
	ctx := context.Background()

	h := hangout.Hangout{Username: "bob", State: hangout.Inviter, Timestamp: 5}
	tr.Enqueue(ctx, h)
	tr.Enqueue(ctx, h)

	items, err := tr.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Errorf("len = %d, want 1", len(items))
	}
}

func TestMarkReadLastEntryRemovesKey(t *testing.T) {
	st := testStore(t)
	tr := NewTracker(st, dispatch.New(), nil)
	ctx := context.Background()

	tr.Enqueue(ctx, hangout.Hangout{Username: "bob", State: hangout.Inviter, Timestamp: 1})
	if err := tr.MarkRead(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	ok, err := st.HasUnread(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unread key should be removed, not left as an empty collection")
	}

	// Idempotent on a missing key.
	if err := tr.MarkRead(ctx, "bob"); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if ok, _ := st.HasUnread(ctx); ok {
		t.Error("MarkRead on a missing key recreated it")
	}
}
