package dispatch

import (
	"testing"
	"time"
)

func TestDispatchSubscribe(t *testing.T) {
	d := New()
	ch, unsub := d.Subscribe("hangouts.", 10)
	defer unsub()

	d.Dispatch(HangoutsUpdated, HangoutsPayload{})

	select {
	case act := <-ch:
		if act.Kind != HangoutsUpdated {
			t.Errorf("got kind %q, want %q", act.Kind, HangoutsUpdated)
		}
		if act.ID == "" {
			t.Error("action has no id")
		}
		if act.Timestamp.IsZero() {
			t.Error("action has no timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for action")
	}
}

func TestPrefixFiltering(t *testing.T) {
	d := New()
	ch, unsub := d.Subscribe("connection.", 10)
	defer unsub()

	d.Dispatch(MessagesUpdated, nil)
	d.Dispatch(StatusChanged, nil)

	select {
	case act := <-ch:
		if act.Kind != StatusChanged {
			t.Errorf("got kind %q, want %q", act.Kind, StatusChanged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for action")
	}

	select {
	case act := <-ch:
		t.Errorf("unexpected action: %v", act)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyPrefixMatchesAll(t *testing.T) {
	d := New()
	ch, unsub := d.Subscribe("", len(Kinds))
	defer unsub()

	for _, k := range Kinds {
		d.Dispatch(k, nil)
	}
	for range Kinds {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("missing action")
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	d := New()
	ch, unsub := d.Subscribe("", 10)
	unsub()

	d.Dispatch(ErrorReceived, nil)

	select {
	case act := <-ch:
		t.Errorf("received action after unsubscribe: %v", act)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFullSubscriberDoesNotBlock(t *testing.T) {
	d := New()
	_, unsub := d.Subscribe("", 1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Dispatch(UnreadUpdated, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full subscriber")
	}
}

func TestSinkFunc(t *testing.T) {
	var got Kind
	var s Sink = SinkFunc(func(k Kind, _ any) { got = k })
	s.Dispatch(RouteChanged, nil)
	if got != RouteChanged {
		t.Errorf("got %q", got)
	}
}

func TestNewError(t *testing.T) {
	p := NewError("send", errBoom)
	if p.Message != "boom" || p.Op != "send" || p.Err != errBoom {
		t.Errorf("payload = %+v", p)
	}
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
