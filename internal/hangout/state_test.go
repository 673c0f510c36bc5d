package hangout

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStatePerspectivesArePartitioned(t *testing.T) {
	for _, s := range States {
		if s.Acknowledged() == s.Received() {
			t.Errorf("state %s: acknowledged=%v received=%v, want exactly one", s, s.Acknowledged(), s.Received())
		}
	}
}

func TestBadgedStates(t *testing.T) {
	want := map[State]bool{Inviter: true, Accepter: true, Messanger: true}
	for _, s := range States {
		if s.Badged() != want[s] {
			t.Errorf("%s.Badged() = %v, want %v", s, s.Badged(), want[s])
		}
	}
}

func TestServerEventDecode(t *testing.T) {
	raw := `{"type":"ACKHOWLEDGEMENT","hangout":{"username":"bob","email":"bob@x","state":"INVITED","timestamp":42,"message":{"text":"hi","timestamp":42,"username":"alice"}}}`

	var evt ServerEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		t.Fatal(err)
	}
	if evt.Type != EventAcknowledgement {
		t.Errorf("type = %q, want ACKHOWLEDGEMENT", evt.Type)
	}
	if evt.Hangout == nil || evt.Hangout.State != Invited || evt.Hangout.Username != "bob" {
		t.Fatalf("hangout = %+v", evt.Hangout)
	}
	if evt.Hangout.Message == nil || evt.Hangout.Message.Text != "hi" {
		t.Errorf("message = %+v", evt.Hangout.Message)
	}
}

func TestServerEventDecodeRejectsUnknownTags(t *testing.T) {
	var evt ServerEvent
	err := json.Unmarshal([]byte(`{"type":"PING"}`), &evt)
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("unknown type error = %v, want ErrUnknownEventType", err)
	}

	err = json.Unmarshal([]byte(`{"type":"HANGOUT","hangout":{"username":"bob","state":"FRIEND"}}`), &evt)
	if !errors.Is(err, ErrUnknownState) {
		t.Errorf("unknown state error = %v, want ErrUnknownState", err)
	}
}

func TestRouteFor(t *testing.T) {
	r := RouteFor(Accepter)
	if r.FeatureRoute != "/ACCEPTER" || r.Route != RootRoute {
		t.Errorf("RouteFor(ACCEPTER) = %+v", r)
	}
}
