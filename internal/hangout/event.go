package hangout

import "fmt"

// EventType tags a push-channel event.
type EventType string

const (
	// EventAcknowledgement confirms a locally issued action. The spelling is part of the wire contract.
	EventAcknowledgement EventType = "ACKHOWLEDGEMENT"
	// EventHangout carries a remote party's action delivered live.
	EventHangout EventType = "HANGOUT"
	// EventUnreadHangouts carries remote events that arrived while the local user was offline.
	EventUnreadHangouts EventType = "UNREAD_HANGOUTS"
	// EventOfflineAck confirms an action that was queued while offline.
	EventOfflineAck EventType = "OFFLINE_ACKN"
)

// ParseEventType converts a wire tag into an EventType.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(s); t {
	case EventAcknowledgement, EventHangout, EventUnreadHangouts, EventOfflineAck:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	_, err := ParseEventType(string(t))
	return err == nil
}

// UnmarshalText rejects unknown event types while decoding.
func (t *EventType) UnmarshalText(b []byte) error {
	et, err := ParseEventType(string(b))
	if err != nil {
		return err
	}
	*t = et
	return nil
}

// ServerEvent is one signal received from the push channel.
type ServerEvent struct {
	Type     EventType `json:"type"`
	Hangout  *Hangout  `json:"hangout,omitempty"`
	Hangouts []Hangout `json:"hangouts,omitempty"`
}
