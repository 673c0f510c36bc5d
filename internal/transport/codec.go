package transport

import (
	"encoding/json"
	"fmt"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// Backlog delete reply error codes.
const codeNotFound = "not_found"

// deleteRequest asks the server to drop one backlog record.
type deleteRequest struct {
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// deleteReply is the server's answer to a deleteRequest.
type deleteReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// EncodeAction serializes a pending action for the commands subject.
func EncodeAction(a hangout.PendingAction) ([]byte, error) {
	return json.Marshal(a)
}

// DecodeEvent parses a push-channel payload. The type tag is validated.
func DecodeEvent(data []byte) (hangout.ServerEvent, error) {
	var ev hangout.ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return hangout.ServerEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if !ev.Type.Valid() {
		return hangout.ServerEvent{}, fmt.Errorf("decode event: %w: %q", hangout.ErrUnknownEventType, ev.Type)
	}
	return ev, nil
}

func decodeDeleteReply(data []byte) error {
	var r deleteReply
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("decode backlog reply: %w", err)
	}
	switch {
	case r.OK:
		return nil
	case r.Error == codeNotFound:
		return ErrRecordNotFound
	default:
		return fmt.Errorf("backlog delete: %s", r.Error)
	}
}
