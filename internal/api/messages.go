package api

import (
	"encoding/json"
	"time"

	"github.com/matheus3301/hangouts/internal/dispatch"
	"github.com/matheus3301/hangouts/internal/hangout"
)

// IssueCommandRequest asks the daemon to apply a command towards a remote user.
type IssueCommandRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Command  string `json:"command"`
	Text     string `json:"text,omitempty"`
}

// ConversationRequest names a remote user.
type ConversationRequest struct {
	Username string `json:"username"`
}

// WatchRequest filters streamed actions by kind prefix.
type WatchRequest struct {
	Prefix string `json:"prefix,omitempty"`
}

// Empty is the request and reply of calls that carry nothing.
type Empty struct{}

// HangoutsReply lists relationship records.
type HangoutsReply struct {
	Hangouts []hangout.Hangout `json:"hangouts"`
}

// MessagesReply lists the message log shared with Username.
type MessagesReply struct {
	Username string            `json:"username"`
	Messages []hangout.Message `json:"messages"`
}

// UnreadReply lists the unread queue with its badge count.
type UnreadReply struct {
	Unread []hangout.Hangout `json:"unread"`
	Count  int               `json:"count"`
}

// StatusReply describes the running daemon.
type StatusReply struct {
	Profile  string                 `json:"profile"`
	Username string                 `json:"username"`
	Status   string                 `json:"status"`
	UptimeMs int64                  `json:"uptimeMs"`
	Open     string                 `json:"open,omitempty"`
	Pending  *hangout.PendingAction `json:"pending,omitempty"`
	Offline  int                    `json:"offline"`
}

// ActionMessage is one streamed dispatch action. Payload keeps its JSON form.
type ActionMessage struct {
	ID        string          `json:"id"`
	Kind      dispatch.Kind   `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
