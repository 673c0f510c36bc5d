package dispatch

import (
	"time"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// Kind names what changed. Subscribers filter on a prefix of it.
type Kind string

const (
	HangoutsUpdated       Kind = "hangouts.updated"
	HangoutUpdated        Kind = "hangout.updated"
	MessagesUpdated       Kind = "messages.updated"
	UnreadUpdated         Kind = "unread.updated"
	ServerMessageReceived Kind = "server.message_received"
	ErrorReceived         Kind = "error.received"
	RouteChanged          Kind = "route.changed"
	StatusChanged         Kind = "connection.status_changed"
)

// Kinds lists every action kind.
var Kinds = []Kind{
	HangoutsUpdated, HangoutUpdated, MessagesUpdated, UnreadUpdated,
	ServerMessageReceived, ErrorReceived, RouteChanged, StatusChanged,
}

// Action is one notification emitted after a store mutation or engine event.
type Action struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// HangoutsPayload carries the full relationship collection.
type HangoutsPayload struct {
	Hangouts []hangout.Hangout `json:"hangouts"`
}

// HangoutPayload carries the record that was just written.
type HangoutPayload struct {
	Hangout hangout.Hangout `json:"hangout"`
}

// MessagesPayload carries the full message log shared with Remote.
type MessagesPayload struct {
	Remote   string            `json:"remote"`
	Messages []hangout.Message `json:"messages"`
}

// UnreadPayload carries the unread queue and the derived badge count.
type UnreadPayload struct {
	Unread []hangout.Hangout `json:"unread"`
	Count  int               `json:"count"`
}

// ServerMessagePayload carries an incoming push-channel event as received.
type ServerMessagePayload struct {
	Event hangout.ServerEvent `json:"event"`
}

// ErrorPayload carries a transport or backend error.
type ErrorPayload struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// NewError builds an ErrorPayload for err raised by op.
func NewError(op string, err error) ErrorPayload {
	return ErrorPayload{Op: op, Message: err.Error(), Err: err}
}

// Navigator returns a hangout.Navigator that emits every route change as a
// route.changed action on sink.
func Navigator(sink Sink) hangout.Navigator {
	return hangout.NavigatorFunc(func(r hangout.Route) {
		sink.Dispatch(RouteChanged, r)
	})
}
