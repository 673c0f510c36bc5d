// Package transport carries pending actions to the server and server events
// back to the reconciler over a NATS push channel.
package transport

import "errors"

var (
	// ErrRecordNotFound is returned when the server has no backlog record to delete.
	ErrRecordNotFound = errors.New("backlog record not found")
	// ErrNotConnected is returned when sending while the push channel is down.
	ErrNotConnected = errors.New("transport not connected")
)
