package hangout

import "errors"

var (
	// ErrUnknownCommand is returned for a command outside the closed command set.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownState is returned for a state outside the closed state set.
	ErrUnknownState = errors.New("unknown state")
	// ErrUnknownEventType is returned for a push event with an unrecognized type tag.
	ErrUnknownEventType = errors.New("unknown event type")
	// ErrInvalidUsername is returned for a username outside ^[A-Za-z0-9_-]{1,64}$.
	ErrInvalidUsername = errors.New("invalid username")
)
