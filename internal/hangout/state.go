package hangout

import "fmt"

// State is the relationship state between the local user and one remote party.
// Sender-perspective states label the initiator's copy; received-perspective
// states label the counterpart's copy of the same action.
type State string

const (
	Invited   State = "INVITED"
	Accepted  State = "ACCEPTED"
	Declined  State = "DECLINED"
	Blocked   State = "BLOCKED"
	Unblocked State = "UNBLOCKED"
	Messaged  State = "MESSAGED"

	Inviter   State = "INVITER"
	Accepter  State = "ACCEPTER"
	Decliner  State = "DECLINER"
	Blocker   State = "BLOCKER"
	Unblocker State = "UNBLOCKER"
	Messanger State = "MESSANGER"
)

// States lists every relationship state.
var States = []State{
	Invited, Accepted, Declined, Blocked, Unblocked, Messaged,
	Inviter, Accepter, Decliner, Blocker, Unblocker, Messanger,
}

// ParseState converts a wire string into a State.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
	return st, nil
}

// Valid reports whether s is one of the twelve known states.
func (s State) Valid() bool {
	return s.Acknowledged() || s.Received()
}

// Acknowledged reports whether s belongs to the sender (acknowledgement) perspective.
func (s State) Acknowledged() bool {
	switch s {
	case Invited, Accepted, Declined, Blocked, Unblocked, Messaged:
		return true
	}
	return false
}

// Received reports whether s belongs to the counterpart (received) perspective.
func (s State) Received() bool {
	switch s {
	case Inviter, Accepter, Decliner, Blocker, Unblocker, Messanger:
		return true
	}
	return false
}

// Badged reports whether a received event in state s counts towards the unread badge.
// DECLINER, BLOCKER and UNBLOCKER update the relationship but are never badged.
func (s State) Badged() bool {
	switch s {
	case Inviter, Accepter, Messanger:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// UnmarshalText rejects unknown states while decoding.
func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
