package hangout

import "fmt"

// Command is an action the local user issues against a remote party.
type Command string

const (
	CmdInvite  Command = "INVITE"
	CmdAccept  Command = "ACCEPT"
	CmdDecline Command = "DECLINE"
	CmdBlock   Command = "BLOCK"
	CmdUnblock Command = "UNBLOCK"
	CmdMessage Command = "MESSAGE"
)

// Commands lists every client command.
var Commands = []Command{CmdInvite, CmdAccept, CmdDecline, CmdBlock, CmdUnblock, CmdMessage}

// Transition is the pair of states one command produces: the initiator's own
// label and the counterpart's label.
type Transition struct {
	Sender State
	Target State
}

var transitions = map[Command]Transition{
	CmdInvite:  {Sender: Invited, Target: Inviter},
	CmdAccept:  {Sender: Accepted, Target: Accepter},
	CmdDecline: {Sender: Declined, Target: Decliner},
	CmdBlock:   {Sender: Blocked, Target: Blocker},
	CmdUnblock: {Sender: Unblocked, Target: Unblocker},
	CmdMessage: {Sender: Messaged, Target: Messanger},
}

// ParseCommand converts user input into a Command.
func ParseCommand(s string) (Command, error) {
	c := Command(s)
	if _, ok := transitions[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}

// MapCommand returns the sender and target states for cmd.
// An unrecognized command yields ErrUnknownCommand; callers must not ignore it.
func MapCommand(cmd Command) (Transition, error) {
	t, ok := transitions[cmd]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}
	return t, nil
}

// CommandFor returns the command that produces the sender-perspective state s.
func CommandFor(s State) (Command, error) {
	for cmd, t := range transitions {
		if t.Sender == s {
			return cmd, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a sender state", ErrUnknownState, string(s))
}

func (c Command) String() string { return string(c) }
