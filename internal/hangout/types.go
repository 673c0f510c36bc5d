package hangout

// User identifies a chat participant.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Message types for locally synthesized notices.
const (
	// NoticeBlocker marks the notice shown when messaging a party that blocked us.
	NoticeBlocker = "blocker"
	// NoticeBlocked marks the notice shown after we blocked a party.
	NoticeBlocked = "blocked"
)

const (
	blockerNoticeText = "you are blocked"
	blockedNoticeText = "you blocked this user"
)

// Message is one chat line in the per-pair message log.
type Message struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
	Read      bool   `json:"read"`
	Delivered bool   `json:"delivered"`
	Type      string `json:"type,omitempty"`
}

// SameAs reports whether m and o identify the same log entry.
func (m Message) SameAs(o Message) bool {
	return m.Timestamp == o.Timestamp && m.Username == o.Username && m.Type == o.Type
}

// BlockerNotice builds the notice appended when the remote party has blocked the local user.
func BlockerNotice(author string, ts int64) Message {
	return Message{Text: blockerNoticeText, Timestamp: ts, Username: author, Read: true, Type: NoticeBlocker}
}

// BlockedNotice builds the notice appended once the local user's block is acknowledged.
func BlockedNotice(author string, ts int64) Message {
	return Message{Text: blockedNoticeText, Timestamp: ts, Username: author, Read: true, Delivered: true, Type: NoticeBlocked}
}

// Hangout is the current relationship state with one remote party. At most
// one exists per (local user, remote username); a newer one replaces it.
type Hangout struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	State     State    `json:"state"`
	Message   *Message `json:"message,omitempty"`
	Timestamp int64    `json:"timestamp"`
	Delivered bool     `json:"delivered"`
	Read      bool     `json:"read"`
}

// Remote returns the remote party of h.
func (h Hangout) Remote() User {
	return User{Username: h.Username, Email: h.Email}
}

// Clone returns a copy of h that does not share its message.
func (h Hangout) Clone() Hangout {
	if h.Message != nil {
		m := *h.Message
		h.Message = &m
	}
	return h
}

// PendingAction is a locally issued command awaiting acknowledgement.
type PendingAction struct {
	RequestID      string   `json:"requestId"`
	RemoteUsername string   `json:"remoteUsername"`
	RemoteEmail    string   `json:"remoteEmail"`
	Message        *Message `json:"message,omitempty"`
	Command        Command  `json:"command"`
	Timestamp      int64    `json:"timestamp"`
	// Offline is set when the action is replayed from the offline queue;
	// the server answers it with OFFLINE_ACKN instead of ACKHOWLEDGEMENT.
	Offline bool `json:"offline,omitempty"`
}
