package event

const (
	MessagePrivate = "private"
	MessageGroup   = "group"
)

// Sender roles in group messages.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Message struct {
	Header
	MessageType string `json:"message_type"`
	SubType     string `json:"sub_type"`
	MessageID   ID     `json:"message_id"`
	MessageSeq  ID     `json:"message_seq"`
	UserID      ID     `json:"user_id"`
	GroupID     ID     `json:"group_id"`
	Message     Chain  `json:"message"`
	RawMessage  string `json:"raw_message"`
	Font        int64  `json:"font"`
	Sender      Sender `json:"sender"`
}

// Kind distinguishes messages we received from echoes of our own.
func (m *Message) Kind() Kind {
	if m.PostType == PostMessageSent {
		return KindMessageSent
	}
	return KindMessage
}

func (m *Message) IsGroup() bool   { return m.MessageType == MessageGroup }
func (m *Message) IsPrivate() bool { return m.MessageType == MessagePrivate }

type Sender struct {
	UserID   ID     `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
	Role     string `json:"role"`
	Title    string `json:"title"`
	Sex      string `json:"sex"`
	Age      int    `json:"age"`
}

// DisplayName prefers the group card over the nickname.
func (s Sender) DisplayName() string {
	if s.Card != "" {
		return s.Card
	}
	return s.Nickname
}

// IsAdmin reports whether the sender owns or administers the group.
func (s Sender) IsAdmin() bool {
	return s.Role == RoleOwner || s.Role == RoleAdmin
}
