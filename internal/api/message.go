package api

import (
	"time"
)

// DefaultSender is shown when a reply carries no sender name.
const DefaultSender = "Someone"

// User identifies the author of a message.
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Metadata is the legacy envelope some replies still use.
type Metadata struct {
	SenderName string `json:"senderName,omitempty"`
	ReplyTo    string `json:"replyTo,omitempty"`
}

// Message is a message as returned by the messages endpoint. Originals have
// no parent; replies point at their original through ReplyTo or, in the
// legacy shape, Metadata.ReplyTo.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt string    `json:"createdAt,omitempty"`
	ReplyTo   string    `json:"replyTo,omitempty"`
	User      *User     `json:"user,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// ParentID returns the id of the message this one replies to, or "".
func (m Message) ParentID() string {
	if m.ReplyTo != "" {
		return m.ReplyTo
	}
	if m.Metadata != nil {
		return m.Metadata.ReplyTo
	}
	return ""
}

// IsReply reports whether m has a parent.
func (m Message) IsReply() bool {
	return m.ParentID() != ""
}

// Sender returns the display name of the author, preferring
// metadata.senderName, then user.name, then userName.
func (m Message) Sender() string {
	switch {
	case m.Metadata != nil && m.Metadata.SenderName != "":
		return m.Metadata.SenderName
	case m.User != nil && m.User.Name != "":
		return m.User.Name
	case m.UserName != "":
		return m.UserName
	default:
		return DefaultSender
	}
}

// Time parses CreatedAt. ok is false when it is missing or malformed.
func (m Message) Time() (t time.Time, ok bool) {
	if m.CreatedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, m.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Reply is the single shape every reply is reduced to before display.
type Reply struct {
	ID         string    `json:"id,omitempty"`
	Content    string    `json:"content"`
	ReplyTo    string    `json:"replyTo"`
	SenderName string    `json:"senderName"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

// Normalize reduces any accepted reply shape to a Reply. CreatedAt is zero
// when the server did not send a usable timestamp.
func (m Message) Normalize() Reply {
	r := Reply{
		ID:         m.ID,
		Content:    m.Content,
		ReplyTo:    m.ParentID(),
		SenderName: m.Sender(),
	}
	if t, ok := m.Time(); ok {
		r.CreatedAt = t
	}
	return r
}

// OutboundMessage is the body posted to the chat endpoint.
type OutboundMessage struct {
	User    User   `json:"user"`
	Content string `json:"content"`
}

// SendResult is the chat endpoint's answer. MessageID is assigned by the
// server and is what replies point at.
type SendResult struct {
	MessageID string `json:"messageId"`
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}
