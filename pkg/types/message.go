package types

import "fmt"

type SenderRole string

const (
	SENDER_ROLE_USER     SenderRole = "user"
	SENDER_ROLE_BUSINESS SenderRole = "business"
	SENDER_ROLE_BOT      SenderRole = "bot"
)

type MessageType string

const (
	MESSAGE_TYPE_TEXT    MessageType = "text"
	MESSAGE_TYPE_IMAGE   MessageType = "image"
	MESSAGE_TYPE_FILE    MessageType = "file"
	MESSAGE_TYPE_STICKER MessageType = "sticker"
)

// Message is one entry inside a parsed conversation. Within a document messages
// are strictly timestamp ordered and de-duplicated. Timestamp keeps the
// export's millisecond precision so near-simultaneous messages stay distinct.
type Message struct {
	ID          string       `json:"id"`
	SenderID    string       `json:"sender_id"`
	SenderName  string       `json:"sender_name"`
	SenderRole  SenderRole   `json:"sender_role"`
	Content     string       `json:"content"`
	Type        MessageType  `json:"type"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Timestamp   int64        `json:"timestamp"`
}

type Attachment struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// DedupKey collapses messages that share timestamp, content and sender.
func (m *Message) DedupKey() string {
	return fmt.Sprintf("%d:%s:%s", m.Timestamp, m.SenderName, m.Content)
}
