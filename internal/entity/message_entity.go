package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageSender string

const (
	MessageSenderUser MessageSender = "USER"
	MessageSenderAI   MessageSender = "AI"
)

// Message is immutable once created; ordering within a session is by
// CreatedAt ascending. The store does not enforce user/AI alternation.
type Message struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Sender    MessageSender
	Text      string
	CreatedAt time.Time
}
