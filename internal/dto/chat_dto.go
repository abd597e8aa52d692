package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type CreateSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type SendMessageResponse struct {
	UserMsgId    uuid.UUID `json:"user_msg_id"`
	AiMsgId      uuid.UUID `json:"ai_msg_id"`
	AiText       string    `json:"ai_text"`
	AiTextChunks []string  `json:"ai_text_chunks"`
}

// StreamMessageRequest is the payload of the realtime "user:message" event.
type StreamMessageRequest struct {
	SessionId      uuid.UUID `json:"session_id"`
	UserId         uuid.UUID `json:"user_id"`
	Text           string    `json:"text"`
	IsFirstMessage bool      `json:"is_first_message"`
}

// TitleJobMessage is the watermill payload for best-effort session titling.
type TitleJobMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	AiText    string    `json:"ai_text"`
}
