package service

import "github.com/google/uuid"

// Realtime event names pushed through the delivery channel.
const (
	EventAIResponseChunk    = "ai:response:chunk"
	EventAIResponseEnd      = "ai:response:end"
	EventSessionTitleUpdate = "session:title:update"
	EventTtsAudio           = "tts:audio"
	EventTtsProgress        = "tts:progress"
	EventTtsReady           = "tts:ready"
	EventTtsError           = "tts:error"
	EventTtsStopped         = "tts:stopped"
)

// DeliveryChannel is a room-addressed publish primitive keyed by user
// identity. The websocket hub implements it; orchestrators receive it at
// construction time and never look the transport up dynamically.
type DeliveryChannel interface {
	Publish(userID uuid.UUID, event string, data interface{})
}
