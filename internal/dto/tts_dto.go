package dto

import "github.com/google/uuid"

// TtsStartRequest is the payload of the realtime "tts:start" event.
// Voice, rate and pitch are optional; the orchestrator applies defaults.
type TtsStartRequest struct {
	MessageId    string    `json:"messageId"`
	Text         string    `json:"text"`
	Voice        string    `json:"voice"`
	SpeakingRate float64   `json:"speakingRate"`
	Pitch        float64   `json:"pitch"`
	UserId       uuid.UUID `json:"userId"`
}

// TtsStopRequest is the payload of the realtime "tts:stop" event.
type TtsStopRequest struct {
	MessageId string    `json:"messageId"`
	UserId    uuid.UUID `json:"userId"`
}
