package tts

import "context"

// SynthesisRequest carries the text and voice parameters for one synthesis call.
type SynthesisRequest struct {
	Text         string
	Voice        string
	SpeakingRate float64
	Pitch        float64
}

// SpeechProvider is an opaque client producing encoded audio for given
// text + voice parameters. The payload is the provider's base64-encoded
// audio content; callers decode it.
type SpeechProvider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (string, error)
}
