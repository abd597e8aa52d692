package chirp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"audibleai-be/pkg/tts"
)

type ChirpProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

var _ tts.SpeechProvider = &ChirpProvider{}

func NewChirpProvider(endpoint, apiKey string) *ChirpProvider {
	return &ChirpProvider{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chirpInput struct {
	Text string `json:"text"`
}

type chirpVoice struct {
	Name string `json:"name"`
}

type chirpAudioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate"`
	Pitch         float64 `json:"pitch"`
}

type chirpRequest struct {
	Input       chirpInput       `json:"input"`
	Voice       chirpVoice       `json:"voice"`
	AudioConfig chirpAudioConfig `json:"audioConfig"`
}

type chirpResponse struct {
	AudioContent string `json:"audioContent"`
}

func (p *ChirpProvider) Synthesize(ctx context.Context, req tts.SynthesisRequest) (string, error) {
	payload := chirpRequest{
		Input: chirpInput{Text: req.Text},
		Voice: chirpVoice{Name: req.Voice},
		AudioConfig: chirpAudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  req.SpeakingRate,
			Pitch:         req.Pitch,
		},
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.Endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("tts request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var chirpRes chirpResponse
	if err := json.Unmarshal(resBody, &chirpRes); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return chirpRes.AudioContent, nil
}
