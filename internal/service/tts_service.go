package service

import (
	"context"
	"encoding/base64"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/pkg/apperror"
	"audibleai-be/internal/pkg/logger"
	"audibleai-be/pkg/tts"

	"github.com/patrickmn/go-cache"
)

// audioChunkSize is the number of decoded audio bytes per realtime chunk.
// Each slice is re-encoded to base64 before publishing.
const audioChunkSize = 4096

const (
	stopReasonInFlight   = "stop_requested"
	stopReasonNotPlaying = "not_playing"
)

const defaultSpeakingRate = 1.0

type ITtsService interface {
	Start(ctx context.Context, req *dto.TtsStartRequest) error
	Stop(ctx context.Context, req *dto.TtsStopRequest) error
}

type ttsService struct {
	provider     tts.SpeechProvider
	channel      DeliveryChannel
	logger       logger.ILogger
	inFlight     *cache.Cache
	defaultVoice string
}

func NewTtsService(
	provider tts.SpeechProvider,
	channel DeliveryChannel,
	log logger.ILogger,
	inFlight *cache.Cache,
	defaultVoice string,
) ITtsService {
	return &ttsService{
		provider:     provider,
		channel:      channel,
		logger:       log,
		inFlight:     inFlight,
		defaultVoice: defaultVoice,
	}
}

// Start synthesizes the text and pushes the audio to the caller as a
// sequence of fixed-size base64 chunks, then a progress marker and a ready
// marker. The returned error carries the failure; the event adapter decides
// how to surface it.
func (s *ttsService) Start(ctx context.Context, req *dto.TtsStartRequest) error {
	if req.MessageId == "" || req.Text == "" {
		return apperror.New(apperror.KindValidation, "messageId and text are required")
	}

	voice := req.Voice
	if voice == "" {
		voice = s.defaultVoice
	}
	rate := req.SpeakingRate
	if rate == 0 {
		rate = defaultSpeakingRate
	}
	// The default pitch is 0.0, so an omitted pitch needs no fixup.
	pitch := req.Pitch

	s.inFlight.Set(req.MessageId, req.UserId, cache.DefaultExpiration)
	defer s.inFlight.Delete(req.MessageId)

	audioB64, err := s.provider.Synthesize(ctx, tts.SynthesisRequest{
		Text:         req.Text,
		Voice:        voice,
		SpeakingRate: rate,
		Pitch:        pitch,
	})
	if err != nil {
		return apperror.Wrap(apperror.KindProvider, "speech synthesis failed", err)
	}
	if audioB64 == "" {
		return apperror.New(apperror.KindProvider, "speech provider returned no audio")
	}

	audio, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return apperror.Wrap(apperror.KindProvider, "speech provider returned malformed audio", err)
	}

	seq := 0
	for offset := 0; offset < len(audio); offset += audioChunkSize {
		end := offset + audioChunkSize
		if end > len(audio) {
			end = len(audio)
		}

		s.channel.Publish(req.UserId, EventTtsAudio, map[string]interface{}{
			"messageId": req.MessageId,
			"chunkSeq":  seq,
			"bytes":     base64.StdEncoding.EncodeToString(audio[offset:end]),
			"isLast":    end == len(audio),
		})
		seq++
	}

	// Whole-text synthesis produces a single logical sentence.
	s.channel.Publish(req.UserId, EventTtsProgress, map[string]interface{}{
		"messageId":     req.MessageId,
		"sentenceIndex": 0,
	})
	s.channel.Publish(req.UserId, EventTtsReady, map[string]interface{}{
		"messageId": req.MessageId,
	})

	return nil
}

// Stop is advisory. It never interrupts a chunk loop already in flight; it
// only acknowledges the request with a reason reflecting current state.
func (s *ttsService) Stop(ctx context.Context, req *dto.TtsStopRequest) error {
	if req.MessageId == "" {
		return apperror.New(apperror.KindValidation, "messageId is required")
	}

	reason := stopReasonNotPlaying
	if _, found := s.inFlight.Get(req.MessageId); found {
		reason = stopReasonInFlight
	}

	s.channel.Publish(req.UserId, EventTtsStopped, map[string]interface{}{
		"messageId": req.MessageId,
		"reason":    reason,
	})
	return nil
}
