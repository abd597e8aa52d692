package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/pkg/apperror"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
)

type ttsFixture struct {
	channel  *fakeChannel
	speech   *scriptedSpeech
	registry *gocache.Cache
	svc      ITtsService
	userId   uuid.UUID
}

func newTtsFixture(t *testing.T, speech *scriptedSpeech) *ttsFixture {
	t.Helper()
	channel := &fakeChannel{}
	registry := gocache.New(time.Minute, 0)
	return &ttsFixture{
		channel:  channel,
		speech:   speech,
		registry: registry,
		svc:      NewTtsService(speech, channel, nopLogger{}, registry, "en-US-Wavenet-D"),
		userId:   uuid.New(),
	}
}

func audioOfSize(n int) string {
	raw := make([]byte, n)
	for i := range raw {
		raw[i] = byte(i % 251)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestStartChunksAudioWithMonotonicSeq(t *testing.T) {
	// 10000 bytes split at 4096 gives chunks of 4096, 4096 and 1808.
	f := newTtsFixture(t, &scriptedSpeech{audio: audioOfSize(10000)})

	err := f.svc.Start(context.Background(), &dto.TtsStartRequest{
		MessageId: "msg-1",
		Text:      "read this aloud",
		UserId:    f.userId,
	})
	assert.NoError(t, err)

	audioEvents := f.channel.byEvent(EventTtsAudio)
	assert.Len(t, audioEvents, 3)

	wantSizes := []int{4096, 4096, 1808}
	for i, e := range audioEvents {
		assert.Equal(t, f.userId, e.UserID)
		assert.Equal(t, "msg-1", e.Data["messageId"])
		assert.Equal(t, i, e.Data["chunkSeq"])

		decoded, decErr := base64.StdEncoding.DecodeString(e.Data["bytes"].(string))
		assert.NoError(t, decErr)
		assert.Len(t, decoded, wantSizes[i])

		assert.Equal(t, i == len(audioEvents)-1, e.Data["isLast"])
	}
}

func TestStartEmitsProgressThenReadyAfterAudio(t *testing.T) {
	f := newTtsFixture(t, &scriptedSpeech{audio: audioOfSize(100)})

	err := f.svc.Start(context.Background(), &dto.TtsStartRequest{
		MessageId: "msg-2",
		Text:      "short",
		UserId:    f.userId,
	})
	assert.NoError(t, err)

	all := f.channel.captured()
	assert.Len(t, all, 3)
	assert.Equal(t, EventTtsAudio, all[0].Event)
	assert.Equal(t, EventTtsProgress, all[1].Event)
	assert.Equal(t, 0, all[1].Data["sentenceIndex"])
	assert.Equal(t, EventTtsReady, all[2].Event)
}

func TestStartAppliesVoiceAndRateDefaults(t *testing.T) {
	speech := &scriptedSpeech{audio: audioOfSize(10)}
	f := newTtsFixture(t, speech)

	err := f.svc.Start(context.Background(), &dto.TtsStartRequest{
		MessageId: "msg-3",
		Text:      "hello",
		UserId:    f.userId,
	})
	assert.NoError(t, err)

	assert.Equal(t, "en-US-Wavenet-D", speech.last.Voice)
	assert.Equal(t, 1.0, speech.last.SpeakingRate)
	assert.Equal(t, 0.0, speech.last.Pitch)
}

func TestStartKeepsExplicitVoiceSettings(t *testing.T) {
	speech := &scriptedSpeech{audio: audioOfSize(10)}
	f := newTtsFixture(t, speech)

	err := f.svc.Start(context.Background(), &dto.TtsStartRequest{
		MessageId:    "msg-4",
		Text:         "hello",
		Voice:        "en-GB-Wavenet-A",
		SpeakingRate: 1.5,
		Pitch:        -2.0,
		UserId:       f.userId,
	})
	assert.NoError(t, err)

	assert.Equal(t, "en-GB-Wavenet-A", speech.last.Voice)
	assert.Equal(t, 1.5, speech.last.SpeakingRate)
	assert.Equal(t, -2.0, speech.last.Pitch)
}

func TestStartSurfacesProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		speech *scriptedSpeech
	}{
		{name: "provider error", speech: &scriptedSpeech{err: errors.New("quota exceeded")}},
		{name: "empty payload", speech: &scriptedSpeech{audio: ""}},
		{name: "malformed payload", speech: &scriptedSpeech{audio: "%%% not base64 %%%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTtsFixture(t, tt.speech)

			err := f.svc.Start(context.Background(), &dto.TtsStartRequest{
				MessageId: "msg-5",
				Text:      "hello",
				UserId:    f.userId,
			})
			assert.Error(t, err)
			assert.Equal(t, apperror.KindProvider, apperror.KindOf(err))
			assert.Empty(t, f.channel.byEvent(EventTtsAudio))
		})
	}
}

func TestStartRequiresMessageIdAndText(t *testing.T) {
	f := newTtsFixture(t, &scriptedSpeech{audio: audioOfSize(10)})

	err := f.svc.Start(context.Background(), &dto.TtsStartRequest{Text: "hello", UserId: f.userId})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	err = f.svc.Start(context.Background(), &dto.TtsStartRequest{MessageId: "m", UserId: f.userId})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestStopReportsNotPlayingWhenIdle(t *testing.T) {
	f := newTtsFixture(t, &scriptedSpeech{})

	err := f.svc.Stop(context.Background(), &dto.TtsStopRequest{MessageId: "msg-6", UserId: f.userId})
	assert.NoError(t, err)

	stopped := f.channel.byEvent(EventTtsStopped)
	assert.Len(t, stopped, 1)
	assert.Equal(t, "msg-6", stopped[0].Data["messageId"])
	assert.Equal(t, "not_playing", stopped[0].Data["reason"])
}

func TestStopReportsInFlightSynthesis(t *testing.T) {
	f := newTtsFixture(t, &scriptedSpeech{})
	f.registry.Set("msg-7", f.userId, gocache.DefaultExpiration)

	err := f.svc.Stop(context.Background(), &dto.TtsStopRequest{MessageId: "msg-7", UserId: f.userId})
	assert.NoError(t, err)

	stopped := f.channel.byEvent(EventTtsStopped)
	assert.Len(t, stopped, 1)
	assert.Equal(t, "stop_requested", stopped[0].Data["reason"])
}

func TestStartClearsInFlightRegistry(t *testing.T) {
	f := newTtsFixture(t, &scriptedSpeech{audio: audioOfSize(10)})

	err := f.svc.Start(context.Background(), &dto.TtsStartRequest{
		MessageId: "msg-8",
		Text:      "hello",
		UserId:    f.userId,
	})
	assert.NoError(t, err)

	_, found := f.registry.Get("msg-8")
	assert.False(t, found)
}
