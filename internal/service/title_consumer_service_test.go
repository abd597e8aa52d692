package service

import (
	"context"
	"testing"
	"time"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/entity"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testTitleTopic = "GENERATE_SESSION_TITLE"

type titleFixture struct {
	store     *memStore
	channel   *fakeChannel
	llm       *scriptedLLM
	publisher ITitlePublisher
	userId    uuid.UUID
	sessionId uuid.UUID
}

func newTitleFixture(t *testing.T, llmFake *scriptedLLM) *titleFixture {
	t.Helper()

	store := newMemStore()
	channel := &fakeChannel{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	consumer := NewTitleConsumerService(pubSub, testTitleTopic, &memFactory{s: store}, llmFake, channel, nopLogger{})
	assert.NoError(t, consumer.Consume(context.Background()))

	userId := uuid.New()
	sessionId := uuid.New()
	store.sessions[sessionId] = &entity.ChatSession{
		Id:        sessionId,
		UserId:    userId,
		Title:     defaultSessionTitle,
		CreatedAt: time.Now(),
	}

	return &titleFixture{
		store:     store,
		channel:   channel,
		llm:       llmFake,
		publisher: NewTitlePublisher(pubSub, testTitleTopic),
		userId:    userId,
		sessionId: sessionId,
	}
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func (f *titleFixture) sessionTitle() string {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if sess, ok := f.store.sessions[f.sessionId]; ok {
		return sess.Title
	}
	return ""
}

func TestTitleJobRenamesSessionAndNotifies(t *testing.T) {
	f := newTitleFixture(t, &scriptedLLM{generated: "  Weekend Trip Ideas \n"})

	err := f.publisher.PublishTitleJob(context.Background(), &dto.TitleJobMessage{
		SessionId: f.sessionId,
		UserId:    f.userId,
		AiText:    "Sure, here are some weekend trip ideas...",
	})
	assert.NoError(t, err)

	assert.True(t, waitFor(t, func() bool {
		return f.sessionTitle() == "Weekend Trip Ideas"
	}), "session title was never updated")

	updates := f.channel.byEvent(EventSessionTitleUpdate)
	assert.Len(t, updates, 1)
	assert.Equal(t, f.userId, updates[0].UserID)
	assert.Equal(t, f.sessionId, updates[0].Data["session_id"])
	assert.Equal(t, "Weekend Trip Ideas", updates[0].Data["title"])
}

func TestTitleJobFailureLeavesDefaultTitle(t *testing.T) {
	f := newTitleFixture(t, &scriptedLLM{genErr: assert.AnError})

	err := f.publisher.PublishTitleJob(context.Background(), &dto.TitleJobMessage{
		SessionId: f.sessionId,
		UserId:    f.userId,
		AiText:    "whatever",
	})
	assert.NoError(t, err)

	// Give the consumer time to pick the job up and fail quietly.
	assert.True(t, waitFor(t, func() bool {
		return f.llm.promptCount() > 0
	}), "consumer never processed the job")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, defaultSessionTitle, f.sessionTitle())
	assert.Empty(t, f.channel.byEvent(EventSessionTitleUpdate))
}

func TestTitleJobForDeletedSessionIsSwallowed(t *testing.T) {
	f := newTitleFixture(t, &scriptedLLM{generated: "Ghost Title"})

	gone := uuid.New()
	err := f.publisher.PublishTitleJob(context.Background(), &dto.TitleJobMessage{
		SessionId: gone,
		UserId:    f.userId,
		AiText:    "text",
	})
	assert.NoError(t, err)

	assert.True(t, waitFor(t, func() bool {
		return f.llm.promptCount() > 0
	}), "consumer never processed the job")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.channel.byEvent(EventSessionTitleUpdate))
}

func TestTitlePromptCarriesTruncatedSource(t *testing.T) {
	f := newTitleFixture(t, &scriptedLLM{generated: "Long Source Title"})

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}

	err := f.publisher.PublishTitleJob(context.Background(), &dto.TitleJobMessage{
		SessionId: f.sessionId,
		UserId:    f.userId,
		AiText:    string(long),
	})
	assert.NoError(t, err)

	assert.True(t, waitFor(t, func() bool {
		return f.llm.promptCount() > 0
	}), "consumer never processed the job")

	assert.Less(t, len(f.llm.prompt(0)), 1000)
}
