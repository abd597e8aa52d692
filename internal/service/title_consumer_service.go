package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/pkg/logger"
	"audibleai-be/internal/repository/specification"
	"audibleai-be/internal/repository/unitofwork"
	"audibleai-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Titling is best effort. Every failure path here logs and acks; a session
// that keeps its default title is not an error the user ever sees.
type ITitleConsumerService interface {
	Consume(ctx context.Context) error
}

type titleConsumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	channel     DeliveryChannel
	logger      logger.ILogger
}

func NewTitleConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	channel DeliveryChannel,
	log logger.ILogger,
) ITitleConsumerService {
	return &titleConsumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		channel:     channel,
		logger:      log,
	}
}

func (ts *titleConsumerService) Consume(ctx context.Context) error {
	messages, err := ts.pubSub.Subscribe(ctx, ts.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ts.processMessage(ctx, msg)
		}
	}()

	return nil
}

const titleSourceLimit = 500

func (ts *titleConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var job dto.TitleJobMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		ts.logger.Warn("title_consumer", "failed to unmarshal title job", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	source := job.AiText
	if len(source) > titleSourceLimit {
		source = source[:titleSourceLimit]
	}

	prompt := fmt.Sprintf(
		"Generate exactly one concise title for a conversation, 3 to 4 words, plain text, no symbols. The conversation opens with this assistant reply:\n\n%s",
		source,
	)

	title, err := ts.llmProvider.Generate(ctx, prompt)
	if err != nil {
		ts.logger.Warn("title_consumer", "title generation failed", map[string]interface{}{
			"session_id": job.SessionId,
			"error":      err.Error(),
		})
		return
	}

	title = strings.TrimSpace(title)
	if title == "" {
		ts.logger.Warn("title_consumer", "model returned an empty title", map[string]interface{}{
			"session_id": job.SessionId,
		})
		return
	}

	uow := ts.uowFactory.NewUnitOfWork(ctx)

	// The session may have been deleted while the job sat in the queue.
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: job.SessionId},
		specification.UserOwnedBy{UserID: job.UserId},
	)
	if err != nil || sess == nil {
		ts.logger.Warn("title_consumer", "session gone before titling", map[string]interface{}{
			"session_id": job.SessionId,
		})
		return
	}

	if err := uow.ChatSessionRepository().UpdateTitle(ctx, job.SessionId, title); err != nil {
		ts.logger.Warn("title_consumer", "failed to store title", map[string]interface{}{
			"session_id": job.SessionId,
			"error":      err.Error(),
		})
		return
	}

	ts.channel.Publish(job.UserId, EventSessionTitleUpdate, map[string]interface{}{
		"session_id": job.SessionId,
		"title":      title,
	})
}
