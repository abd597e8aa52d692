package service

import (
	"context"
	"encoding/json"

	"audibleai-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ITitlePublisher enqueues a background titling job for a session's first
// exchange. Publishing is fire-and-forget from the caller's point of view.
type ITitlePublisher interface {
	PublishTitleJob(ctx context.Context, job *dto.TitleJobMessage) error
}

type titlePublisher struct {
	pubSub    *gochannel.GoChannel
	topicName string
}

func NewTitlePublisher(pubSub *gochannel.GoChannel, topicName string) ITitlePublisher {
	return &titlePublisher{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (tp *titlePublisher) PublishTitleJob(ctx context.Context, job *dto.TitleJobMessage) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return tp.pubSub.Publish(tp.topicName, msg)
}
