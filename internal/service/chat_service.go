package service

import (
	"context"
	"errors"
	"io"
	"time"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/entity"
	"audibleai-be/internal/pkg/apperror"
	"audibleai-be/internal/pkg/logger"
	"audibleai-be/internal/repository/specification"
	"audibleai-be/internal/repository/unitofwork"
	"audibleai-be/pkg/events"
	"audibleai-be/pkg/llm"
	pktNats "audibleai-be/pkg/nats"

	"github.com/google/uuid"
)

const defaultSessionTitle = "New Chat"

type IChatService interface {
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	CreateSession(ctx context.Context, userId uuid.UUID, title string) (*dto.CreateSessionResponse, error)
	ListMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.MessageResponse, error)
	RenameSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, title string) error
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	SendMessage(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	StreamMessage(ctx context.Context, req *dto.StreamMessageRequest) error
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	llmProvider    llm.LLMProvider
	channel        DeliveryChannel
	titlePublisher ITitlePublisher
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	streamDelay    time.Duration
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	channel DeliveryChannel,
	titlePublisher ITitlePublisher,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	streamDelay time.Duration,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		llmProvider:    llmProvider,
		channel:        channel,
		titlePublisher: titlePublisher,
		eventPublisher: eventPublisher,
		logger:         log,
		streamDelay:    streamDelay,
	}
}

// verifySession looks the session up scoped to its owner. A miss answers
// "not found" whether the session is absent or owned by someone else.
func (cs *chatService) verifySession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to look up session", err)
	}
	if sess == nil {
		return nil, apperror.New(apperror.KindNotFound, "session not found")
	}
	return sess, nil
}

func (cs *chatService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to list sessions", err)
	}

	response := make([]*dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, &dto.SessionResponse{
			Id:    s.Id,
			Title: s.Title,
		})
	}
	return response, nil
}

func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID, title string) (*dto.CreateSessionResponse, error) {
	if title == "" {
		title = defaultSessionTitle
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to create session", err)
	}

	return &dto.CreateSessionResponse{SessionId: session.Id}, nil
}

func (cs *chatService) ListMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to list messages", err)
	}

	response := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, &dto.MessageResponse{
			Id:        m.Id,
			Sender:    string(m.Sender),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		})
	}
	return response, nil
}

func (cs *chatService) RenameSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, title string) error {
	if title == "" {
		return apperror.New(apperror.KindValidation, "title is required")
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.ChatSessionRepository().UpdateTitle(ctx, sessionId, title); err != nil {
		return apperror.Wrap(apperror.KindStore, "failed to rename session", err)
	}
	return nil
}

func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	// Messages first, then the session. Each call commits on its own; a
	// crash in between leaves an empty session, not orphaned messages.
	if err := uow.MessageRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return apperror.Wrap(apperror.KindStore, "failed to delete messages", err)
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return apperror.Wrap(apperror.KindStore, "failed to delete session", err)
	}

	cs.publishEvent(ctx, "SESSION_DELETED", userId, sessionId)
	return nil
}

// SendMessage is the synchronous REST path. The model stream is drained to
// completion before anything is returned; a mid-stream failure yields a
// provider error and no AI message is persisted.
func (cs *chatService) SendMessage(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if req.Text == "" {
		return nil, apperror.New(apperror.KindValidation, "text is required")
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	userMsg, err := cs.persistMessage(ctx, uow, sessionId, entity.MessageSenderUser, req.Text)
	if err != nil {
		return nil, err
	}

	stream, err := cs.llmProvider.GenerateStream(ctx, req.Text)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, "model request failed", err)
	}
	defer stream.Close()

	var chunks []string
	var aiText string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.Wrap(apperror.KindProvider, "model stream failed", err)
		}
		chunks = append(chunks, chunk)
		aiText += chunk
	}

	aiMsg, err := cs.persistMessage(ctx, uow, sessionId, entity.MessageSenderAI, aiText)
	if err != nil {
		return nil, err
	}

	return &dto.SendMessageResponse{
		UserMsgId:    userMsg.Id,
		AiMsgId:      aiMsg.Id,
		AiText:       aiText,
		AiTextChunks: chunks,
	}, nil
}

// StreamMessage is the realtime path. Fragments are pushed to the caller's
// room as they arrive; whatever accumulated before a mid-stream failure is
// still persisted so the transcript matches what the user saw.
func (cs *chatService) StreamMessage(ctx context.Context, req *dto.StreamMessageRequest) error {
	if req.Text == "" {
		return apperror.New(apperror.KindValidation, "text is required")
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, req.UserId, req.SessionId); err != nil {
		return err
	}

	if _, err := cs.persistMessage(ctx, uow, req.SessionId, entity.MessageSenderUser, req.Text); err != nil {
		return err
	}

	stream, err := cs.llmProvider.GenerateStream(ctx, req.Text)
	if err != nil {
		return apperror.Wrap(apperror.KindProvider, "model request failed", err)
	}
	defer stream.Close()

	var aiText string
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			if aiText == "" {
				return apperror.Wrap(apperror.KindProvider, "model stream failed", recvErr)
			}
			// Partial response: keep what the user already saw.
			cs.logger.Warn("chat_service", "model stream broke mid-response", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      recvErr.Error(),
			})
			break
		}

		cs.channel.Publish(req.UserId, EventAIResponseChunk, map[string]interface{}{
			"session_id": req.SessionId,
			"chunk":      chunk,
		})
		aiText += chunk

		if cs.streamDelay > 0 {
			time.Sleep(cs.streamDelay)
		}
	}

	aiMsg, err := cs.persistMessage(ctx, uow, req.SessionId, entity.MessageSenderAI, aiText)
	if err != nil {
		return err
	}

	cs.channel.Publish(req.UserId, EventAIResponseEnd, map[string]interface{}{
		"session_id": req.SessionId,
		"message": map[string]interface{}{
			"id":     aiMsg.Id,
			"sender": string(entity.MessageSenderAI),
			"text":   aiText,
		},
	})

	if req.IsFirstMessage && cs.titlePublisher != nil {
		job := &dto.TitleJobMessage{
			SessionId: req.SessionId,
			UserId:    req.UserId,
			AiText:    aiText,
		}
		if err := cs.titlePublisher.PublishTitleJob(ctx, job); err != nil {
			cs.logger.Warn("chat_service", "failed to enqueue title job", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
		}
	}

	return nil
}

func (cs *chatService) persistMessage(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID, sender entity.MessageSender, text string) (*entity.Message, error) {
	msg := &entity.Message{
		Id:        uuid.New(),
		SessionId: sessionId,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to persist message", err)
	}
	return msg, nil
}

func (cs *chatService) publishEvent(ctx context.Context, eventType string, userId, sessionId uuid.UUID) {
	if cs.eventPublisher == nil {
		return
	}
	event := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"user_id":    userId,
			"session_id": sessionId,
			"time":       time.Now().Format(time.RFC822),
		},
		OccurredAt: time.Now(),
	}
	if err := cs.eventPublisher.Publish(ctx, event); err != nil {
		cs.logger.Warn("chat_service", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
