package websocket

import (
	"context"
	"encoding/json"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/pkg/logger"
	"audibleai-be/internal/service"

	"github.com/google/uuid"
)

// Inbound event names.
const (
	eventUserJoin    = "user:join"
	eventUserMessage = "user:message"
	eventTtsStart    = "tts:start"
	eventTtsStop     = "tts:stop"
)

const ttsErrorCode = "TTS_GENERATION_FAILED"

// envelope is the inbound wire frame: {"event": ..., "data": ...}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Router maps inbound frames onto orchestrator calls. No handler ever lets
// an error escape: each one logs its failure and, where the event defines
// one, publishes a best-effort error event back to the caller's room.
type Router struct {
	chatService service.IChatService
	ttsService  service.ITtsService
	channel     service.DeliveryChannel
	logger      logger.ILogger
}

func NewRouter(
	chatService service.IChatService,
	ttsService service.ITtsService,
	channel service.DeliveryChannel,
	log logger.ILogger,
) *Router {
	return &Router{
		chatService: chatService,
		ttsService:  ttsService,
		channel:     channel,
		logger:      log,
	}
}

func (r *Router) Dispatch(userID uuid.UUID, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Warn("ws_router", "unparseable frame", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	ctx := context.Background()

	switch env.Event {
	case eventUserJoin:
		// Room membership is established at upgrade time from the token;
		// the join event is kept for wire compatibility.
		r.logger.Debug("ws_router", "user joined", map[string]interface{}{"user_id": userID})

	case eventUserMessage:
		r.handleUserMessage(ctx, userID, env.Data)

	case eventTtsStart:
		r.handleTtsStart(ctx, userID, env.Data)

	case eventTtsStop:
		r.handleTtsStop(ctx, userID, env.Data)

	default:
		r.logger.Warn("ws_router", "unknown event", map[string]interface{}{
			"user_id": userID,
			"event":   env.Event,
		})
	}
}

func (r *Router) handleUserMessage(ctx context.Context, userID uuid.UUID, data json.RawMessage) {
	var req dto.StreamMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.logger.Warn("ws_router", "bad user:message payload", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	// The authenticated identity wins over whatever the payload claims.
	req.UserId = userID

	if err := r.chatService.StreamMessage(ctx, &req); err != nil {
		r.logger.Error("ws_router", "user:message failed", map[string]interface{}{
			"user_id":    userID,
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
	}
}

func (r *Router) handleTtsStart(ctx context.Context, userID uuid.UUID, data json.RawMessage) {
	var req dto.TtsStartRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.logger.Warn("ws_router", "bad tts:start payload", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	req.UserId = userID

	if err := r.ttsService.Start(ctx, &req); err != nil {
		r.logger.Error("ws_router", "tts:start failed", map[string]interface{}{
			"user_id":    userID,
			"message_id": req.MessageId,
			"error":      err.Error(),
		})
		r.channel.Publish(userID, service.EventTtsError, map[string]interface{}{
			"messageId": req.MessageId,
			"code":      ttsErrorCode,
			"message":   err.Error(),
		})
	}
}

func (r *Router) handleTtsStop(ctx context.Context, userID uuid.UUID, data json.RawMessage) {
	var req dto.TtsStopRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.logger.Warn("ws_router", "bad tts:stop payload", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	req.UserId = userID

	if err := r.ttsService.Stop(ctx, &req); err != nil {
		r.logger.Error("ws_router", "tts:stop failed", map[string]interface{}{
			"user_id":    userID,
			"message_id": req.MessageId,
			"error":      err.Error(),
		})
	}
}
