package handler

import (
	"audibleai-be/internal/pkg/logger"
	"audibleai-be/internal/service"
	internalWS "audibleai-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RealtimeHandler owns the websocket upgrade endpoint. Auth happens at
// handshake time; every connection belongs to exactly one verified user.
type RealtimeHandler struct {
	hub         *internalWS.Hub
	router      *internalWS.Router
	authService service.IAuthService
	logger      logger.ILogger
}

func NewRealtimeHandler(
	hub *internalWS.Hub,
	router *internalWS.Router,
	authService service.IAuthService,
	log logger.ILogger,
) *RealtimeHandler {
	return &RealtimeHandler{
		hub:         hub,
		router:      router,
		authService: authService,
		logger:      log,
	}
}

func (h *RealtimeHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
}

// ServeWs handles websocket requests from the peer.
func (h *RealtimeHandler) ServeWs(c *fiber.Ctx) error {
	// Priority 1: query param (browser standard)
	tokenStr := c.Query("token")

	// Priority 2: Authorization header (tooling/non-browser standard)
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (query 'token' or header 'Authorization')"})
	}

	userID, err := h.authService.VerifyToken(tokenStr)
	if err != nil {
		h.logger.Warn("realtime_handler", "invalid token in ws handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("realtime_handler", "websocket session started", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID, h.router)
			h.logger.Info("realtime_handler", "websocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
