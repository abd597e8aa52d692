package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs wires an upgraded connection into the hub and blocks until the
// peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID, router *Router) {
	client := &Client{
		Hub:    hub,
		Conn:   c,
		UserID: userID,
		Send:   make(chan []byte, 256),
		Router: router,
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
