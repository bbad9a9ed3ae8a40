package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, c *websocket.Conn, formID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, FormID: formID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
