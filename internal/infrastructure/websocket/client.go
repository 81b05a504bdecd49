package websocket

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"irdesk/pkg/logger"
)

// Client represents one connected viewer.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// ReadPump reads subscription control messages from the connection until it
// closes, then releases the registration.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Realtime read error for %s: %v", c.UserID, err)
			}
			break
		}

		m.handleClientEvent(c, payload)
	}
}

// WritePump sends queued events to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("Realtime write error for %s: %v", c.UserID, err)
			return
		}
	}
}

func (m *Manager) handleClientEvent(client *Client, payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Warn("Realtime: invalid frame from %s: %v", client.UserID, err)
		m.sendError(client, "Invalid message format")
		return
	}

	switch event.Type {
	case ClientPing:
		m.SendToUser(client.UserID, NewEvent(EventPong, "", map[string]string{"status": "alive"}).Encode())

	case ClientJoinRoom:
		if event.ConversationID == "" {
			m.sendError(client, "Missing conversation_id")
			return
		}
		m.JoinRoom(event.ConversationID, client.UserID)
		logger.Debug("Realtime: %s joined conversation room %s", client.UserID, event.ConversationID)

	case ClientLeaveRoom:
		if event.ConversationID == "" {
			m.sendError(client, "Missing conversation_id")
			return
		}
		m.LeaveRoom(event.ConversationID, client.UserID)
		logger.Debug("Realtime: %s left conversation room %s", client.UserID, event.ConversationID)

	default:
		logger.Warn("Realtime: unknown message type %q from %s", event.Type, client.UserID)
		m.sendError(client, "Unknown message type")
	}
}

func (m *Manager) sendError(client *Client, message string) {
	m.SendToUser(client.UserID, NewEvent(EventError, "", map[string]string{"error": message}).Encode())
}
