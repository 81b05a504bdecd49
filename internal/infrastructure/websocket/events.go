package websocket

import (
	"encoding/json"
	"time"
)

// Server-to-client event types.
const (
	EventNewMessage             = "new_message"
	EventConversationUpdate     = "conversation_update"
	EventConversationEscalated  = "conversation_escalated"
	EventReadReceipt            = "read_receipt"
	EventNotification           = "notification"
	EventPong                   = "pong"
	EventError                  = "error"
)

// Client-to-server message types.
const (
	ClientPing      = "ping"
	ClientJoinRoom  = "join_room"
	ClientLeaveRoom = "leave_room"
)

// Event is one frame on the wire, either direction.
type Event struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

func NewEvent(eventType, conversationID string, data interface{}) Event {
	return Event{
		Type:           eventType,
		ConversationID: conversationID,
		Data:           data,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}

func (e Event) Encode() []byte {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return payload
}
