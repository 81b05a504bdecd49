package entity

import "time"

type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypeSystem     MessageType = "system"
	MessageTypeEscalation MessageType = "escalation"
	MessageTypeResolution MessageType = "resolution"
)

type MessagePriority string

const (
	PriorityLow    MessagePriority = "low"
	PriorityMedium MessagePriority = "medium"
	PriorityHigh   MessagePriority = "high"
	PriorityUrgent MessagePriority = "urgent"
)

// SourceShape tags which historical writer produced a stored message.
// It exists only for reconciliation and is never serialized outward.
type SourceShape string

const (
	SourceShapeEnhanced SourceShape = "enhanced"
	SourceShapeLegacy   SourceShape = "legacy"
)

type Attachment struct {
	URL       string `json:"url" firestore:"url"`
	Name      string `json:"name" firestore:"name"`
	MimeType  string `json:"mime_type" firestore:"mimeType"`
	SizeBytes int64  `json:"size_bytes" firestore:"sizeBytes"`
}

type ReadReceipt struct {
	UserID   string    `json:"user_id" firestore:"userId"`
	UserName string    `json:"user_name" firestore:"userName"`
	ReadAt   time.Time `json:"read_at" firestore:"readAt"`
}

// Message is the canonical message shape. Content is immutable once
// written; edits keep the original in OriginalContent rather than
// overwriting history.
type Message struct {
	ID               string          `json:"id" firestore:"id"`
	ConversationID   string          `json:"conversation_id" firestore:"conversationId"`
	SenderID         string          `json:"sender_id" firestore:"senderId"`
	SenderName       string          `json:"sender_name" firestore:"senderName"`
	SenderRole       Role            `json:"sender_role" firestore:"senderRole"`
	Content          string          `json:"content" firestore:"content"`
	Timestamp        time.Time       `json:"timestamp" firestore:"timestamp"`
	ReplyTo          string          `json:"reply_to,omitempty" firestore:"replyTo,omitempty"`
	Priority         MessagePriority `json:"priority" firestore:"priority"`
	Department       string          `json:"department,omitempty" firestore:"department,omitempty"`
	IsEscalation     bool            `json:"is_escalation" firestore:"isEscalation"`
	EscalationReason string          `json:"escalation_reason,omitempty" firestore:"escalationReason,omitempty"`
	Type             MessageType     `json:"type" firestore:"type"`
	Status           string          `json:"status" firestore:"status"` // "sent", "delivered", "read"
	Attachments      []Attachment    `json:"attachments,omitempty" firestore:"attachments,omitempty"`
	ReadBy           []ReadReceipt   `json:"read_by" firestore:"readBy"`
	EditedAt         *time.Time      `json:"edited_at,omitempty" firestore:"editedAt,omitempty"`
	EditedBy         string          `json:"edited_by,omitempty" firestore:"editedBy,omitempty"`
	OriginalContent  string          `json:"original_content,omitempty" firestore:"originalContent,omitempty"`
	SourceShape      SourceShape     `json:"-" firestore:"-"`
}

// ReadByUser reports whether the user already appears in the read list.
func (m *Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
