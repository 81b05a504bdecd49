package entity

import "time"

type NotificationSeverity string

const (
	SeverityInfo   NotificationSeverity = "info"
	SeverityUrgent NotificationSeverity = "urgent"
)

// Notification is one persisted "new activity" record for one recipient.
type Notification struct {
	ID             string                 `json:"id" firestore:"id"`
	RecipientID    string                 `json:"recipient_id" firestore:"recipientId"`
	RecipientRole  Role                   `json:"recipient_role" firestore:"recipientRole"`
	ConversationID string                 `json:"conversation_id" firestore:"conversationId"`
	Title          string                 `json:"title" firestore:"title"`
	Body           string                 `json:"body" firestore:"body"`
	Severity       NotificationSeverity   `json:"severity" firestore:"severity"`
	DeepLink       string                 `json:"deep_link" firestore:"deepLink"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" firestore:"metadata,omitempty"`
	Seen           bool                   `json:"seen" firestore:"seen"`
	CreatedAt      time.Time              `json:"created_at" firestore:"createdAt"`
}
