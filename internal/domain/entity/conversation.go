package entity

import "time"

type ConversationStatus string

const (
	StatusActive    ConversationStatus = "active"
	StatusEscalated ConversationStatus = "escalated"
	StatusResolved  ConversationStatus = "resolved"
	StatusArchived  ConversationStatus = "archived"
)

type AuditAction string

const (
	AuditCreated            AuditAction = "created"
	AuditParticipantAdded   AuditAction = "participant_added"
	AuditParticipantRemoved AuditAction = "participant_removed"
	AuditEscalated          AuditAction = "escalated"
	AuditResolved           AuditAction = "resolved"
	AuditArchived           AuditAction = "archived"
)

// AuditEntry is an immutable lifecycle record. The trail is append-only;
// entries are never mutated or deleted.
type AuditEntry struct {
	ID              string                 `json:"id" firestore:"id"`
	Action          AuditAction            `json:"action" firestore:"action"`
	PerformedBy     string                 `json:"performed_by" firestore:"performedBy"`
	PerformedByRole Role                   `json:"performed_by_role" firestore:"performedByRole"`
	Timestamp       time.Time              `json:"timestamp" firestore:"timestamp"`
	Details         map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}

// EscalationInfo records who raised a conversation and why.
type EscalationInfo struct {
	By     string    `json:"by" firestore:"by"`
	Reason string    `json:"reason" firestore:"reason"`
	At     time.Time `json:"at" firestore:"at"`
}

type Conversation struct {
	ID                 string             `json:"id" firestore:"id"`
	Type               string             `json:"type" firestore:"type"` // "direct", "group"
	Title              string             `json:"title" firestore:"title"`
	Participants       []Participant      `json:"participants" firestore:"participants"`
	ParticipantIDs     []string           `json:"-" firestore:"participantIds"` // Kept in sync with Participants for array-contains queries

	Status             ConversationStatus `json:"status" firestore:"status"`
	Priority           MessagePriority    `json:"priority" firestore:"priority"`
	Department         string             `json:"department,omitempty" firestore:"department,omitempty"`
	CreatedBy          string             `json:"created_by" firestore:"createdBy"`
	CreatedAt          time.Time          `json:"created_at" firestore:"createdAt"`
	UpdatedAt          time.Time          `json:"updated_at" firestore:"updatedAt"`
	LastActivityAt     time.Time          `json:"last_activity_at" firestore:"lastActivityAt"`
	LastMessagePreview string             `json:"last_message_preview,omitempty" firestore:"lastMessagePreview,omitempty"`
	LastMessageSender  string             `json:"last_message_sender,omitempty" firestore:"lastMessageSender,omitempty"`
	IsEscalated        bool               `json:"is_escalated" firestore:"isEscalated"`
	Escalation         *EscalationInfo    `json:"escalation,omitempty" firestore:"escalation,omitempty"`
	AuditTrail         []AuditEntry       `json:"audit_trail" firestore:"auditTrail"`
	UnreadCount        map[string]int     `json:"unread_count" firestore:"unreadCount"` // Map of userID to unread count
}

// HasParticipant reports whether the user is a member of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// ParticipantByID returns the participant entry for a user, if present.
func (c *Conversation) ParticipantByID(userID string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.ID == userID {
			return p, true
		}
	}
	return Participant{}, false
}
