package entity

import "time"

// Role classifies a conversation participant. The portal historically used
// "affiliate" and "investor" interchangeably for the same people; both map
// to RoleAccountHolder here.
type Role string

const (
	RoleOversight     Role = "oversight"
	RoleStaff         Role = "staff"
	RoleAccountHolder Role = "account_holder"
)

// Participant is one member of a conversation. Role is immutable after
// joining; participants are never silently removed.
type Participant struct {
	ID          string     `json:"id" firestore:"id"`
	DisplayName string     `json:"display_name" firestore:"displayName"`
	Role        Role       `json:"role" firestore:"role"`
	JoinedAt    time.Time  `json:"joined_at" firestore:"joinedAt"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty" firestore:"lastSeenAt,omitempty"`
}
