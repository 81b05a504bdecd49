package entity

import "time"

// User is a console account. Display name and role are what the messaging
// core needs; profile management lives elsewhere.
type User struct {
	ID          string    `json:"id" firestore:"id"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Role        Role      `json:"role" firestore:"role"`
	Status      string    `json:"status" firestore:"status"`
	Department  string    `json:"department,omitempty" firestore:"department,omitempty"`
	LastSeen    time.Time `json:"last_seen" firestore:"lastSeen"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}
