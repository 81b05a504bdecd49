package repository

import (
	"context"

	"irdesk/internal/domain/entity"
)

type MessageRepository interface {
	// Create persists one enhanced-shape message. Historic documents in the
	// same collection may carry the legacy shape; the store reads both and
	// leaves deduplication to the reconciliation merger.
	Create(ctx context.Context, message *entity.Message) error

	GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)

	// ListRaw returns every message of a conversation, both shapes, ordered
	// by timestamp ascending, without deduplication.
	ListRaw(ctx context.Context, conversationID string) ([]*entity.Message, error)

	// Mutate applies fn to one message inside a single-document
	// read-modify-write (read receipts, edits).
	Mutate(ctx context.Context, conversationID, messageID string, fn func(*entity.Message) error) (*entity.Message, error)
}
