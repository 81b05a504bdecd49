package repository

import (
	"context"

	"irdesk/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)

	// FindDirect returns the non-archived direct conversation between two
	// principals with the same department tag, if one exists.
	FindDirect(ctx context.Context, userID1, userID2, department string) (*entity.Conversation, error)

	// Mutate applies fn to the conversation inside a single-document
	// read-modify-write. Concurrent mutations of the same document are
	// serialized by the store, which is what gives participant adds their
	// set-union semantics and the audit trail its append-only ordering.
	Mutate(ctx context.Context, id string, fn func(*entity.Conversation) error) (*entity.Conversation, error)
}
