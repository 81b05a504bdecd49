package repository

import (
	"context"

	"irdesk/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error

	// ListByRole returns users holding a role, ordered by document id so
	// selection policies built on it stay deterministic.
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
}
