package usecase

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
	"irdesk/pkg/errors"
	"irdesk/pkg/logger"
)

// IdentityStore looks up identity records held by the auth backend.
type IdentityStore interface {
	GetUserRecord(ctx context.Context, uid string) (*auth.UserRecord, error)
}

type UserUseCase struct {
	userRepo repository.UserRepository
	identity IdentityStore
}

func NewUserUseCase(userRepo repository.UserRepository, identity IdentityStore) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		identity: identity,
	}
}

// EnsureUser returns the local user document for uid, seeding one from the
// auth backend's identity record on first sign-in. Seeded accounts start as
// account holders; role changes are an administrative action elsewhere.
func (uc *UserUseCase) EnsureUser(ctx context.Context, uid string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	record, err := uc.identity.GetUserRecord(ctx, uid)
	if err != nil {
		return nil, errors.Unauthorized("Unknown identity", err)
	}

	displayName := record.DisplayName
	if displayName == "" {
		displayName = record.Email
	}

	now := time.Now()
	user = &entity.User{
		ID:          uid,
		Email:       record.Email,
		DisplayName: displayName,
		Role:        entity.RoleAccountHolder,
		Status:      "active",
		LastSeen:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, errors.StoreUnavailable("Failed to seed user", err)
	}

	logger.Info("Seeded user %s on first sign-in", uid)
	return user, nil
}
