package usecase

import (
	"context"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irdesk/internal/domain/entity"
	"irdesk/pkg/errors"
)

type stubIdentityStore struct {
	records map[string]*auth.UserRecord
	lookups int
}

func (s *stubIdentityStore) GetUserRecord(ctx context.Context, uid string) (*auth.UserRecord, error) {
	s.lookups++
	record, ok := s.records[uid]
	if !ok {
		return nil, fmt.Errorf("no identity record for %s", uid)
	}
	return record, nil
}

func identityRecord(uid, email, displayName string) *auth.UserRecord {
	return &auth.UserRecord{
		UserInfo: &auth.UserInfo{UID: uid, Email: email, DisplayName: displayName},
	}
}

func TestEnsureUserReturnsExistingWithoutIdentityLookup(t *testing.T) {
	staff := &entity.User{ID: "staff-1", DisplayName: "Sam Staff", Role: entity.RoleStaff}
	identity := &stubIdentityStore{}
	uc := NewUserUseCase(newMemoryUserRepo(staff), identity)

	user, err := uc.EnsureUser(context.Background(), "staff-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStaff, user.Role)
	assert.Zero(t, identity.lookups, "a known user must not hit the auth backend")
}

func TestEnsureUserSeedsAccountHolderOnFirstSignIn(t *testing.T) {
	repo := newMemoryUserRepo()
	identity := &stubIdentityStore{records: map[string]*auth.UserRecord{
		"holder-9": identityRecord("holder-9", "dana@example.com", "Dana Holder"),
	}}
	uc := NewUserUseCase(repo, identity)

	user, err := uc.EnsureUser(context.Background(), "holder-9")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAccountHolder, user.Role)
	assert.Equal(t, "Dana Holder", user.DisplayName)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())

	persisted, err := repo.GetByID(context.Background(), "holder-9")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAccountHolder, persisted.Role)
}

func TestEnsureUserFallsBackToEmailForDisplayName(t *testing.T) {
	identity := &stubIdentityStore{records: map[string]*auth.UserRecord{
		"holder-9": identityRecord("holder-9", "dana@example.com", ""),
	}}
	uc := NewUserUseCase(newMemoryUserRepo(), identity)

	user, err := uc.EnsureUser(context.Background(), "holder-9")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.DisplayName)
}

func TestEnsureUserRejectsUnknownIdentity(t *testing.T) {
	uc := NewUserUseCase(newMemoryUserRepo(), &stubIdentityStore{})

	_, err := uc.EnsureUser(context.Background(), "ghost-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}
