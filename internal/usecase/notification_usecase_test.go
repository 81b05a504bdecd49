package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irdesk/internal/domain/entity"
	"irdesk/pkg/errors"
)

func TestNotifySkipsActor(t *testing.T) {
	holder, staff, oversight := testUsers()
	env := newTestEnv(oversight.ID, holder, staff, oversight)
	conversation := setupConversation(t, env, holder, staff)

	env.notifier.Notify(context.Background(), conversation, holder.ID, "New message", "Hello", entity.SeverityInfo)

	notifications := env.notificationRepo.all()
	require.Len(t, notifications, 1)
	assert.Equal(t, staff.ID, notifications[0].RecipientID)
	assert.Equal(t, entity.SeverityInfo, notifications[0].Severity)
	assert.Equal(t, conversation.ID, notifications[0].ConversationID)
}

func TestNotifyDeepLinksFollowRole(t *testing.T) {
	holder, staff, oversight := testUsers()
	env := newTestEnv(oversight.ID, holder, staff, oversight)
	conversation := setupConversation(t, env, holder, staff)
	ctx := context.Background()

	_, _, err := env.conversations.AddParticipant(ctx, conversation.ID, entity.Participant{
		ID:          oversight.ID,
		DisplayName: oversight.DisplayName,
		Role:        entity.RoleOversight,
	}, staff.ID, entity.RoleStaff)
	require.NoError(t, err)

	updated, err := env.conversationRepo.GetByID(ctx, conversation.ID)
	require.NoError(t, err)

	env.notifier.Notify(ctx, updated, "nobody", "Update", "body", entity.SeverityInfo)

	links := map[string]string{}
	for _, notification := range env.notificationRepo.all() {
		links[notification.RecipientID] = notification.DeepLink
	}
	assert.Equal(t, "/management/conversations/"+conversation.ID, links[oversight.ID])
	assert.Equal(t, "/staff/conversations/"+conversation.ID, links[staff.ID])
	assert.Equal(t, "/portal/messages/"+conversation.ID, links[holder.ID])
}

func TestNotifySwallowsStoreFailures(t *testing.T) {
	holder, staff, oversight := testUsers()
	env := newTestEnv(oversight.ID, holder, staff, oversight)
	conversation := setupConversation(t, env, holder, staff)

	env.notificationRepo.failWrites = true
	// Dispatch is best-effort: a failing store must not panic or surface.
	env.notifier.Notify(context.Background(), conversation, holder.ID, "New message", "Hello", entity.SeverityInfo)
	assert.Empty(t, env.notificationRepo.all())
}

func TestMarkSeenEnforcesOwnership(t *testing.T) {
	holder, staff, oversight := testUsers()
	env := newTestEnv(oversight.ID, holder, staff, oversight)
	conversation := setupConversation(t, env, holder, staff)
	ctx := context.Background()

	env.notifier.Notify(ctx, conversation, holder.ID, "New message", "Hello", entity.SeverityInfo)
	notifications := env.notificationRepo.all()
	require.Len(t, notifications, 1)

	err := env.notifier.MarkSeen(ctx, notifications[0].ID, holder.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	require.NoError(t, env.notifier.MarkSeen(ctx, notifications[0].ID, staff.ID))

	listed, _, err := env.notifier.ListForUser(ctx, staff.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Seen)
}
