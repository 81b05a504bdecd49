package usecase

import (
	"context"
	"fmt"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
	ws "irdesk/internal/infrastructure/websocket"
	"irdesk/pkg/logger"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	wsManager        *ws.Manager
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository, wsManager *ws.Manager) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		wsManager:        wsManager,
	}
}

// deepLinkFor builds the console route a notification should open for the
// recipient's role.
func deepLinkFor(role entity.Role, conversationID string) string {
	switch role {
	case entity.RoleOversight:
		return fmt.Sprintf("/management/conversations/%s", conversationID)
	case entity.RoleStaff:
		return fmt.Sprintf("/staff/conversations/%s", conversationID)
	default:
		return fmt.Sprintf("/portal/messages/%s", conversationID)
	}
}

// Notify fans one activity signal out to every conversation participant
// except the actor. Strictly best-effort: failures are logged and
// swallowed, never surfaced to the sender, and the triggering write is
// already durable by the time this runs.
func (uc *NotificationUseCase) Notify(ctx context.Context, conversation *entity.Conversation, actorID, title, body string, severity entity.NotificationSeverity) {
	for _, participant := range conversation.Participants {
		if participant.ID == actorID {
			continue
		}
		uc.NotifyParticipant(ctx, conversation, participant, title, body, severity)
	}
}

// NotifyParticipant emits one notification record for one participant and
// pushes it over the realtime hub. Best-effort, same as Notify.
func (uc *NotificationUseCase) NotifyParticipant(ctx context.Context, conversation *entity.Conversation, participant entity.Participant, title, body string, severity entity.NotificationSeverity) {
	notification := &entity.Notification{
		RecipientID:    participant.ID,
		RecipientRole:  participant.Role,
		ConversationID: conversation.ID,
		Title:          title,
		Body:           body,
		Severity:       severity,
		DeepLink:       deepLinkFor(participant.Role, conversation.ID),
		Metadata: map[string]interface{}{
			"conversation_title": conversation.Title,
			"priority":           string(conversation.Priority),
		},
	}

	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		logger.LogNotificationError(conversation.ID, participant.ID, err)
		return
	}

	uc.wsManager.SendToUser(participant.ID, ws.NewEvent(ws.EventNotification, conversation.ID, notification).Encode())
}

func (uc *NotificationUseCase) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByRecipient(ctx, userID, limit, offset)
}

func (uc *NotificationUseCase) MarkSeen(ctx context.Context, notificationID, userID string) error {
	return uc.notificationRepo.MarkSeen(ctx, notificationID, userID)
}
