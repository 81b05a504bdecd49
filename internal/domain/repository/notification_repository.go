package repository

import (
	"context"

	"irdesk/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error)
	MarkSeen(ctx context.Context, notificationID, recipientID string) error
}
