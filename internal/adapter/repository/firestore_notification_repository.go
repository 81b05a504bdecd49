package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
	"irdesk/pkg/errors"
	"irdesk/pkg/logger"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("notifications").Doc(notification.ID).Set(ctx, notification)
	if err != nil {
		return errors.StoreUnavailable("Failed to create notification", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error) {
	query := r.client.Collection("notifications").Where("recipientId", "==", recipientID)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching notifications for user %s: %v", recipientID, err)
		return nil, 0, errors.StoreUnavailable("Failed to fetch notifications", err)
	}

	notifications := make([]*entity.Notification, 0, len(docs))
	for _, doc := range docs {
		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			logger.Warn("Skipping malformed notification document %s: %v", doc.Ref.ID, err)
			continue
		}
		notifications = append(notifications, &notification)
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	total := int64(len(notifications))

	start := offset
	if start > len(notifications) {
		start = len(notifications)
	}
	end := len(notifications)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return notifications[start:end], total, nil
}

func (r *firestoreNotificationRepository) MarkSeen(ctx context.Context, notificationID, recipientID string) error {
	ref := r.client.Collection("notifications").Doc(notificationID)

	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return errors.StoreUnavailable("Failed to get notification", err)
	}

	var notification entity.Notification
	if err := doc.DataTo(&notification); err != nil {
		return errors.Internal("Failed to parse notification data", err)
	}

	if notification.RecipientID != recipientID {
		return errors.Forbidden("Notification belongs to another user", nil)
	}
	if notification.Seen {
		return nil
	}

	_, err = ref.Update(ctx, []firestore.Update{{Path: "seen", Value: true}})
	if err != nil {
		return errors.StoreUnavailable("Failed to update notification", err)
	}

	return nil
}
