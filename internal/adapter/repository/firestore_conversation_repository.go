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

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

// syncParticipantIDs keeps the queryable id array aligned with the
// participant list before every write.
func syncParticipantIDs(conversation *entity.Conversation) {
	ids := make([]string, 0, len(conversation.Participants))
	for _, p := range conversation.Participants {
		ids = append(ids, p.ID)
	}
	conversation.ParticipantIDs = ids
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}

	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	if conversation.LastActivityAt.IsZero() {
		conversation.LastActivityAt = now
	}
	syncParticipantIDs(conversation)

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.StoreUnavailable("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.StoreUnavailable("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()
	syncParticipantIDs(conversation)

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.StoreUnavailable("Failed to update conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").Where("participantIds", "array-contains", userID)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, 0, errors.StoreUnavailable("Failed to fetch conversations", err)
	}

	conversations := make([]*entity.Conversation, 0, len(allDocs))
	for _, doc := range allDocs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation document %s: %v", doc.Ref.ID, err)
			continue
		}
		conversations = append(conversations, &conversation)
	}

	// Most recent activity first; sorted in memory to avoid a composite
	// index on (participantIds, lastActivityAt).
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastActivityAt.After(conversations[j].LastActivityAt)
	})

	total := int64(len(conversations))

	start := offset
	if start > len(conversations) {
		start = len(conversations)
	}
	end := len(conversations)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return conversations[start:end], total, nil
}

func (r *firestoreConversationRepository) FindDirect(ctx context.Context, userID1, userID2, department string) (*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("type", "==", "direct").
		Where("participantIds", "array-contains", userID1)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.StoreUnavailable("Failed to query conversations", err)
	}

	for _, doc := range docs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			continue
		}
		if conversation.Status == entity.StatusResolved || conversation.Status == entity.StatusArchived {
			continue
		}
		if conversation.Department != department {
			continue
		}
		if conversation.HasParticipant(userID2) {
			return &conversation, nil
		}
	}

	return nil, errors.NotFound("Conversation", nil)
}

func (r *firestoreConversationRepository) Mutate(ctx context.Context, id string, fn func(*entity.Conversation) error) (*entity.Conversation, error) {
	ref := r.client.Collection("conversations").Doc(id)

	var mutated entity.Conversation
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return err
		}

		if err := fn(&conversation); err != nil {
			return err
		}

		conversation.UpdatedAt = time.Now()
		syncParticipantIDs(&conversation)
		mutated = conversation
		return tx.Set(ref, &conversation)
	})

	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.StoreUnavailable("Failed to update conversation", err)
	}

	return &mutated, nil
}
