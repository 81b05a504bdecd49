package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
	"irdesk/pkg/errors"
	"irdesk/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

// legacyMessageDoc is the shape the retired writer produced. Those
// documents are still in the collection and are never rewritten in place;
// they decode into the canonical shape tagged SourceShapeLegacy and let the
// reconciliation merger decide what survives.
type legacyMessageDoc struct {
	ID         string    `firestore:"id"`
	ChatID     string    `firestore:"chatId"`
	Sender     string    `firestore:"sender"`
	SenderName string    `firestore:"senderName"`
	Text       string    `firestore:"text"`
	SentAt     time.Time `firestore:"sentAt"`
	ReplyTo    string    `firestore:"replyTo"`
}

func (d *legacyMessageDoc) toCanonical(conversationID, docID string) *entity.Message {
	id := d.ID
	if id == "" {
		id = docID
	}
	return &entity.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       d.Sender,
		SenderName:     d.SenderName,
		Content:        d.Text,
		Timestamp:      d.SentAt,
		ReplyTo:        d.ReplyTo,
		SourceShape:    entity.SourceShapeLegacy,
	}
}

// decodeMessageDoc handles both storage shapes. Enhanced documents carry a
// "content" field; anything without one is a legacy document.
func decodeMessageDoc(doc *firestore.DocumentSnapshot, conversationID string) (*entity.Message, error) {
	data := doc.Data()
	if _, ok := data["content"]; ok {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, err
		}
		message.SourceShape = entity.SourceShapeEnhanced
		return &message, nil
	}

	var legacy legacyMessageDoc
	if err := doc.DataTo(&legacy); err != nil {
		return nil, err
	}
	return legacy.toCanonical(conversationID, doc.Ref.ID), nil
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	if message.Status == "" {
		message.Status = "sent"
	}
	if message.ReadBy == nil {
		message.ReadBy = []entity.ReadReceipt{}
	}

	_, err := r.client.Collection("conversations").Doc(message.ConversationID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.StoreUnavailable("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection("conversations").Doc(conversationID).Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.StoreUnavailable("Failed to get message", err)
	}

	message, err := decodeMessageDoc(doc, conversationID)
	if err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return message, nil
}

func (r *firestoreMessageRepository) ListRaw(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	// No OrderBy here: legacy documents have no "timestamp" field and an
	// ordered query would drop them. Fetch everything and sort in memory.
	iter := r.client.Collection("conversations").Doc(conversationID).Collection("messages").Documents(ctx)

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.StoreUnavailable("Failed to iterate messages", err)
		}

		message, err := decodeMessageDoc(doc, conversationID)
		if err != nil {
			logger.Warn("Skipping malformed message document %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
			continue
		}
		messages = append(messages, message)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		}
		return messages[i].ID < messages[j].ID
	})

	return messages, nil
}

func (r *firestoreMessageRepository) Mutate(ctx context.Context, conversationID, messageID string, fn func(*entity.Message) error) (*entity.Message, error) {
	ref := r.client.Collection("conversations").Doc(conversationID).Collection("messages").Doc(messageID)

	var mutated entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		message, err := decodeMessageDoc(doc, conversationID)
		if err != nil {
			return err
		}

		if err := fn(message); err != nil {
			return err
		}

		// A mutated legacy document is rewritten in the enhanced shape;
		// same document id, so there is nothing new to deduplicate.
		message.SourceShape = entity.SourceShapeEnhanced
		mutated = *message
		return tx.Set(ref, message)
	})

	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.StoreUnavailable("Failed to update message", err)
	}

	return &mutated, nil
}
