package usecase

import (
	"context"
	"time"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
	"irdesk/internal/domain/service"
	"irdesk/internal/infrastructure/ratelimit"
	ws "irdesk/internal/infrastructure/websocket"
	"irdesk/pkg/errors"
	"irdesk/pkg/logger"
)

type MessageUseCase struct {
	messageRepo   repository.MessageRepository
	conversations *ConversationUseCase
	notifier      *NotificationUseCase
	wsManager     *ws.Manager
	rateLimiter   *ratelimit.RateLimiter
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	conversations *ConversationUseCase,
	notifier *NotificationUseCase,
	wsManager *ws.Manager,
) *MessageUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessageUseCase{
		messageRepo:   messageRepo,
		conversations: conversations,
		notifier:      notifier,
		wsManager:     wsManager,
		rateLimiter:   rateLimiter,
	}
}

type SendMessageInput struct {
	Content     string
	Priority    entity.MessagePriority
	Department  string
	ReplyTo     string
	Attachments []entity.Attachment
}

// Send appends one message. The append is the primary write: if it fails
// the whole operation fails with nothing persisted. The activity stamp,
// notification fan-out and realtime push all run after the append is
// durable and are individually best-effort.
func (uc *MessageUseCase) Send(ctx context.Context, senderID, conversationID string, input SendMessageInput) (*entity.Message, error) {
	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("Send rate limited: user %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	if input.Content == "" && len(input.Attachments) == 0 {
		return nil, errors.Validation("Message requires content or at least one attachment")
	}

	conversation, err := uc.conversations.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sender, ok := conversation.ParticipantByID(senderID)
	if !ok {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	if sender.Role == "" {
		return nil, errors.Validation("Sender role is required")
	}

	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}

	now := time.Now()
	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       sender.ID,
		SenderName:     sender.DisplayName,
		SenderRole:     sender.Role,
		Content:        input.Content,
		Timestamp:      now,
		ReplyTo:        input.ReplyTo,
		Priority:       priority,
		Department:     input.Department,
		Type:           entity.MessageTypeText,
		Attachments:    input.Attachments,
		ReadBy:         []entity.ReadReceipt{{UserID: sender.ID, UserName: sender.DisplayName, ReadAt: now}},
		SourceShape:    entity.SourceShapeEnhanced,
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("Send: failed to append message for conversation %s: %v", conversationID, err)
		return nil, err
	}

	preview := message.Content
	if preview == "" {
		preview = "Attachment"
	}

	// The message is durable; a failed activity stamp is logged, not
	// surfaced, so the sender is never pushed into re-sending a stored
	// message. Readers order by timestamp, not by the stamp.
	updated, err := uc.conversations.RecordActivity(ctx, conversationID, senderID, preview, sender.DisplayName, message.Timestamp)
	if err != nil {
		logger.Warn("Send: activity stamp failed for conversation %s: %v", conversationID, err)
		updated = conversation
	}

	uc.wsManager.BroadcastToRoom(conversationID, ws.NewEvent(ws.EventNewMessage, conversationID, message).Encode(), senderID)
	uc.conversations.pushConversationUpdate(updated, senderID)
	uc.notifier.Notify(ctx, updated, senderID, updated.Title, preview, entity.SeverityInfo)

	return message, nil
}

// SendSystem appends a system-generated message (escalation notices,
// resolution notes). No notification fan-out; the caller decides who gets
// told and how urgently.
func (uc *MessageUseCase) SendSystem(ctx context.Context, conversation *entity.Conversation, content string, messageType entity.MessageType, escalationReason string) (*entity.Message, error) {
	now := time.Now()
	message := &entity.Message{
		ConversationID:   conversation.ID,
		SenderID:         "system",
		SenderName:       "System",
		Content:          content,
		Timestamp:        now,
		Priority:         conversation.Priority,
		Type:             messageType,
		IsEscalation:     messageType == entity.MessageTypeEscalation,
		EscalationReason: escalationReason,
		Status:           "delivered",
		ReadBy:           []entity.ReadReceipt{},
		SourceShape:      entity.SourceShapeEnhanced,
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("SendSystem: failed to append system message for conversation %s: %v", conversation.ID, err)
		return nil, err
	}

	updated, err := uc.conversations.RecordActivity(ctx, conversation.ID, "system", content, "System", message.Timestamp)
	if err != nil {
		logger.Warn("SendSystem: activity stamp failed for conversation %s: %v", conversation.ID, err)
		updated = conversation
	}

	uc.wsManager.BroadcastToRoom(conversation.ID, ws.NewEvent(ws.EventNewMessage, conversation.ID, message).Encode(), "")
	uc.conversations.pushConversationUpdate(updated, "")

	return message, nil
}

// ListMerged returns the canonical feed: the raw dual-shape sequence run
// through the reconciliation merger on every call. The merge result is
// never cached; a transiently raw state settles on the next fetch.
func (uc *MessageUseCase) ListMerged(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	conversation, err := uc.conversations.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, 0, err
	}

	raw, err := uc.messageRepo.ListRaw(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}

	merged := service.MergeMessages(raw)
	total := int64(len(merged))

	if conversation.HasParticipant(userID) {
		uc.conversations.ClearUnread(ctx, conversationID, userID)
	}

	start := offset
	if start > len(merged) {
		start = len(merged)
	}
	end := len(merged)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return merged[start:end], total, nil
}

// MarkRead appends a read receipt. Idempotent per reader; replays and
// concurrent calls collapse to one entry.
func (uc *MessageUseCase) MarkRead(ctx context.Context, conversationID, messageID, readerID, readerName string) (*entity.Message, error) {
	conversation, err := uc.conversations.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(readerID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	message, err := uc.messageRepo.Mutate(ctx, conversationID, messageID, func(message *entity.Message) error {
		if message.ReadByUser(readerID) {
			return nil
		}
		message.ReadBy = append(message.ReadBy, entity.ReadReceipt{
			UserID:   readerID,
			UserName: readerName,
			ReadAt:   time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	receipt := map[string]string{
		"message_id":  messageID,
		"reader_id":   readerID,
		"reader_name": readerName,
	}
	uc.wsManager.BroadcastToRoom(conversationID, ws.NewEvent(ws.EventReadReceipt, conversationID, receipt).Encode(), readerID)

	return message, nil
}

// Edit rewrites a message's content while preserving the original. Only
// the sender may edit, and only the first edit captures OriginalContent.
func (uc *MessageUseCase) Edit(ctx context.Context, conversationID, messageID, editorID, newContent string) (*entity.Message, error) {
	if newContent == "" {
		return nil, errors.Validation("Edited content must not be empty")
	}

	message, err := uc.messageRepo.Mutate(ctx, conversationID, messageID, func(message *entity.Message) error {
		if message.SenderID != editorID {
			return errors.Forbidden("Only the sender can edit a message", nil)
		}
		if message.OriginalContent == "" {
			message.OriginalContent = message.Content
		}
		now := time.Now()
		message.Content = newContent
		message.EditedAt = &now
		message.EditedBy = editorID
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.wsManager.BroadcastToRoom(conversationID, ws.NewEvent(ws.EventNewMessage, conversationID, message).Encode(), editorID)

	return message, nil
}
