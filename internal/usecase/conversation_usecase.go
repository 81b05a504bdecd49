package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
	"irdesk/internal/infrastructure/ratelimit"
	ws "irdesk/internal/infrastructure/websocket"
	"irdesk/pkg/errors"
	"irdesk/pkg/logger"
)

// previewLength caps the stored last-message preview.
const previewLength = 120

type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	userRepo         repository.UserRepository
	notifier         *NotificationUseCase
	wsManager        *ws.Manager
	rateLimiter      *ratelimit.RateLimiter
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notifier *NotificationUseCase,
	wsManager *ws.Manager,
) *ConversationUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		wsManager:        wsManager,
		rateLimiter:      rateLimiter,
	}
}

type CreateConversationInput struct {
	TargetID       string
	Department     string
	InitialMessage string
}

func roleLabel(role entity.Role) string {
	switch role {
	case entity.RoleOversight:
		return "Management"
	case entity.RoleStaff:
		return "Staff"
	default:
		return "Account Holder"
	}
}

// deriveTitle builds the deterministic conversation title from the pair's
// roles and the department tag. Titles are never freeform.
func deriveTitle(initiator, target *entity.User, department string) string {
	title := fmt.Sprintf("%s / %s", roleLabel(initiator.Role), roleLabel(target.Role))
	if department != "" {
		title = fmt.Sprintf("%s (%s)", title, department)
	}
	return title
}

func participantFrom(user *entity.User, joinedAt time.Time) entity.Participant {
	return entity.Participant{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		JoinedAt:    joinedAt,
	}
}

func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength])
}

// CreateOrGet returns the existing non-archived direct conversation between
// the two principals with the same department tag, or creates a new one.
// When an initial message is supplied for a new conversation, the message
// is written before the conversation document: a failed append then leaves
// no ghost conversation behind, and an orphaned message document is
// unreachable until a retry recreates the conversation under the same pair.
func (uc *ConversationUseCase) CreateOrGet(ctx context.Context, initiatorID string, input CreateConversationInput) (*entity.Conversation, error) {
	allowed, waitTime := uc.rateLimiter.Allow(initiatorID, "create_conversation")
	if !allowed {
		logger.Warn("CreateOrGet rate limited: user %s must wait %v", initiatorID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another conversation", waitTime)
	}

	if initiatorID == input.TargetID {
		return nil, errors.Validation("A conversation requires two distinct principals")
	}

	initiator, err := uc.userRepo.GetByID(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	target, err := uc.userRepo.GetByID(ctx, input.TargetID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.conversationRepo.FindDirect(ctx, initiatorID, input.TargetID, input.Department)
	if err == nil && existing != nil {
		return existing, nil
	}
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	now := time.Now()
	conversation := &entity.Conversation{
		ID:         uuid.New().String(),
		Type:       "direct",
		Title:      deriveTitle(initiator, target, input.Department),
		Status:     entity.StatusActive,
		Priority:   entity.PriorityMedium,
		Department: input.Department,
		CreatedBy:  initiatorID,
		Participants: []entity.Participant{
			participantFrom(initiator, now),
			participantFrom(target, now),
		},
		AuditTrail: []entity.AuditEntry{{
			ID:              uuid.New().String(),
			Action:          entity.AuditCreated,
			PerformedBy:     initiatorID,
			PerformedByRole: initiator.Role,
			Timestamp:       now,
			Details:         map[string]interface{}{"target": input.TargetID, "department": input.Department},
		}},
		UnreadCount:    make(map[string]int),
		LastActivityAt: now,
	}

	if input.InitialMessage != "" {
		message := &entity.Message{
			ConversationID: conversation.ID,
			SenderID:       initiator.ID,
			SenderName:     initiator.DisplayName,
			SenderRole:     initiator.Role,
			Content:        input.InitialMessage,
			Timestamp:      now,
			Priority:       entity.PriorityMedium,
			Department:     input.Department,
			Type:           entity.MessageTypeText,
			ReadBy:         []entity.ReadReceipt{{UserID: initiator.ID, UserName: initiator.DisplayName, ReadAt: now}},
			SourceShape:    entity.SourceShapeEnhanced,
		}
		if err := uc.messageRepo.Create(ctx, message); err != nil {
			logger.Error("CreateOrGet: initial message append failed, conversation not created: %v", err)
			return nil, err
		}

		conversation.LastMessagePreview = truncatePreview(input.InitialMessage)
		conversation.LastMessageSender = initiator.DisplayName
		conversation.LastActivityAt = message.Timestamp
		conversation.UnreadCount[target.ID] = 1
	}

	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, err
	}

	if input.InitialMessage != "" {
		uc.notifier.Notify(ctx, conversation, initiatorID, conversation.Title, conversation.LastMessagePreview, entity.SeverityInfo)
	}
	uc.pushConversationUpdate(conversation, "")

	return conversation, nil
}

// Get returns a conversation the caller may see: participants always,
// oversight users anywhere.
func (uc *ConversationUseCase) Get(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(userID) {
		user, err := uc.userRepo.GetByID(ctx, userID)
		if err != nil || user.Role != entity.RoleOversight {
			return nil, errors.Forbidden("User is not a participant in this conversation", nil)
		}
	}

	return conversation, nil
}

func (uc *ConversationUseCase) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	return uc.conversationRepo.ListByParticipant(ctx, userID, limit, offset)
}

// RecordActivity stamps the preview fields after a message append. Preview
// fields are last-writer-wins; lastActivityAt only ever moves forward.
func (uc *ConversationUseCase) RecordActivity(ctx context.Context, conversationID, actorID, previewText, senderName string, at time.Time) (*entity.Conversation, error) {
	return uc.conversationRepo.Mutate(ctx, conversationID, func(conversation *entity.Conversation) error {
		conversation.LastMessagePreview = truncatePreview(previewText)
		conversation.LastMessageSender = senderName
		if at.After(conversation.LastActivityAt) {
			conversation.LastActivityAt = at
		}
		if conversation.UnreadCount == nil {
			conversation.UnreadCount = make(map[string]int)
		}
		for _, participant := range conversation.Participants {
			if participant.ID != actorID {
				conversation.UnreadCount[participant.ID]++
			}
		}
		return nil
	})
}

// AddParticipant is a set-union: concurrent adds of the same id collapse to
// one participant entry and one audit entry. Returns whether this call
// performed the insert.
func (uc *ConversationUseCase) AddParticipant(ctx context.Context, conversationID string, participant entity.Participant, performedBy string, performedByRole entity.Role) (*entity.Conversation, bool, error) {
	added := false
	conversation, err := uc.conversationRepo.Mutate(ctx, conversationID, func(conversation *entity.Conversation) error {
		added = false
		if conversation.HasParticipant(participant.ID) {
			return nil
		}
		added = true
		conversation.Participants = append(conversation.Participants, participant)
		conversation.AuditTrail = append(conversation.AuditTrail, entity.AuditEntry{
			ID:              uuid.New().String(),
			Action:          entity.AuditParticipantAdded,
			PerformedBy:     performedBy,
			PerformedByRole: performedByRole,
			Timestamp:       time.Now(),
			Details:         map[string]interface{}{"participant": participant.ID, "role": string(participant.Role)},
		})
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return conversation, added, nil
}

// ClearUnread resets the caller's unread counter, typically after the
// feed has been fetched.
func (uc *ConversationUseCase) ClearUnread(ctx context.Context, conversationID, userID string) {
	_, err := uc.conversationRepo.Mutate(ctx, conversationID, func(conversation *entity.Conversation) error {
		if conversation.UnreadCount != nil {
			delete(conversation.UnreadCount, userID)
		}
		return nil
	})
	if err != nil {
		logger.Warn("ClearUnread failed for conversation %s, user %s: %v", conversationID, userID, err)
	}
}

// pushConversationUpdate fans the conversation's current state out to every
// participant's user channel except the actor.
func (uc *ConversationUseCase) pushConversationUpdate(conversation *entity.Conversation, exceptUserID string) {
	payload := ws.NewEvent(ws.EventConversationUpdate, conversation.ID, conversation).Encode()
	for _, participant := range conversation.Participants {
		if participant.ID == exceptUserID {
			continue
		}
		uc.wsManager.SendToUser(participant.ID, payload)
	}
}
