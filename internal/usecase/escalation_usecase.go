package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
	ws "irdesk/internal/infrastructure/websocket"
	"irdesk/pkg/errors"
	"irdesk/pkg/logger"
)

// validTransitions is the conversation lifecycle:
// Active -> Escalated -> {Resolved, Archived}, plus Active -> Archived
// directly. Resolved and Archived are terminal; there is no reopen.
var validTransitions = map[entity.ConversationStatus][]entity.ConversationStatus{
	entity.StatusActive:    {entity.StatusEscalated, entity.StatusArchived},
	entity.StatusEscalated: {entity.StatusResolved, entity.StatusArchived},
}

func canTransition(from, to entity.ConversationStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type EscalationUseCase struct {
	conversations      *ConversationUseCase
	messages           *MessageUseCase
	userRepo           repository.UserRepository
	notifier           *NotificationUseCase
	wsManager          *ws.Manager
	defaultOversightID string
}

func NewEscalationUseCase(
	conversations *ConversationUseCase,
	messages *MessageUseCase,
	userRepo repository.UserRepository,
	notifier *NotificationUseCase,
	wsManager *ws.Manager,
	defaultOversightID string,
) *EscalationUseCase {
	return &EscalationUseCase{
		conversations:      conversations,
		messages:           messages,
		userRepo:           userRepo,
		notifier:           notifier,
		wsManager:          wsManager,
		defaultOversightID: defaultOversightID,
	}
}

// selectOversight resolves the oversight participant for an escalation: the
// explicit target if given, otherwise the configured default oversight
// identity when it is among the candidates, otherwise the first candidate.
// No candidate at all is reported to the caller; an urgent issue must never
// be dropped silently.
func (uc *EscalationUseCase) selectOversight(ctx context.Context, targetOversightID string) (*entity.User, error) {
	if targetOversightID != "" {
		user, err := uc.userRepo.GetByID(ctx, targetOversightID)
		if err != nil {
			return nil, err
		}
		if user.Role != entity.RoleOversight {
			return nil, errors.Validation("Target user does not hold the oversight role")
		}
		return user, nil
	}

	candidates, err := uc.userRepo.ListByRole(ctx, entity.RoleOversight)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.NotFound("Oversight candidate", nil)
	}

	if uc.defaultOversightID != "" {
		for _, candidate := range candidates {
			if candidate.ID == uc.defaultOversightID {
				return candidate, nil
			}
		}
	}
	return candidates[0], nil
}

// Escalate raises a conversation for management attention: status moves to
// Escalated, priority to Urgent, the oversight participant joins, the
// audit trail records it, a system message summarizes the reason and the
// oversight participant gets an urgent notification.
func (uc *EscalationUseCase) Escalate(ctx context.Context, conversationID, byID, reason, targetOversightID string) (*entity.Conversation, error) {
	if reason == "" {
		return nil, errors.Validation("Escalation reason is required")
	}

	current, err := uc.conversations.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	actor, ok := current.ParticipantByID(byID)
	if !ok {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	if current.Status == entity.StatusEscalated {
		return nil, errors.InvalidTransition("Conversation is already escalated")
	}
	if !canTransition(current.Status, entity.StatusEscalated) {
		return nil, errors.InvalidTransition(fmt.Sprintf("Cannot escalate a %s conversation", current.Status))
	}

	oversight, err := uc.selectOversight(ctx, targetOversightID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	oversightParticipant := participantFrom(oversight, now)

	// The status change, priority bump, audit entries and participant
	// union all land in one document write; a concurrent second escalate
	// re-reads the escalated state and fails the transition check.
	conversation, err := uc.conversations.conversationRepo.Mutate(ctx, conversationID, func(conversation *entity.Conversation) error {
		if conversation.Status == entity.StatusEscalated {
			return errors.InvalidTransition("Conversation is already escalated")
		}
		if !canTransition(conversation.Status, entity.StatusEscalated) {
			return errors.InvalidTransition(fmt.Sprintf("Cannot escalate a %s conversation", conversation.Status))
		}

		conversation.Status = entity.StatusEscalated
		conversation.IsEscalated = true
		conversation.Priority = entity.PriorityUrgent
		conversation.Escalation = &entity.EscalationInfo{By: byID, Reason: reason, At: now}
		conversation.AuditTrail = append(conversation.AuditTrail, entity.AuditEntry{
			ID:              uuid.New().String(),
			Action:          entity.AuditEscalated,
			PerformedBy:     byID,
			PerformedByRole: actor.Role,
			Timestamp:       now,
			Details:         map[string]interface{}{"reason": reason, "oversight": oversight.ID},
		})

		if !conversation.HasParticipant(oversight.ID) {
			conversation.Participants = append(conversation.Participants, oversightParticipant)
			conversation.AuditTrail = append(conversation.AuditTrail, entity.AuditEntry{
				ID:              uuid.New().String(),
				Action:          entity.AuditParticipantAdded,
				PerformedBy:     byID,
				PerformedByRole: actor.Role,
				Timestamp:       now,
				Details:         map[string]interface{}{"participant": oversight.ID, "role": string(entity.RoleOversight)},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Conversation escalated by %s: %s", actor.DisplayName, reason)
	if _, err := uc.messages.SendSystem(ctx, conversation, content, entity.MessageTypeEscalation, reason); err != nil {
		logger.Warn("Escalate: system message append failed for conversation %s: %v", conversationID, err)
	}

	uc.notifier.NotifyParticipant(ctx, conversation, oversightParticipant,
		"Conversation escalated", fmt.Sprintf("%s: %s", conversation.Title, reason), entity.SeverityUrgent)

	uc.wsManager.BroadcastToRoom(conversationID, ws.NewEvent(ws.EventConversationEscalated, conversationID, conversation).Encode(), "")
	uc.conversations.pushConversationUpdate(conversation, "")

	return conversation, nil
}

// JoinForOversight adds an oversight participant without changing status.
// Idempotent: joining twice neither duplicates the participant nor repeats
// the announcement.
func (uc *EscalationUseCase) JoinForOversight(ctx context.Context, conversationID, oversightID string) (*entity.Conversation, error) {
	user, err := uc.userRepo.GetByID(ctx, oversightID)
	if err != nil {
		return nil, err
	}
	if user.Role != entity.RoleOversight {
		return nil, errors.Forbidden("Only oversight users can join for oversight", nil)
	}

	conversation, added, err := uc.conversations.AddParticipant(ctx, conversationID,
		participantFrom(user, time.Now()), oversightID, entity.RoleOversight)
	if err != nil {
		return nil, err
	}

	if added {
		content := fmt.Sprintf("%s joined the conversation for oversight", user.DisplayName)
		if _, err := uc.messages.SendSystem(ctx, conversation, content, entity.MessageTypeSystem, ""); err != nil {
			logger.Warn("JoinForOversight: system message append failed for conversation %s: %v", conversationID, err)
		}
		uc.conversations.pushConversationUpdate(conversation, "")
	}

	return conversation, nil
}

// Resolve closes an escalated conversation and leaves a resolution note
// in the feed.
func (uc *EscalationUseCase) Resolve(ctx context.Context, conversationID, byID string) (*entity.Conversation, error) {
	conversation, err := uc.transition(ctx, conversationID, byID, entity.StatusResolved, entity.AuditResolved)
	if err != nil {
		return nil, err
	}

	resolver, _ := conversation.ParticipantByID(byID)
	content := fmt.Sprintf("Conversation resolved by %s", resolver.DisplayName)
	if _, err := uc.messages.SendSystem(ctx, conversation, content, entity.MessageTypeResolution, ""); err != nil {
		logger.Warn("Resolve: system message append failed for conversation %s: %v", conversationID, err)
	}

	return conversation, nil
}

// Archive retires a conversation, from either Active or Escalated.
func (uc *EscalationUseCase) Archive(ctx context.Context, conversationID, byID string) (*entity.Conversation, error) {
	return uc.transition(ctx, conversationID, byID, entity.StatusArchived, entity.AuditArchived)
}

func (uc *EscalationUseCase) transition(ctx context.Context, conversationID, byID string, to entity.ConversationStatus, action entity.AuditAction) (*entity.Conversation, error) {
	current, err := uc.conversations.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	actor, ok := current.ParticipantByID(byID)
	if !ok {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	conversation, err := uc.conversations.conversationRepo.Mutate(ctx, conversationID, func(conversation *entity.Conversation) error {
		if !canTransition(conversation.Status, to) {
			return errors.InvalidTransition(fmt.Sprintf("Cannot move a %s conversation to %s", conversation.Status, to))
		}

		conversation.Status = to
		conversation.IsEscalated = to == entity.StatusEscalated
		conversation.AuditTrail = append(conversation.AuditTrail, entity.AuditEntry{
			ID:              uuid.New().String(),
			Action:          action,
			PerformedBy:     byID,
			PerformedByRole: actor.Role,
			Timestamp:       time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.conversations.pushConversationUpdate(conversation, "")

	return conversation, nil
}
