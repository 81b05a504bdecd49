package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"irdesk/internal/domain/entity"
	"irdesk/internal/infrastructure/websocket"
	"irdesk/pkg/errors"
)

// In-memory repository fakes. Mutate serializes on a mutex, which models
// the store's per-document read-modify-write guarantee.

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	clone := *c
	clone.Participants = append([]entity.Participant(nil), c.Participants...)
	clone.ParticipantIDs = append([]string(nil), c.ParticipantIDs...)
	clone.AuditTrail = append([]entity.AuditEntry(nil), c.AuditTrail...)
	if c.UnreadCount != nil {
		clone.UnreadCount = make(map[string]int, len(c.UnreadCount))
		for k, v := range c.UnreadCount {
			clone.UnreadCount[k] = v
		}
	}
	if c.Escalation != nil {
		esc := *c.Escalation
		clone.Escalation = &esc
	}
	return &clone
}

func cloneMessage(m *entity.Message) *entity.Message {
	clone := *m
	clone.Attachments = append([]entity.Attachment(nil), m.Attachments...)
	clone.ReadBy = append([]entity.ReadReceipt(nil), m.ReadBy...)
	return &clone
}

type memoryConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	failWrites    bool
}

func newMemoryConversationRepo() *memoryConversationRepo {
	return &memoryConversationRepo{conversations: make(map[string]*entity.Conversation)}
}

func (r *memoryConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errors.StoreUnavailable("store down", nil)
	}
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	r.conversations[conversation.ID] = cloneConversation(conversation)
	return nil
}

func (r *memoryConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conversation), nil
}

func (r *memoryConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errors.StoreUnavailable("store down", nil)
	}
	r.conversations[conversation.ID] = cloneConversation(conversation)
	return nil
}

func (r *memoryConversationRepo) ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(userID) {
			result = append(result, cloneConversation(conversation))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastActivityAt.After(result[j].LastActivityAt)
	})
	return result, int64(len(result)), nil
}

func (r *memoryConversationRepo) FindDirect(ctx context.Context, userID1, userID2, department string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conversation := range r.conversations {
		if conversation.Type != "direct" {
			continue
		}
		if conversation.Status == entity.StatusResolved || conversation.Status == entity.StatusArchived {
			continue
		}
		if conversation.Department != department {
			continue
		}
		if conversation.HasParticipant(userID1) && conversation.HasParticipant(userID2) {
			return cloneConversation(conversation), nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *memoryConversationRepo) Mutate(ctx context.Context, id string, fn func(*entity.Conversation) error) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return nil, errors.StoreUnavailable("store down", nil)
	}
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	working := cloneConversation(conversation)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	r.conversations[id] = working
	return cloneConversation(working), nil
}

type memoryMessageRepo struct {
	mu         sync.Mutex
	messages   map[string]map[string]*entity.Message // conversationID -> messageID -> message
	failWrites bool
}

func newMemoryMessageRepo() *memoryMessageRepo {
	return &memoryMessageRepo{messages: make(map[string]map[string]*entity.Message)}
}

func (r *memoryMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errors.StoreUnavailable("store down", nil)
	}
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
	if r.messages[message.ConversationID] == nil {
		r.messages[message.ConversationID] = make(map[string]*entity.Message)
	}
	r.messages[message.ConversationID][message.ID] = cloneMessage(message)
	return nil
}

func (r *memoryMessageRepo) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[conversationID][messageID]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return cloneMessage(message), nil
}

func (r *memoryMessageRepo) ListRaw(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Message
	for _, message := range r.messages[conversationID] {
		result = append(result, cloneMessage(message))
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *memoryMessageRepo) Mutate(ctx context.Context, conversationID, messageID string, fn func(*entity.Message) error) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[conversationID][messageID]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	working := cloneMessage(message)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.SourceShape = entity.SourceShapeEnhanced
	r.messages[conversationID][messageID] = working
	return cloneMessage(working), nil
}

type memoryNotificationRepo struct {
	mu            sync.Mutex
	notifications []*entity.Notification
	failWrites    bool
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{}
}

func (r *memoryNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return errors.StoreUnavailable("store down", nil)
	}
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	clone := *notification
	r.notifications = append(r.notifications, &clone)
	return nil
}

func (r *memoryNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Notification
	for _, notification := range r.notifications {
		if notification.RecipientID == recipientID {
			clone := *notification
			result = append(result, &clone)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memoryNotificationRepo) MarkSeen(ctx context.Context, notificationID, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.notifications {
		if notification.ID == notificationID {
			if notification.RecipientID != recipientID {
				return errors.Forbidden("Notification belongs to another user", nil)
			}
			notification.Seen = true
			return nil
		}
	}
	return errors.NotFound("Notification", nil)
}

func (r *memoryNotificationRepo) all() []*entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Notification(nil), r.notifications...)
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemoryUserRepo(users ...*entity.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[string]*entity.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memoryUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	clone := *user
	return &clone, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.User
	for _, user := range r.users {
		if user.Role == role {
			clone := *user
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// testEnv wires the usecases over the in-memory fakes.
type testEnv struct {
	conversationRepo *memoryConversationRepo
	messageRepo      *memoryMessageRepo
	notificationRepo *memoryNotificationRepo
	userRepo         *memoryUserRepo
	conversations    *ConversationUseCase
	messages         *MessageUseCase
	escalations      *EscalationUseCase
	notifier         *NotificationUseCase
}

func newTestEnv(defaultOversightID string, users ...*entity.User) *testEnv {
	env := &testEnv{
		conversationRepo: newMemoryConversationRepo(),
		messageRepo:      newMemoryMessageRepo(),
		notificationRepo: newMemoryNotificationRepo(),
		userRepo:         newMemoryUserRepo(users...),
	}

	wsManager := websocket.NewManager()
	env.notifier = NewNotificationUseCase(env.notificationRepo, wsManager)
	env.conversations = NewConversationUseCase(env.conversationRepo, env.messageRepo, env.userRepo, env.notifier, wsManager)
	env.messages = NewMessageUseCase(env.messageRepo, env.conversations, env.notifier, wsManager)
	env.escalations = NewEscalationUseCase(env.conversations, env.messages, env.userRepo, env.notifier, wsManager, defaultOversightID)
	return env
}

func testUsers() (holder, staff, oversight *entity.User) {
	holder = &entity.User{ID: "holder-1", DisplayName: "Dana Holder", Role: entity.RoleAccountHolder}
	staff = &entity.User{ID: "staff-1", DisplayName: "Sam Staff", Role: entity.RoleStaff}
	oversight = &entity.User{ID: "oversight-1", DisplayName: "Morgan Oversight", Role: entity.RoleOversight}
	return holder, staff, oversight
}
