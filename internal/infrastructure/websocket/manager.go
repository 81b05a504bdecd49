package websocket

import (
	"context"
	"sync"

	"irdesk/pkg/logger"
)

// Manager is the realtime hub. Every connected viewer holds one client
// registration keyed by user id (the "all conversations containing X"
// subscription) and may join any number of conversation rooms (the "all
// messages in conversation Y" subscription). Delivery is at-least-once;
// consumers re-merge the feed on every push instead of trusting any one
// frame as authoritative.
type Manager struct {
	clients    map[string]*Client
	rooms      map[string]map[string]bool // conversationID -> set of userIDs
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's registration loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Info("Realtime client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				m.removeClientLocked(client.UserID)
				m.mutex.Unlock()
				logger.Info("Realtime client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// removeClientLocked drops a client registration and its room memberships.
// One subscriber disconnecting never touches other registrations.
func (m *Manager) removeClientLocked(userID string) {
	if client, ok := m.clients[userID]; ok {
		delete(m.clients, userID)
		close(client.Send)
	}
	for conversationID, members := range m.rooms {
		delete(members, userID)
		if len(members) == 0 {
			delete(m.rooms, conversationID)
		}
	}
}

func (m *Manager) RemoveClient(userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.removeClientLocked(userID)
}

// JoinRoom subscribes a connected user to one conversation's message feed.
func (m *Manager) JoinRoom(conversationID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.rooms[conversationID] == nil {
		m.rooms[conversationID] = make(map[string]bool)
	}
	m.rooms[conversationID][userID] = true
}

func (m *Manager) LeaveRoom(conversationID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if members, ok := m.rooms[conversationID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(m.rooms, conversationID)
		}
	}
}

// RoomMembers returns the user ids currently subscribed to a conversation.
func (m *Manager) RoomMembers(conversationID string) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	members := make([]string, 0, len(m.rooms[conversationID]))
	for userID := range m.rooms[conversationID] {
		members = append(members, userID)
	}
	return members
}

// SendToUser pushes a payload to one user's connection, if live. A slow or
// dead consumer is dropped rather than allowed to block delivery to others.
//
// The send happens while the lock is held: removeClientLocked closes the
// channel under the write lock, so a send here can never reach a closed
// channel.
func (m *Manager) SendToUser(userID string, payload []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	delivered := false
	if ok {
		select {
		case client.Send <- payload:
			delivered = true
		default:
		}
	}
	m.mutex.RUnlock()

	if !ok || delivered {
		return
	}

	logger.Warn("Realtime client %s send buffer full, dropping connection", userID)
	m.dropClient(client)
}

// dropClient releases a registration only while it is still the live one,
// leaving a reconnect that re-registered under the same user id untouched.
func (m *Manager) dropClient(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if current, ok := m.clients[client.UserID]; ok && current == client {
		m.removeClientLocked(client.UserID)
	}
}

// BroadcastToRoom pushes a payload to every subscriber of a conversation
// except the actor.
func (m *Manager) BroadcastToRoom(conversationID string, payload []byte, exceptUserID string) {
	for _, userID := range m.RoomMembers(conversationID) {
		if userID == exceptUserID {
			continue
		}
		m.SendToUser(userID, payload)
	}
}
