package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID string) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 8)}
}

func register(t *testing.T, m *Manager, client *Client) {
	t.Helper()
	m.mutex.Lock()
	m.clients[client.UserID] = client
	m.mutex.Unlock()
}

func TestSendToUserDeliversToRegisteredClient(t *testing.T) {
	m := NewManager()
	client := newTestClient("user-1")
	register(t, m, client)

	m.SendToUser("user-1", []byte("hello"))
	select {
	case payload := <-client.Send:
		assert.Equal(t, "hello", string(payload))
	case <-time.After(time.Second):
		t.Fatal("expected a delivery")
	}

	// Unknown users are a silent no-op.
	m.SendToUser("user-2", []byte("dropped"))
}

func TestSendToUserDropsSlowClient(t *testing.T) {
	m := NewManager()
	client := &Client{UserID: "slow-1", Send: make(chan []byte, 1)}
	register(t, m, client)

	m.SendToUser("slow-1", []byte("first"))
	m.SendToUser("slow-1", []byte("second")) // buffer full, client dropped

	m.mutex.RLock()
	_, stillRegistered := m.clients["slow-1"]
	m.mutex.RUnlock()
	assert.False(t, stillRegistered)

	// The dropped client's channel is closed so its write pump exits.
	<-client.Send
	_, open := <-client.Send
	assert.False(t, open)
}

func TestSendToUserConcurrentWithRemove(t *testing.T) {
	m := NewManager()

	// Hammer delivery against removal; a send racing the channel close
	// would panic and fail the run.
	for i := 0; i < 500; i++ {
		client := &Client{UserID: "user-1", Send: make(chan []byte, 1)}
		register(t, m, client)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				m.SendToUser("user-1", []byte("payload"))
			}
		}()
		go func() {
			defer wg.Done()
			m.RemoveClient("user-1")
		}()
		wg.Wait()
	}
}

func TestDropSlowClientSparesReconnectedClient(t *testing.T) {
	m := NewManager()
	stale := &Client{UserID: "user-1", Send: make(chan []byte, 1)}
	stale.Send <- []byte("backlog")

	replacement := newTestClient("user-1")
	register(t, m, replacement)

	// A drop decided against the stale registration must not evict the
	// connection that replaced it.
	m.dropClient(stale)

	m.mutex.RLock()
	current, ok := m.clients["user-1"]
	m.mutex.RUnlock()
	require.True(t, ok)
	assert.Same(t, replacement, current)
}

func TestRoomMembershipLifecycle(t *testing.T) {
	m := NewManager()
	m.JoinRoom("conv-1", "user-1")
	m.JoinRoom("conv-1", "user-2")
	m.JoinRoom("conv-2", "user-1")

	assert.ElementsMatch(t, []string{"user-1", "user-2"}, m.RoomMembers("conv-1"))
	assert.ElementsMatch(t, []string{"user-1"}, m.RoomMembers("conv-2"))

	m.LeaveRoom("conv-1", "user-2")
	assert.ElementsMatch(t, []string{"user-1"}, m.RoomMembers("conv-1"))

	// Leaving an unknown room is harmless.
	m.LeaveRoom("conv-9", "user-1")
}

func TestRemoveClientClearsRoomMemberships(t *testing.T) {
	m := NewManager()
	client := newTestClient("user-1")
	register(t, m, client)
	other := newTestClient("user-2")
	register(t, m, other)

	m.JoinRoom("conv-1", "user-1")
	m.JoinRoom("conv-1", "user-2")

	m.RemoveClient("user-1")

	assert.ElementsMatch(t, []string{"user-2"}, m.RoomMembers("conv-1"))
	m.mutex.RLock()
	_, ok := m.clients["user-2"]
	m.mutex.RUnlock()
	assert.True(t, ok, "removing one client must not touch others")
}

func TestBroadcastToRoomSkipsActor(t *testing.T) {
	m := NewManager()
	sender := newTestClient("sender")
	receiver := newTestClient("receiver")
	register(t, m, sender)
	register(t, m, receiver)
	m.JoinRoom("conv-1", "sender")
	m.JoinRoom("conv-1", "receiver")

	m.BroadcastToRoom("conv-1", []byte("payload"), "sender")

	select {
	case payload := <-receiver.Send:
		assert.Equal(t, "payload", string(payload))
	case <-time.After(time.Second):
		t.Fatal("receiver expected a delivery")
	}
	select {
	case <-sender.Send:
		t.Fatal("actor must not receive their own broadcast")
	default:
	}
}

func TestEventEncodeShape(t *testing.T) {
	payload := NewEvent(EventNewMessage, "conv-1", map[string]string{"content": "hi"}).Encode()

	var decoded Event
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, EventNewMessage, decoded.Type)
	assert.Equal(t, "conv-1", decoded.ConversationID)
	assert.NotEmpty(t, decoded.Timestamp)
}
