package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, branchID uuid.UUID) *Client {
	return &Client{
		hub:      hub,
		branchID: branchID,
		send:     make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	branchID := uuid.New()
	client := mockClient(hub, branchID)

	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[branchID] == nil {
		t.Fatal("branch room not created")
	}
	if !hub.rooms[branchID][client] {
		t.Fatal("client not registered in branch room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	branchID := uuid.New()
	client := mockClient(hub, branchID)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[branchID] != nil {
		t.Fatal("branch room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleBranch(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	branch1 := uuid.New()
	branch2 := uuid.New()

	client1 := mockClient(hub, branch1)
	client2 := mockClient(hub, branch2)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"order_id":"test-123","status":"UNDER_REVIEW"}`)
	event := Event{
		Type:    EventOrderSubmitted,
		Payload: testPayload,
	}
	hub.BroadcastToBranch(branch1, event)

	// client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != EventOrderSubmitted {
			t.Errorf("expected type '%s', got '%s'", EventOrderSubmitted, received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different branch")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameBranch(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	branchID := uuid.New()
	client1 := mockClient(hub, branchID)
	client2 := mockClient(hub, branchID)
	client3 := mockClient(hub, branchID)

	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"status":"SHIPPED"}`)
	event := Event{
		Type:    EventOrderShipped,
		Payload: testPayload,
	}
	hub.BroadcastToBranch(branchID, event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != EventOrderShipped {
				t.Errorf("client%d: expected type '%s', got '%s'", i+1, EventOrderShipped, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestHubMultipleBranchesIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	branch1 := uuid.New()
	branch2 := uuid.New()
	branch3 := uuid.New()

	// Two clients per branch
	clients := map[uuid.UUID][]*Client{
		branch1: {mockClient(hub, branch1), mockClient(hub, branch1)},
		branch2: {mockClient(hub, branch2), mockClient(hub, branch2)},
		branch3: {mockClient(hub, branch3), mockClient(hub, branch3)},
	}

	for _, clientList := range clients {
		for _, client := range clientList {
			hub.register <- client
		}
	}
	time.Sleep(10 * time.Millisecond)

	event := Event{
		Type:    EventOrderForwarded,
		Payload: json.RawMessage(`{"branch_id":"` + branch2.String() + `"}`),
	}
	hub.BroadcastToBranch(branch2, event)

	// Only branch2 clients should receive
	for branchID, clientList := range clients {
		for i, client := range clientList {
			select {
			case msg := <-client.send:
				if branchID != branch2 {
					t.Fatalf("branch %s client %d should not receive message", branchID, i)
				}
				var received Event
				if err := json.Unmarshal(msg, &received); err != nil {
					t.Fatalf("unmarshal error: %v", err)
				}
				if received.Type != EventOrderForwarded {
					t.Errorf("wrong event type: %s", received.Type)
				}
			case <-time.After(50 * time.Millisecond):
				if branchID == branch2 {
					t.Fatalf("branch2 client %d should have received message", i)
				}
				// Expected for other branches
			}
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	branchID := uuid.New()
	client1 := mockClient(hub, branchID)
	client2 := mockClient(hub, branchID)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[branchID]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[branchID]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[branchID]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[branchID]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[branchID] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToNonExistentBranch(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	branch1 := uuid.New()
	client1 := mockClient(hub, branch1)
	hub.register <- client1
	time.Sleep(10 * time.Millisecond)

	// Broadcast to a branch with no subscribers
	event := Event{
		Type:    EventOrderReceived,
		Payload: json.RawMessage(`{"test":"data"}`),
	}
	hub.BroadcastToBranch(uuid.New(), event)

	select {
	case <-client1.send:
		t.Fatal("client should not receive message for different branch")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}
