package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, room string) *Client {
	return &Client{
		hub:  hub,
		room: room,
		send: make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, BoardRoom)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[BoardRoom] == nil {
		t.Fatal("board room not created")
	}
	if !hub.rooms[BoardRoom][client] {
		t.Fatal("client not registered in board room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, "order-1")

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms["order-1"] != nil {
		t.Fatal("room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleRoom(t *testing.T) {
	hub := startHub(t)

	board := mockClient(hub, BoardRoom)
	order := mockClient(hub, "order-1")
	hub.register <- board
	hub.register <- order
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"orderId":"order-1"}`)
	hub.Broadcast(BoardRoom, Event{Type: "order.created", Payload: testPayload})

	select {
	case msg := <-board.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "order.created" {
			t.Errorf("expected type 'order.created', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("board client did not receive message")
	}

	select {
	case <-order.send:
		t.Fatal("order client should not receive board message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToMultipleClientsInSameRoom(t *testing.T) {
	hub := startHub(t)

	clients := []*Client{mockClient(hub, BoardRoom), mockClient(hub, BoardRoom), mockClient(hub, BoardRoom)}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(BoardRoom, Event{Type: "order.stage_changed", Payload: json.RawMessage(`{"currentStage":"ready"}`)})

	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "order.stage_changed" {
				t.Errorf("client%d: expected type 'order.stage_changed', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, BoardRoom)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("order-2", Event{Type: "order.created", Payload: json.RawMessage(`{}`)})

	select {
	case <-client.send:
		t.Fatal("client should not receive message for another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := &Client{hub: hub, room: BoardRoom, send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(BoardRoom, Event{Type: "order.created", Payload: json.RawMessage(`{}`)})
	time.Sleep(20 * time.Millisecond)

	if n := hub.ClientCount(BoardRoom); n != 0 {
		t.Fatalf("expected slow client dropped, got %d clients", n)
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("expected send channel closed")
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(nil) // not running

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Broadcast(BoardRoom, Event{Type: "order.created"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
}

func TestServeWS_DeliversEvents(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, "order-9", w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount("order-9") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast("order-9", Event{Type: "order.payment_recorded", Payload: json.RawMessage(`{"paidAmount":"10.00"}`)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var received Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.Type != "order.payment_recorded" {
		t.Errorf("unexpected type %s", received.Type)
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := mockClient(hub, BoardRoom)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("client not closed on shutdown")
	}
	// unsubscribe after shutdown must not block
	hub.unsubscribe(client)
}
