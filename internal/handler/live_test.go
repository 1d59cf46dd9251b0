package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ifixandrepair/shop-api/internal/handler"
	"github.com/ifixandrepair/shop-api/internal/ws"
)

func setupLiveServer(t *testing.T) (*ws.Hub, *httptest.Server) {
	t.Helper()
	hub := ws.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	h := handler.NewLiveHandler(hub)
	r := chi.NewRouter()
	r.Get("/ws/orders", h.Board)
	r.Get("/ws/orders/{id}", h.Order)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *ws.Hub, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(room) < n {
		if time.Now().After(deadline) {
			t.Fatalf("room %s: want %d clients, have %d", room, n, hub.ClientCount(room))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLiveOrder_InvalidID(t *testing.T) {
	_, srv := setupLiveServer(t)

	resp, err := http.Get(srv.URL + "/ws/orders/not-a-uuid")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestLiveOrder_ReceivesOrderEvents(t *testing.T) {
	hub, srv := setupLiveServer(t)
	orderID := uuid.New()

	conn := dialWS(t, srv, "/ws/orders/"+orderID.String())
	waitForClients(t, hub, orderID.String(), 1)

	hub.Broadcast(orderID.String(), ws.Event{Type: "order.stage_changed", Payload: json.RawMessage(`{"currentStage":"repair"}`)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev ws.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "order.stage_changed" {
		t.Fatalf("event type: got %s", ev.Type)
	}
}

func TestLiveBoard_Subscribes(t *testing.T) {
	hub, srv := setupLiveServer(t)

	dialWS(t, srv, "/ws/orders")
	waitForClients(t, hub, ws.BoardRoom, 1)
}
