package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ifixandrepair/shop-api/internal/ws"
)

// LiveHandler upgrades websocket connections onto hub rooms.
type LiveHandler struct {
	hub *ws.Hub
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(hub *ws.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// Board subscribes to every order event. Mount behind the admin check.
func (h *LiveHandler) Board(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, ws.BoardRoom, w, r)
}

// Order subscribes to the events of one order.
func (h *LiveHandler) Order(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	ws.ServeWS(h.hub, id.String(), w, r)
}
