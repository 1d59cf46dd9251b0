package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
)

// CustomerStore defines the database methods needed by customer handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CustomerStore interface {
	SearchCustomerByPhone(ctx context.Context, phone string) (database.Customer, error)
}

// CustomerHandler handles the returning-customer lookup used by intake.
type CustomerHandler struct {
	store CustomerStore
	log   *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{store: store, log: handlerLogger(log, "customers")}
}

// RegisterRoutes registers customer endpoints on the given Chi router.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers/search", h.Search)
}

// --- Response types ---

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type customerSearchResponse struct {
	Found    bool              `json:"found"`
	Customer *customerResponse `json:"customer,omitempty"`
}

func toCustomerResponse(c database.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     textPtr(c.Email),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// --- Handlers ---

// Search finds the most recently updated customer whose phone contains the
// query.
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Phone number is required"})
		return
	}

	c, err := h.store.SearchCustomerByPhone(r.Context(), phone)
	if errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusOK, customerSearchResponse{Found: false})
		return
	}
	if err != nil {
		h.log.Error("search customer failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toCustomerResponse(c)
	writeJSON(w, http.StatusOK, customerSearchResponse{Found: true, Customer: &resp})
}
