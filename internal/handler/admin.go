package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
)

const defaultRepairRequestLimit = 100

// AdminStore defines the database methods needed by admin handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AdminStore interface {
	ListRepairRequestsWithCustomer(ctx context.Context, maxRows pgtype.Int4) ([]database.ListRepairRequestsWithCustomerRow, error)
}

// AdminHandler handles the admin-only read endpoints.
type AdminHandler struct {
	store AdminStore
	log   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore, log *zap.Logger) *AdminHandler {
	return &AdminHandler{store: store, log: handlerLogger(log, "admin")}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
// Expected to be mounted behind the admin session check.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/repair-requests", h.RepairRequests)
}

// --- Response types ---

type repairRequestResponse struct {
	ID                  uuid.UUID `json:"id"`
	CustomerID          uuid.UUID `json:"customerId"`
	CustomerName        string    `json:"customerName"`
	CustomerPhone       string    `json:"customerPhone"`
	CustomerEmail       *string   `json:"customerEmail"`
	DeviceBrand         string    `json:"deviceBrand"`
	DeviceModel         string    `json:"deviceModel"`
	IssueDescription    string    `json:"issueDescription"`
	QuotedPrice         string    `json:"quotedPrice"`
	HasGoogleReview     bool      `json:"hasGoogleReview"`
	WantCase            bool      `json:"wantCase"`
	WantScreenProtector bool      `json:"wantScreenProtector"`
	TermsAccepted       bool      `json:"termsAccepted"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
}

// parseLimit reads ?limit: empty means the default, "all" means no limit.
func parseLimit(raw string) (pgtype.Int4, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return pgtype.Int4{Int32: defaultRepairRequestLimit, Valid: true}, true
	case strings.EqualFold(raw, "all"):
		return pgtype.Int4{}, true
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v <= 0 {
		return pgtype.Int4{}, false
	}
	return pgtype.Int4{Int32: int32(v), Valid: true}, true
}

// --- Handlers ---

// RepairRequests lists the latest intake records with their customer.
func (h *AdminHandler) RepairRequests(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer or \"all\""})
		return
	}

	rows, err := h.store.ListRepairRequestsWithCustomer(r.Context(), limit)
	if err != nil {
		h.log.Error("list repair requests failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]repairRequestResponse, len(rows))
	for i, row := range rows {
		resp[i] = repairRequestResponse{
			ID:                  row.ID,
			CustomerID:          row.CustomerID,
			CustomerName:        row.CustomerName,
			CustomerPhone:       row.CustomerPhone,
			CustomerEmail:       textPtr(row.CustomerEmail),
			DeviceBrand:         row.DeviceBrand,
			DeviceModel:         row.DeviceModel,
			IssueDescription:    row.IssueDescription,
			QuotedPrice:         money(row.QuotedPrice),
			HasGoogleReview:     row.HasGoogleReview,
			WantCase:            row.WantCase,
			WantScreenProtector: row.WantScreenProtector,
			TermsAccepted:       row.TermsAccepted,
			Status:              row.Status,
			CreatedAt:           row.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
