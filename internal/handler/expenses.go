package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
)

// ExpenseStore defines the database methods needed by expense handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, arg database.CreateExpenseParams) (database.BusinessExpense, error)
}

// ExpenseHandler handles business expense logging.
type ExpenseHandler struct {
	store ExpenseStore
	loc   *time.Location
	log   *zap.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(store ExpenseStore, loc *time.Location, log *zap.Logger) *ExpenseHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseHandler{store: store, loc: loc, log: handlerLogger(log, "expenses")}
}

// RegisterRoutes registers expense endpoints on the given Chi router.
func (h *ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Post("/expenses", h.Create)
}

// --- Request / Response types ---

type createExpenseRequest struct {
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Amount        priceInput `json:"amount"`
	PaymentMethod string     `json:"paymentMethod"`
	Vendor        string     `json:"vendor"`
	ReceiptNotes  string     `json:"receiptNotes"`
	ExpenseDate   string     `json:"expenseDate"`
	AddedBy       string     `json:"addedBy"`
}

type createExpenseResponse struct {
	Success     bool      `json:"success"`
	ExpenseID   uuid.UUID `json:"expenseId"`
	Amount      string    `json:"amount"`
	ExpenseDate time.Time `json:"expenseDate"`
}

// --- Helpers ---

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

func optionalText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// --- Handlers ---

// Create logs one expense. The expense date defaults to now.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)
	if req.Category == "" || req.Description == "" || req.Amount == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category, description and amount are required"})
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(string(req.Amount)))
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive number"})
		return
	}
	numeric, err := parsePrice(amount.StringFixed(2))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive number"})
		return
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method != "" && !enum.IsPaymentMethod(method) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "paymentMethod must be one of cash, card, mobile, check"})
		return
	}

	var expenseDate pgtype.Timestamptz
	if raw := strings.TrimSpace(req.ExpenseDate); raw != "" {
		t, err := parseEstimate(raw, h.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expenseDate"})
			return
		}
		expenseDate = pgtype.Timestamptz{Time: *t, Valid: true}
	}

	expense, err := h.store.CreateExpense(r.Context(), database.CreateExpenseParams{
		Category:      req.Category,
		Description:   req.Description,
		Amount:        numeric,
		PaymentMethod: optionalText(method),
		Vendor:        optionalText(req.Vendor),
		ReceiptNotes:  optionalText(req.ReceiptNotes),
		ExpenseDate:   expenseDate,
		AddedBy:       optionalText(req.AddedBy),
	})
	if err != nil {
		h.log.Error("create expense failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.log.Info("expense recorded",
		zap.String("category", expense.Category),
		zap.String("amount", amount.StringFixed(2)),
	)
	writeJSON(w, http.StatusCreated, createExpenseResponse{
		Success:     true,
		ExpenseID:   expense.ID,
		Amount:      money(expense.Amount),
		ExpenseDate: expense.ExpenseDate,
	})
}
