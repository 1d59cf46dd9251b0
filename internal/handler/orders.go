package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
	"github.com/ifixandrepair/shop-api/internal/receipt"
	"github.com/ifixandrepair/shop-api/internal/service"
)

// OrderStore defines the database methods needed by the order read side.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListOrdersWithCustomer(ctx context.Context, stage pgtype.Text) ([]database.ListOrdersWithCustomerRow, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.PosOrder, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	ListWorkflowStagesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.WorkflowStage, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

// OrderService runs the order lifecycle writes.
// Satisfied by *service.OrderService.
type OrderService interface {
	AdvanceStage(ctx context.Context, req service.AdvanceStageRequest) (*service.AdvanceStageResult, error)
	RecordPayment(ctx context.Context, req service.RecordPaymentRequest) (*service.RecordPaymentResult, error)
}

// OrderHandler handles the POS order endpoints.
type OrderHandler struct {
	store    OrderStore
	svc      OrderService
	business config.BusinessInfo
	loc      *time.Location
	log      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, svc OrderService, business config.BusinessInfo, loc *time.Location, log *zap.Logger) *OrderHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderHandler{
		store:    store,
		svc:      svc,
		business: business,
		loc:      loc,
		log:      handlerLogger(log, "orders"),
	}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/pos/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/workflow", h.Workflow)
			r.Post("/payment", h.Payment)
			r.Get("/receipt", h.Receipt)
		})
	})
}

// --- Request / Response types ---

type workflowRequest struct {
	Stage               string `json:"stage"`
	AssignedEmployee    string `json:"assignedEmployee"`
	Notes               string `json:"notes"`
	EstimatedCompletion string `json:"estimatedCompletion"`
	SendSMS             *bool  `json:"sendSms"`
}

type paymentRequest struct {
	Amount        priceInput `json:"amount"`
	Method        string     `json:"method"`
	TransactionID string     `json:"transactionId"`
	ProcessorFee  priceInput `json:"processorFee"`
	ProcessedBy   string     `json:"processedBy"`
	Notes         string     `json:"notes"`
}

type orderResponse struct {
	ID                   uuid.UUID  `json:"id"`
	OrderID              string     `json:"orderId"`
	CustomerID           uuid.UUID  `json:"customerId"`
	DeviceBrand          string     `json:"deviceBrand"`
	DeviceModel          string     `json:"deviceModel"`
	IssueDescription     string     `json:"issueDescription"`
	BasePrice            string     `json:"basePrice"`
	CasePrice            string     `json:"casePrice"`
	ScreenProtectorPrice string     `json:"screenProtectorPrice"`
	CreditCardFee        string     `json:"creditCardFee"`
	TaxAmount            string     `json:"taxAmount"`
	TotalAmount          string     `json:"totalAmount"`
	PaidAmount           string     `json:"paidAmount"`
	CurrentStage         string     `json:"currentStage"`
	AssignedTechnician   *string    `json:"assignedTechnician"`
	EstimatedCompletion  *time.Time `json:"estimatedCompletion"`
	Notes                *string    `json:"notes"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type orderListItem struct {
	orderResponse
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	CustomerEmail *string `json:"customerEmail"`
}

type stageResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Stage                 string     `json:"stage"`
	AssignedEmployee      *string    `json:"assignedEmployee"`
	Notes                 *string    `json:"notes"`
	EstimatedCompletion   *time.Time `json:"estimatedCompletion"`
	SMSNotificationSent   bool       `json:"smsNotificationSent"`
	EmailNotificationSent bool       `json:"emailNotificationSent"`
	StartedAt             time.Time  `json:"startedAt"`
	CompletedAt           *time.Time `json:"completedAt"`
	DurationMinutes       *int32     `json:"durationMinutes"`
}

type paymentResponse struct {
	ID            uuid.UUID `json:"id"`
	Amount        string    `json:"amount"`
	Method        string    `json:"method"`
	TransactionID *string   `json:"transactionId"`
	ProcessorFee  string    `json:"processorFee"`
	Notes         *string   `json:"notes"`
	ProcessedBy   *string   `json:"processedBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

type orderDetailResponse struct {
	Order      orderResponse     `json:"order"`
	Customer   customerResponse  `json:"customer"`
	Stages     []stageResponse   `json:"stages"`
	Payments   []paymentResponse `json:"payments"`
	BalanceDue string            `json:"balanceDue"`
	NextStage  *string           `json:"nextStage"`
}

type workflowResponse struct {
	Success       bool                  `json:"success"`
	StageID       uuid.UUID             `json:"stageId"`
	PreviousStage string                `json:"previousStage"`
	CurrentStage  string                `json:"currentStage"`
	Notifications notificationsResponse `json:"notifications"`
}

type recordPaymentResponse struct {
	Success    bool      `json:"success"`
	PaymentID  uuid.UUID `json:"paymentId"`
	NewStage   string    `json:"newStage"`
	PaidAmount string    `json:"paidAmount"`
	BalanceDue string    `json:"balanceDue"`
}

func toOrderResponse(o database.PosOrder) orderResponse {
	return orderResponse{
		ID:                   o.ID,
		OrderID:              o.OrderNumber,
		CustomerID:           o.CustomerID,
		DeviceBrand:          o.DeviceBrand,
		DeviceModel:          o.DeviceModel,
		IssueDescription:     o.IssueDescription,
		BasePrice:            money(o.BasePrice),
		CasePrice:            money(o.CasePrice),
		ScreenProtectorPrice: money(o.ScreenProtectorPrice),
		CreditCardFee:        money(o.CreditCardFee),
		TaxAmount:            money(o.TaxAmount),
		TotalAmount:          money(o.TotalAmount),
		PaidAmount:           money(o.PaidAmount),
		CurrentStage:         o.CurrentStage,
		AssignedTechnician:   textPtr(o.AssignedTechnician),
		EstimatedCompletion:  timePtr(o.EstimatedCompletion),
		Notes:                textPtr(o.Notes),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func toStageResponse(s database.WorkflowStage) stageResponse {
	resp := stageResponse{
		ID:                    s.ID,
		Stage:                 s.Stage,
		AssignedEmployee:      textPtr(s.AssignedEmployee),
		Notes:                 textPtr(s.Notes),
		EstimatedCompletion:   timePtr(s.EstimatedCompletion),
		SMSNotificationSent:   s.SmsNotificationSent,
		EmailNotificationSent: s.EmailNotificationSent,
		StartedAt:             s.StartedAt,
		CompletedAt:           timePtr(s.CompletedAt),
	}
	if s.DurationMinutes.Valid {
		resp.DurationMinutes = &s.DurationMinutes.Int32
	}
	return resp
}

func toPaymentResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		Amount:        money(p.Amount),
		Method:        p.Method,
		TransactionID: textPtr(p.TransactionID),
		ProcessorFee:  money(p.ProcessorFee),
		Notes:         textPtr(p.Notes),
		ProcessedBy:   textPtr(p.ProcessedBy),
		CreatedAt:     p.CreatedAt,
	}
}

// estimateLayouts are the accepted estimatedCompletion formats, tried in
// order. Layouts without a zone are read in the shop time zone.
var estimateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseEstimate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range estimateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid estimatedCompletion")
}

// parseOrderID reads the {id} URL parameter, writing a 400 when malformed.
func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, false
	}
	return id, true
}

// --- Handlers ---

// List returns orders with their customer, newest first, optionally
// filtered by stage.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var stage pgtype.Text
	if s := strings.TrimSpace(r.URL.Query().Get("stage")); s != "" {
		if !enum.IsStage(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stage"})
			return
		}
		stage = pgtype.Text{String: s, Valid: true}
	}

	rows, err := h.store.ListOrdersWithCustomer(r.Context(), stage)
	if err != nil {
		h.log.Error("list orders failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderListItem, len(rows))
	for i, row := range rows {
		resp[i] = orderListItem{
			orderResponse: toOrderResponse(row.PosOrder),
			CustomerName:  row.CustomerName,
			CustomerPhone: row.CustomerPhone,
			CustomerEmail: textPtr(row.CustomerEmail),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with its customer, stage history and payments.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, customer, ok := h.loadOrder(w, r, id)
	if !ok {
		return
	}

	stages, err := h.store.ListWorkflowStagesByOrder(r.Context(), id)
	if err != nil {
		h.log.Error("list workflow stages failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	payments, err := h.store.ListPaymentsByOrder(r.Context(), id)
	if err != nil {
		h.log.Error("list payments failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{
		Order:    toOrderResponse(order),
		Customer: toCustomerResponse(customer),
		Stages:   make([]stageResponse, len(stages)),
		Payments: make([]paymentResponse, len(payments)),
		BalanceDue: service.BalanceDue(
			service.NumericToDecimal(order.TotalAmount),
			service.NumericToDecimal(order.PaidAmount),
		).StringFixed(2),
	}
	for i, s := range stages {
		resp.Stages[i] = toStageResponse(s)
	}
	for i, p := range payments {
		resp.Payments[i] = toPaymentResponse(p)
	}
	if next := enum.NextStage(order.CurrentStage); next != "" {
		resp.NextStage = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// Workflow moves an order to a new stage and notifies the customer.
func (h *OrderHandler) Workflow(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Stage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stage is required"})
		return
	}
	estimate, err := parseEstimate(req.EstimatedCompletion, h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sendSMS := true
	if req.SendSMS != nil {
		sendSMS = *req.SendSMS
	}

	result, err := h.svc.AdvanceStage(r.Context(), service.AdvanceStageRequest{
		OrderID:             id,
		Stage:               req.Stage,
		AssignedEmployee:    strings.TrimSpace(req.AssignedEmployee),
		Notes:               strings.TrimSpace(req.Notes),
		EstimatedCompletion: estimate,
		SendSMS:             sendSMS,
	})
	if err != nil {
		writeServiceError(w, h.log, "advance stage", err)
		return
	}

	writeJSON(w, http.StatusOK, workflowResponse{
		Success:       true,
		StageID:       result.Stage.ID,
		PreviousStage: result.PreviousStage,
		CurrentStage:  result.Order.CurrentStage,
		Notifications: notificationsResponse{
			SMS:   outcomePtr(result.SMS),
			Email: outcomePtr(result.Email),
		},
	})
}

// Payment records a payment against an order.
func (h *OrderHandler) Payment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Amount == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount is required"})
		return
	}

	result, err := h.svc.RecordPayment(r.Context(), service.RecordPaymentRequest{
		OrderID:       id,
		Amount:        string(req.Amount),
		Method:        strings.TrimSpace(req.Method),
		TransactionID: strings.TrimSpace(req.TransactionID),
		ProcessorFee:  string(req.ProcessorFee),
		ProcessedBy:   strings.TrimSpace(req.ProcessedBy),
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		writeServiceError(w, h.log, "record payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, recordPaymentResponse{
		Success:    true,
		PaymentID:  result.Payment.ID,
		NewStage:   result.NewStage,
		PaidAmount: result.PaidAmount.StringFixed(2),
		BalanceDue: result.BalanceDue.StringFixed(2),
	})
}

// Receipt renders the order's receipt as a PDF.
func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, customer, ok := h.loadOrder(w, r, id)
	if !ok {
		return
	}
	payments, err := h.store.ListPaymentsByOrder(r.Context(), id)
	if err != nil {
		h.log.Error("list payments failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	pdf, err := receipt.Render(receipt.Build(h.business, order, customer, payments, h.loc))
	if err != nil {
		h.log.Error("render receipt failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="receipt_`+order.OrderNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn("write receipt failed", zap.Error(err))
	}
}

// loadOrder fetches the order and its customer, writing 404/500 itself.
func (h *OrderHandler) loadOrder(w http.ResponseWriter, r *http.Request, id uuid.UUID) (database.PosOrder, database.Customer, bool) {
	order, err := h.store.GetOrder(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
		return database.PosOrder{}, database.Customer{}, false
	}
	if err != nil {
		h.log.Error("get order failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.PosOrder{}, database.Customer{}, false
	}

	customer, err := h.store.GetCustomer(r.Context(), order.CustomerID)
	if err != nil {
		h.log.Error("get customer failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.PosOrder{}, database.Customer{}, false
	}
	return order, customer, true
}
