package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/notify"
	"github.com/ifixandrepair/shop-api/internal/pricing"
	"github.com/ifixandrepair/shop-api/internal/service"
)

// IntakeService creates orders from the intake form.
// Satisfied by *service.OrderService.
type IntakeService interface {
	Intake(ctx context.Context, req service.IntakeRequest) (*service.IntakeResult, error)
}

// IntakeHandler handles the customer intake form.
type IntakeHandler struct {
	svc IntakeService
	log *zap.Logger
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(svc IntakeService, log *zap.Logger) *IntakeHandler {
	return &IntakeHandler{svc: svc, log: handlerLogger(log, "intake")}
}

// RegisterRoutes registers intake endpoints on the given Chi router.
func (h *IntakeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/intake/submit", h.Submit)
	r.Post("/intake/quote", h.Quote)
}

// --- Request / Response types ---

// priceInput accepts a price sent either as a JSON number or a string.
type priceInput string

func (p *priceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = priceInput(n.String())
	return nil
}

type customerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type deviceDetails struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
}

type intakeRequest struct {
	CustomerInfo        customerInfo  `json:"customerInfo"`
	DeviceDetails       deviceDetails `json:"deviceDetails"`
	IssueDescription    string        `json:"issueDescription"`
	QuotedPrice         priceInput    `json:"quotedPrice"`
	HasGoogleReview     bool          `json:"hasGoogleReview"`
	WantCase            bool          `json:"wantCase"`
	WantScreenProtector bool          `json:"wantScreenProtector"`
	TermsAccepted       bool          `json:"termsAccepted"`
}

type quoteRequest struct {
	QuotedPrice         priceInput `json:"quotedPrice"`
	HasGoogleReview     bool       `json:"hasGoogleReview"`
	WantCase            bool       `json:"wantCase"`
	WantScreenProtector bool       `json:"wantScreenProtector"`
}

type notificationsResponse struct {
	SMS   *string `json:"sms"`
	Email *string `json:"email"`
}

type intakeResponse struct {
	Success         bool                  `json:"success"`
	OrderID         string                `json:"orderId"`
	OrderUUID       uuid.UUID             `json:"orderUuid"`
	RepairRequestID uuid.UUID             `json:"repairRequestId"`
	CustomerID      uuid.UUID             `json:"customerId"`
	Pricing         pricing.Breakdown     `json:"pricing"`
	Notifications   notificationsResponse `json:"notifications"`
}

type quoteResponse struct {
	Pricing pricing.Breakdown `json:"pricing"`
}

func outcomePtr(o notify.Outcome) *string {
	if o == "" {
		return nil
	}
	s := string(o)
	return &s
}

// --- Handlers ---

// Submit runs intake: customer, repair request, priced order, first stage.
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Intake(r.Context(), service.IntakeRequest{
		Name:                req.CustomerInfo.Name,
		Phone:               req.CustomerInfo.Phone,
		Email:               req.CustomerInfo.Email,
		DeviceBrand:         req.DeviceDetails.Brand,
		DeviceModel:         req.DeviceDetails.Model,
		IssueDescription:    req.IssueDescription,
		QuotedPrice:         string(req.QuotedPrice),
		HasGoogleReview:     req.HasGoogleReview,
		WantCase:            req.WantCase,
		WantScreenProtector: req.WantScreenProtector,
		TermsAccepted:       req.TermsAccepted,
	})
	if err != nil {
		writeServiceError(w, h.log, "intake", err)
		return
	}

	writeJSON(w, http.StatusCreated, intakeResponse{
		Success:         true,
		OrderID:         result.Order.OrderNumber,
		OrderUUID:       result.Order.ID,
		RepairRequestID: result.RepairRequest.ID,
		CustomerID:      result.Customer.ID,
		Pricing:         result.Pricing,
		Notifications:   notificationsResponse{Email: outcomePtr(result.Email)},
	})
}

// Quote previews the price breakdown without storing anything.
func (h *IntakeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	base, err := service.ParseQuotedPrice(string(req.QuotedPrice))
	if err != nil {
		writeServiceError(w, h.log, "quote", err)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Pricing: pricing.Calculate(base, pricing.Options{
			WantCase:            req.WantCase,
			WantScreenProtector: req.WantScreenProtector,
			HasGoogleReview:     req.HasGoogleReview,
		}),
	})
}
