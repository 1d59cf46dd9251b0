package handler_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
	"github.com/ifixandrepair/shop-api/internal/handler"
	"github.com/ifixandrepair/shop-api/internal/notify"
	"github.com/ifixandrepair/shop-api/internal/service"
)

// --- Mock OrderStore ---

type mockOrderStore struct {
	listOrdersFn   func(ctx context.Context, stage pgtype.Text) ([]database.ListOrdersWithCustomerRow, error)
	getOrderFn     func(ctx context.Context, id uuid.UUID) (database.PosOrder, error)
	getCustomerFn  func(ctx context.Context, id uuid.UUID) (database.Customer, error)
	listStagesFn   func(ctx context.Context, orderID uuid.UUID) ([]database.WorkflowStage, error)
	listPaymentsFn func(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

func (m *mockOrderStore) ListOrdersWithCustomer(ctx context.Context, stage pgtype.Text) ([]database.ListOrdersWithCustomerRow, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, stage)
	}
	return nil, nil
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.PosOrder, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.PosOrder{}, pgx.ErrNoRows
}

func (m *mockOrderStore) GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	if m.getCustomerFn != nil {
		return m.getCustomerFn(ctx, id)
	}
	return database.Customer{}, pgx.ErrNoRows
}

func (m *mockOrderStore) ListWorkflowStagesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.WorkflowStage, error) {
	if m.listStagesFn != nil {
		return m.listStagesFn(ctx, orderID)
	}
	return nil, nil
}

func (m *mockOrderStore) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error) {
	if m.listPaymentsFn != nil {
		return m.listPaymentsFn(ctx, orderID)
	}
	return nil, nil
}

// --- Mock OrderService ---

type mockOrderService struct {
	advanceFn func(ctx context.Context, req service.AdvanceStageRequest) (*service.AdvanceStageResult, error)
	paymentFn func(ctx context.Context, req service.RecordPaymentRequest) (*service.RecordPaymentResult, error)
}

func (m *mockOrderService) AdvanceStage(ctx context.Context, req service.AdvanceStageRequest) (*service.AdvanceStageResult, error) {
	return m.advanceFn(ctx, req)
}

func (m *mockOrderService) RecordPayment(ctx context.Context, req service.RecordPaymentRequest) (*service.RecordPaymentResult, error) {
	return m.paymentFn(ctx, req)
}

// --- Fixtures ---

var chicago = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func sampleOrder() database.PosOrder {
	created := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	return database.PosOrder{
		ID:                   uuid.New(),
		OrderNumber:          "IFR123456001",
		CustomerID:           uuid.New(),
		DeviceBrand:          "Apple",
		DeviceModel:          "iPhone 13",
		IssueDescription:     "Cracked screen",
		BasePrice:            numeric("100.00"),
		CasePrice:            numeric("15.00"),
		ScreenProtectorPrice: numeric("0.00"),
		CreditCardFee:        numeric("0.00"),
		TaxAmount:            numeric("11.50"),
		TotalAmount:          numeric("126.50"),
		PaidAmount:           numeric("50.00"),
		CurrentStage:         enum.StageRepair,
		AssignedTechnician:   text("Omar"),
		CreatedAt:            created,
		UpdatedAt:            created,
	}
}

func sampleCustomer(id uuid.UUID) database.Customer {
	return database.Customer{
		ID:    id,
		Name:  "Jane Doe",
		Phone: "3125550100",
		Email: text("jane@example.com"),
	}
}

// storeWithOrder serves a single order, its customer, and the given history.
func storeWithOrder(order database.PosOrder, stages []database.WorkflowStage, payments []database.Payment) *mockOrderStore {
	return &mockOrderStore{
		getOrderFn: func(_ context.Context, id uuid.UUID) (database.PosOrder, error) {
			if id != order.ID {
				return database.PosOrder{}, pgx.ErrNoRows
			}
			return order, nil
		},
		getCustomerFn: func(_ context.Context, id uuid.UUID) (database.Customer, error) {
			return sampleCustomer(id), nil
		},
		listStagesFn: func(context.Context, uuid.UUID) ([]database.WorkflowStage, error) {
			return stages, nil
		},
		listPaymentsFn: func(context.Context, uuid.UUID) ([]database.Payment, error) {
			return payments, nil
		},
	}
}

func setupOrderRouter(store handler.OrderStore, svc handler.OrderService, log *zap.Logger) *chi.Mux {
	business := config.BusinessInfo{Name: "IFIXANDREPAIR", Address: "1 Main St", Phone: "(312) 555-0199"}
	h := handler.NewOrderHandler(store, svc, business, chicago, log)
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

// --- List ---

func TestOrderList(t *testing.T) {
	order := sampleOrder()
	var gotStage pgtype.Text
	store := &mockOrderStore{listOrdersFn: func(_ context.Context, stage pgtype.Text) ([]database.ListOrdersWithCustomerRow, error) {
		gotStage = stage
		return []database.ListOrdersWithCustomerRow{{
			PosOrder:      order,
			CustomerName:  "Jane Doe",
			CustomerPhone: "3125550100",
		}}, nil
	}}
	router := setupOrderRouter(store, &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders?stage=repair", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if !gotStage.Valid || gotStage.String != "repair" {
		t.Fatalf("stage filter: got %+v", gotStage)
	}

	list := decodeList(t, rr)
	if len(list) != 1 {
		t.Fatalf("orders: got %d, want 1", len(list))
	}
	item := list[0]
	checks := map[string]interface{}{
		"id":                 order.ID.String(),
		"orderId":            "IFR123456001",
		"customerName":       "Jane Doe",
		"customerPhone":      "3125550100",
		"customerEmail":      nil,
		"deviceBrand":        "Apple",
		"totalAmount":        "126.50",
		"paidAmount":         "50.00",
		"currentStage":       "repair",
		"assignedTechnician": "Omar",
	}
	for k, want := range checks {
		if item[k] != want {
			t.Errorf("%s: got %v, want %v", k, item[k], want)
		}
	}
}

func TestOrderList_NoFilter(t *testing.T) {
	called := false
	store := &mockOrderStore{listOrdersFn: func(_ context.Context, stage pgtype.Text) ([]database.ListOrdersWithCustomerRow, error) {
		called = true
		if stage.Valid {
			t.Fatalf("expected no stage filter, got %q", stage.String)
		}
		return nil, nil
	}}
	router := setupOrderRouter(store, &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !called {
		t.Fatalf("status: got %d, called %v", rr.Code, called)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("empty list should encode as [], got %s", rr.Body.String())
	}
}

func TestOrderList_InvalidStage(t *testing.T) {
	router := setupOrderRouter(&mockOrderStore{}, &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders?stage=shipped", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assertError(t, rr, http.StatusBadRequest, "invalid stage")
}

func TestOrderList_StoreErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := &mockOrderStore{listOrdersFn: func(context.Context, pgtype.Text) ([]database.ListOrdersWithCustomerRow, error) {
		return nil, errors.New("db down")
	}}
	router := setupOrderRouter(store, &mockOrderService{}, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assertError(t, rr, http.StatusInternalServerError, "internal server error")
	if logs.FilterMessage("list orders failed").Len() != 1 {
		t.Fatalf("expected one error log, got %v", logs.All())
	}
}

// --- Get ---

func TestOrderGet_Detail(t *testing.T) {
	order := sampleOrder()
	started := order.CreatedAt
	stages := []database.WorkflowStage{
		{
			ID:              uuid.New(),
			OrderID:         order.ID,
			Stage:           enum.StageReceived,
			StartedAt:       started,
			CompletedAt:     pgtype.Timestamptz{Time: started.Add(30 * time.Minute), Valid: true},
			DurationMinutes: pgtype.Int4{Int32: 30, Valid: true},
		},
		{ID: uuid.New(), OrderID: order.ID, Stage: enum.StageRepair, StartedAt: started.Add(30 * time.Minute)},
	}
	payments := []database.Payment{
		{ID: uuid.New(), OrderID: order.ID, Amount: numeric("50.00"), Method: "cash", ProcessorFee: numeric("0")},
	}
	router := setupOrderRouter(storeWithOrder(order, stages, payments), &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders/"+order.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	body := decodeMap(t, rr)
	if body["balanceDue"] != "76.50" {
		t.Errorf("balanceDue: got %v, want 76.50", body["balanceDue"])
	}
	if body["nextStage"] != enum.StageWaitingForParts {
		t.Errorf("nextStage: got %v, want %s", body["nextStage"], enum.StageWaitingForParts)
	}
	if body["order"].(map[string]interface{})["orderId"] != "IFR123456001" {
		t.Errorf("order: got %v", body["order"])
	}
	if body["customer"].(map[string]interface{})["name"] != "Jane Doe" {
		t.Errorf("customer: got %v", body["customer"])
	}

	gotStages := body["stages"].([]interface{})
	if len(gotStages) != 2 {
		t.Fatalf("stages: got %d, want 2", len(gotStages))
	}
	first := gotStages[0].(map[string]interface{})
	if first["stage"] != "received" || first["durationMinutes"] != float64(30) {
		t.Errorf("first stage: got %v", first)
	}
	if open := gotStages[1].(map[string]interface{}); open["completedAt"] != nil || open["durationMinutes"] != nil {
		t.Errorf("open stage should have null completion, got %v", open)
	}

	gotPayments := body["payments"].([]interface{})
	if len(gotPayments) != 1 || gotPayments[0].(map[string]interface{})["amount"] != "50.00" {
		t.Errorf("payments: got %v", gotPayments)
	}
}

func TestOrderGet_CompletedHasNoNextStage(t *testing.T) {
	order := sampleOrder()
	order.CurrentStage = enum.StageCompleted
	order.PaidAmount = numeric("130.00")
	router := setupOrderRouter(storeWithOrder(order, nil, nil), &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders/"+order.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	body := decodeMap(t, rr)
	if body["nextStage"] != nil {
		t.Errorf("nextStage: got %v, want null", body["nextStage"])
	}
	if body["balanceDue"] != "0.00" {
		t.Errorf("overpaid balance: got %v, want 0.00", body["balanceDue"])
	}
	if len(body["stages"].([]interface{})) != 0 {
		t.Errorf("stages should be an empty list")
	}
}

func TestOrderGet_Errors(t *testing.T) {
	router := setupOrderRouter(storeWithOrder(sampleOrder(), nil, nil), &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assertError(t, rr, http.StatusBadRequest, "invalid order ID")

	req = httptest.NewRequest(http.MethodGet, "/api/pos/orders/"+uuid.NewString(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assertError(t, rr, http.StatusNotFound, "Order not found")
}

// --- Workflow ---

func TestOrderWorkflow_Success(t *testing.T) {
	order := sampleOrder()
	var got service.AdvanceStageRequest
	svc := &mockOrderService{advanceFn: func(_ context.Context, req service.AdvanceStageRequest) (*service.AdvanceStageResult, error) {
		got = req
		updated := order
		updated.CurrentStage = req.Stage
		return &service.AdvanceStageResult{
			Stage:         database.WorkflowStage{ID: uuid.New(), OrderID: order.ID, Stage: req.Stage},
			Order:         updated,
			PreviousStage: order.CurrentStage,
			SMS:           notify.OutcomeSent,
		}, nil
	}}
	router := setupOrderRouter(&mockOrderStore{}, svc, nil)

	body := `{"stage":"ready","assignedEmployee":" Omar ","notes":"Screen replaced","estimatedCompletion":"2025-03-02T17:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pos/orders/"+order.ID.String()+"/workflow", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got.OrderID != order.ID || got.Stage != "ready" || got.AssignedEmployee != "Omar" || got.Notes != "Screen replaced" {
		t.Fatalf("service request: got %+v", got)
	}
	if !got.SendSMS {
		t.Fatal("sendSms should default to true")
	}
	wantEstimate := time.Date(2025, 3, 2, 17, 0, 0, 0, chicago)
	if got.EstimatedCompletion == nil || !got.EstimatedCompletion.Equal(wantEstimate) {
		t.Fatalf("estimate: got %v, want %v", got.EstimatedCompletion, wantEstimate)
	}

	resp := decodeMap(t, rr)
	if resp["success"] != true || resp["previousStage"] != "repair" || resp["currentStage"] != "ready" {
		t.Fatalf("body: got %v", resp)
	}
	if _, err := uuid.Parse(resp["stageId"].(string)); err != nil {
		t.Fatalf("stageId: %v", resp["stageId"])
	}
	n := resp["notifications"].(map[string]interface{})
	if n["sms"] != "sent" || n["email"] != nil {
		t.Fatalf("notifications: got %v", n)
	}
}

func TestOrderWorkflow_SendSMSFalse(t *testing.T) {
	var got service.AdvanceStageRequest
	svc := &mockOrderService{advanceFn: func(_ context.Context, req service.AdvanceStageRequest) (*service.AdvanceStageResult, error) {
		got = req
		return &service.AdvanceStageResult{Order: sampleOrder()}, nil
	}}
	router := setupOrderRouter(&mockOrderStore{}, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/pos/orders/"+uuid.NewString()+"/workflow",
		strings.NewReader(`{"stage":"testing","sendSms":false}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got.SendSMS {
		t.Fatal("sendSms false must be passed through")
	}
	if got.EstimatedCompletion != nil {
		t.Fatalf("no estimate expected, got %v", got.EstimatedCompletion)
	}
}

func TestOrderWorkflow_Errors(t *testing.T) {
	svc := &mockOrderService{advanceFn: func(_ context.Context, req service.AdvanceStageRequest) (*service.AdvanceStageResult, error) {
		if req.Stage == "shipped" {
			return nil, &service.ValidationError{Field: "stage", Message: "invalid stage"}
		}
		return nil, &service.NotFoundError{Resource: "order", ID: req.OrderID.String()}
	}}
	router := setupOrderRouter(&mockOrderStore{}, svc, nil)

	tests := []struct {
		name   string
		id     string
		body   string
		status int
		msg    string
	}{
		{"bad id", "abc", `{"stage":"ready"}`, http.StatusBadRequest, "invalid order ID"},
		{"bad body", uuid.NewString(), `{`, http.StatusBadRequest, "invalid request body"},
		{"missing stage", uuid.NewString(), `{}`, http.StatusBadRequest, "stage is required"},
		{"bad estimate", uuid.NewString(), `{"stage":"ready","estimatedCompletion":"tomorrow"}`, http.StatusBadRequest, "invalid estimatedCompletion"},
		{"unknown stage", uuid.NewString(), `{"stage":"shipped"}`, http.StatusBadRequest, "invalid stage"},
		{"missing order", uuid.NewString(), `{"stage":"ready"}`, http.StatusNotFound, "Order not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/pos/orders/"+tt.id+"/workflow", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assertError(t, rr, tt.status, tt.msg)
		})
	}
}

// --- Payment ---

func TestOrderPayment_Completes(t *testing.T) {
	order := sampleOrder()
	var got service.RecordPaymentRequest
	svc := &mockOrderService{paymentFn: func(_ context.Context, req service.RecordPaymentRequest) (*service.RecordPaymentResult, error) {
		got = req
		return &service.RecordPaymentResult{
			Payment:    database.Payment{ID: uuid.New(), OrderID: order.ID},
			Order:      order,
			NewStage:   enum.StageCompleted,
			PaidAmount: decimal.RequireFromString("126.50"),
			BalanceDue: decimal.Zero,
			Completed:  true,
		}, nil
	}}
	router := setupOrderRouter(&mockOrderStore{}, svc, nil)

	body := `{"amount":76.5,"method":"card","processedBy":"AB","notes":"balance"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pos/orders/"+order.ID.String()+"/payment", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if got.OrderID != order.ID || got.Amount != "76.5" || got.Method != "card" || got.ProcessedBy != "AB" || got.Notes != "balance" {
		t.Fatalf("service request: got %+v", got)
	}

	resp := decodeMap(t, rr)
	if resp["success"] != true || resp["newStage"] != "completed" || resp["paidAmount"] != "126.50" || resp["balanceDue"] != "0.00" {
		t.Fatalf("body: got %v", resp)
	}
}

func TestOrderPayment_Errors(t *testing.T) {
	svc := &mockOrderService{paymentFn: func(_ context.Context, req service.RecordPaymentRequest) (*service.RecordPaymentResult, error) {
		switch req.Method {
		case "bitcoin":
			return nil, &service.ValidationError{Field: "method", Message: "method must be one of cash, card, mobile, check"}
		case "cash":
			return nil, &service.NotFoundError{Resource: "order", ID: req.OrderID.String()}
		}
		return nil, &service.PersistenceError{Op: "create payment", Err: errors.New("db down")}
	}}
	router := setupOrderRouter(&mockOrderStore{}, svc, nil)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"missing amount", `{"method":"cash"}`, http.StatusBadRequest, "amount is required"},
		{"bad method", `{"amount":"10","method":"bitcoin"}`, http.StatusBadRequest, "method must be one of cash, card, mobile, check"},
		{"missing order", `{"amount":"10","method":"cash"}`, http.StatusNotFound, "Order not found"},
		{"db failure", `{"amount":"10","method":"card"}`, http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/pos/orders/"+uuid.NewString()+"/payment", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assertError(t, rr, tt.status, tt.msg)
		})
	}
}

// --- Receipt ---

func TestOrderReceipt(t *testing.T) {
	order := sampleOrder()
	payments := []database.Payment{
		{ID: uuid.New(), OrderID: order.ID, Amount: numeric("50.00"), Method: "cash", CreatedAt: order.CreatedAt},
	}
	router := setupOrderRouter(storeWithOrder(order, nil, payments), &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders/"+order.ID.String()+"/receipt", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type: got %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "receipt_IFR123456001.pdf") {
		t.Fatalf("content disposition: got %q", cd)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a PDF")
	}
}

func TestOrderReceipt_NotFound(t *testing.T) {
	router := setupOrderRouter(storeWithOrder(sampleOrder(), nil, nil), &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/orders/"+uuid.NewString()+"/receipt", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assertError(t, rr, http.StatusNotFound, "Order not found")
}
