package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
	"github.com/ifixandrepair/shop-api/internal/metrics"
	"github.com/ifixandrepair/shop-api/internal/notify"
	"github.com/ifixandrepair/shop-api/internal/pricing"
)

const maxIntakeRetries = 3

const (
	orderNumberConstraint   = "pos_orders_order_number_key"
	customerPhoneConstraint = "customers_phone_key"
)

const (
	intakeStageNote = "Order received from customer intake form"
	paidInFullNote  = "Paid in full"
	defaultEstimate = "We will contact you with an update soon"
	estimateDateFmt = "Jan 2, 2006"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods used by the order lifecycle.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetCustomerByPhone(ctx context.Context, phone string) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	UpdateCustomerContact(ctx context.Context, arg database.UpdateCustomerContactParams) (database.Customer, error)
	CreateRepairRequest(ctx context.Context, arg database.CreateRepairRequestParams) (database.RepairRequest, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.PosOrder, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.GetOrderForUpdateRow, error)
	UpdateOrderStage(ctx context.Context, arg database.UpdateOrderStageParams) (database.PosOrder, error)
	UpdateOrderPayment(ctx context.Context, arg database.UpdateOrderPaymentParams) (database.PosOrder, error)
	CreateWorkflowStage(ctx context.Context, arg database.CreateWorkflowStageParams) (database.WorkflowStage, error)
	GetOpenWorkflowStage(ctx context.Context, arg database.GetOpenWorkflowStageParams) (database.WorkflowStage, error)
	CompleteWorkflowStage(ctx context.Context, arg database.CompleteWorkflowStageParams) (database.WorkflowStage, error)
	MarkWorkflowStageNotified(ctx context.Context, arg database.MarkWorkflowStageNotifiedParams) error
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// Notifier delivers one customer notification and reports the outcome. It
// never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) notify.Outcome
}

// OrderService owns the order lifecycle: intake, stage changes and payments.
type OrderService struct {
	pool        TxBeginner
	newStore    NewOrderStore
	notifier    Notifier
	events      EventPublisher
	metrics     *metrics.Metrics
	log         *zap.Logger
	loc         *time.Location
	now         func() time.Time
	orderNumber func(time.Time) string
}

// OrderServiceDeps groups the optional collaborators of OrderService.
type OrderServiceDeps struct {
	Notifier Notifier
	Events   EventPublisher
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Location *time.Location
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, deps OrderServiceDeps) *OrderService {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{
		pool:        pool,
		newStore:    newStore,
		notifier:    deps.Notifier,
		events:      deps.Events,
		metrics:     deps.Metrics,
		log:         log.Named("orders"),
		loc:         loc,
		now:         time.Now,
		orderNumber: generateOrderNumber,
	}
}

// generateOrderNumber builds "IFR" + the last six digits of the unix
// millisecond clock + three random digits.
func generateOrderNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("IFR%s%03d", ms, rand.Intn(1000))
}

// --- Intake ---

// IntakeRequest is the customer intake form.
type IntakeRequest struct {
	Name                string
	Phone               string
	Email               string
	DeviceBrand         string
	DeviceModel         string
	IssueDescription    string
	QuotedPrice         string
	HasGoogleReview     bool
	WantCase            bool
	WantScreenProtector bool
	TermsAccepted       bool
}

// IntakeResult is everything intake created.
type IntakeResult struct {
	Customer      database.Customer
	RepairRequest database.RepairRequest
	Order         database.PosOrder
	Pricing       pricing.Breakdown
	Email         notify.Outcome
}

// MaxQuotedPrice keeps the priced total inside the NUMERIC(10,2) columns.
var MaxQuotedPrice = decimal.RequireFromString("9999999.99")

// ParseQuotedPrice validates a quoted price: present, numeric, not negative
// and at most MaxQuotedPrice. The result is rounded to the cent.
func ParseQuotedPrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, invalid("quotedPrice", "quotedPrice is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid("quotedPrice", "invalid quotedPrice")
	}
	if d.IsNegative() {
		return decimal.Zero, invalid("quotedPrice", "quotedPrice must be >= 0")
	}
	d = d.Round(2)
	if d.GreaterThan(MaxQuotedPrice) {
		return decimal.Zero, invalid("quotedPrice", "quotedPrice must be <= "+MaxQuotedPrice.StringFixed(2))
	}
	return d, nil
}

// Intake finds or creates the customer by phone, records the repair request,
// prices it, and opens an order in the received stage, all in one
// transaction. A confirmation email follows the commit when the customer has
// an address.
func (s *OrderService) Intake(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.DeviceBrand = strings.TrimSpace(req.DeviceBrand)
	req.DeviceModel = strings.TrimSpace(req.DeviceModel)
	req.IssueDescription = strings.TrimSpace(req.IssueDescription)

	switch {
	case req.Phone == "":
		return nil, invalid("phone", "phone is required")
	case req.DeviceBrand == "":
		return nil, invalid("deviceBrand", "device brand is required")
	case req.DeviceModel == "":
		return nil, invalid("deviceModel", "device model is required")
	case req.IssueDescription == "":
		return nil, invalid("issueDescription", "issue description is required")
	}

	base, err := ParseQuotedPrice(req.QuotedPrice)
	if err != nil {
		return nil, err
	}
	if !req.TermsAccepted {
		return nil, invalid("termsAccepted", "terms must be accepted")
	}

	breakdown := pricing.Calculate(base, pricing.Options{
		WantCase:            req.WantCase,
		WantScreenProtector: req.WantScreenProtector,
		HasGoogleReview:     req.HasGoogleReview,
	})

	// Retry loop: a generated order number or a concurrent first intake of
	// the same phone can collide on a unique constraint.
	var result *IntakeResult
	var lastErr error
	for attempt := 0; attempt < maxIntakeRetries; attempt++ {
		result, err = s.intakeTx(ctx, req, base, breakdown)
		if err == nil {
			lastErr = nil
			break
		}
		if isUniqueViolation(err, orderNumberConstraint) || isUniqueViolation(err, customerPhoneConstraint) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}

	s.metrics.ObserveOrderCreated()
	s.log.Info("order created",
		zap.String("order_number", result.Order.OrderNumber),
		zap.String("customer_id", result.Customer.ID.String()),
	)

	if email := result.Customer.Email; email.Valid && email.String != "" {
		result.Email = s.notify(ctx, notify.Notification{
			Channel: notify.ChannelEmail,
			Kind:    notify.KindConfirmation,
			To:      email.String,
			Payload: notify.Payload{
				CustomerName:        result.Customer.Name,
				OrderNumber:         result.Order.OrderNumber,
				DeviceInfo:          deviceInfo(result.Order),
				IssueDescription:    result.Order.IssueDescription,
				CurrentStage:        result.Order.CurrentStage,
				EstimatedCompletion: defaultEstimate,
				TotalAmount:         breakdown.TotalAmount.StringFixed(2),
			},
		})
	}

	s.publish(EventOrderCreated, result.Order, nil)
	return result, nil
}

func (s *OrderService) intakeTx(ctx context.Context, req IntakeRequest, base decimal.Decimal, breakdown pricing.Breakdown) (*IntakeResult, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := s.now()

	// --- Find or create customer ---
	customer, err := store.GetCustomerByPhone(ctx, req.Phone)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if req.Name == "" {
			return nil, invalid("name", "name is required for a new customer")
		}
		customer, err = store.CreateCustomer(ctx, database.CreateCustomerParams{
			Name:  req.Name,
			Phone: req.Phone,
			Email: optionalText(req.Email),
		})
		if err != nil {
			return nil, persistence("create customer", err)
		}
	case err != nil:
		return nil, persistence("get customer by phone", err)
	case req.Name != "" || req.Email != "":
		customer, err = store.UpdateCustomerContact(ctx, database.UpdateCustomerContactParams{
			ID:    customer.ID,
			Name:  optionalText(req.Name),
			Email: optionalText(req.Email),
		})
		if err != nil {
			return nil, persistence("update customer", err)
		}
	}

	// --- Repair request ---
	rr, err := store.CreateRepairRequest(ctx, database.CreateRepairRequestParams{
		CustomerID:          customer.ID,
		DeviceBrand:         req.DeviceBrand,
		DeviceModel:         req.DeviceModel,
		IssueDescription:    req.IssueDescription,
		QuotedPrice:         decimalToNumeric(base),
		HasGoogleReview:     req.HasGoogleReview,
		WantCase:            req.WantCase,
		WantScreenProtector: req.WantScreenProtector,
		TermsAccepted:       req.TermsAccepted,
		Status:              enum.RepairRequestSubmitted,
	})
	if err != nil {
		return nil, persistence("create repair request", err)
	}

	// --- Order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:          s.orderNumber(now),
		CustomerID:           customer.ID,
		RepairRequestID:      pgtype.UUID{Bytes: rr.ID, Valid: true},
		DeviceBrand:          req.DeviceBrand,
		DeviceModel:          req.DeviceModel,
		IssueDescription:     req.IssueDescription,
		BasePrice:            decimalToNumeric(breakdown.BasePrice),
		CasePrice:            decimalToNumeric(breakdown.CasePrice),
		ScreenProtectorPrice: decimalToNumeric(breakdown.ScreenProtectorPrice),
		CreditCardFee:        decimalToNumeric(breakdown.CreditCardFee),
		TaxAmount:            decimalToNumeric(breakdown.TaxAmount),
		TotalAmount:          decimalToNumeric(breakdown.TotalAmount),
		CurrentStage:         enum.StageReceived,
	})
	if err != nil {
		return nil, persistence("create order", err)
	}

	// --- First stage event ---
	if _, err := store.CreateWorkflowStage(ctx, database.CreateWorkflowStageParams{
		OrderID:   order.ID,
		Stage:     enum.StageReceived,
		Notes:     optionalText(intakeStageNote),
		StartedAt: pgtype.Timestamptz{Time: now, Valid: true},
	}); err != nil {
		return nil, persistence("create workflow stage", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit tx", err)
	}

	return &IntakeResult{
		Customer:      customer,
		RepairRequest: rr,
		Order:         order,
		Pricing:       breakdown,
	}, nil
}

// --- Helpers ---

func (s *OrderService) notify(ctx context.Context, n notify.Notification) notify.Outcome {
	if s.notifier == nil {
		return notify.OutcomeSkipped
	}
	return s.notifier.Notify(ctx, n)
}

// closeOpenStage stamps completion on the open event for stage, if any.
// Duration is whole minutes, floored, never negative.
func closeOpenStage(ctx context.Context, store OrderStore, orderID uuid.UUID, stage string, now time.Time) (*database.WorkflowStage, error) {
	open, err := store.GetOpenWorkflowStage(ctx, database.GetOpenWorkflowStageParams{
		OrderID: orderID,
		Stage:   stage,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("get open workflow stage", err)
	}

	closed, err := store.CompleteWorkflowStage(ctx, database.CompleteWorkflowStageParams{
		ID:              open.ID,
		CompletedAt:     pgtype.Timestamptz{Time: now, Valid: true},
		DurationMinutes: pgtype.Int4{Int32: stageDurationMinutes(open.StartedAt, now), Valid: true},
	})
	if err != nil {
		return nil, persistence("complete workflow stage", err)
	}
	return &closed, nil
}

func stageDurationMinutes(startedAt, now time.Time) int32 {
	d := now.Sub(startedAt)
	if d < 0 {
		return 0
	}
	return int32(d / time.Minute)
}

func deviceInfo(o database.PosOrder) string {
	return strings.TrimSpace(o.DeviceBrand + " " + o.DeviceModel)
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func optionalTime(t *time.Time) pgtype.Timestamptz {
	if t == nil || t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// exactNumeric keeps every digit of d; the column's scale decides storage.
func exactNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

// NumericToDecimal converts a database numeric to a decimal; NULL is zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal { return numericToDecimal(n) }
