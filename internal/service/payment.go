package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
)

// RecordPaymentRequest is one payment against an order.
type RecordPaymentRequest struct {
	OrderID       uuid.UUID
	Amount        string
	Method        string
	TransactionID string
	ProcessorFee  string
	ProcessedBy   string
	Notes         string
}

// RecordPaymentResult carries the stored payment and the order's new state.
type RecordPaymentResult struct {
	Payment    database.Payment
	Order      database.PosOrder
	NewStage   string
	PaidAmount decimal.Decimal
	BalanceDue decimal.Decimal
	// Completed is set when this payment moved the order to completed.
	Completed bool
}

// RecordPayment adds a payment to an order's running paid amount. Once the
// paid amount covers the total the order moves to completed. The amount is
// taken as given: zero, negative and overpaying amounts are all recorded.
func (s *OrderService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, invalid("amount", "invalid amount")
	}
	if !enum.IsPaymentMethod(req.Method) {
		return nil, invalid("method", "method must be one of cash, card, mobile, check")
	}

	fee := decimal.Zero
	if raw := strings.TrimSpace(req.ProcessorFee); raw != "" {
		fee, err = decimal.NewFromString(raw)
		if err != nil || fee.IsNegative() {
			return nil, invalid("processorFee", "invalid processorFee")
		}
	}

	result, err := s.recordPaymentTx(ctx, req, amount, fee)
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePayment(req.Method)
	if result.Completed {
		s.metrics.ObserveStageTransition(enum.StageCompleted)
	}
	s.log.Info("payment recorded",
		zap.String("order_number", result.Order.OrderNumber),
		zap.String("amount", amount.String()),
		zap.String("method", req.Method),
		zap.String("stage", result.NewStage),
	)

	s.publish(EventOrderPaymentRecorded, result.Order, &result.Payment)
	return result, nil
}

func (s *OrderService) recordPaymentTx(ctx context.Context, req RecordPaymentRequest, amount, fee decimal.Decimal) (*RecordPaymentResult, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, persistence("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := s.now()

	// --- Lock order ---
	row, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		return nil, notFoundOr("get order", "order", req.OrderID.String(), err)
	}
	current := row.PosOrder

	// --- Insert payment ---
	payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		OrderID:       current.ID,
		Amount:        exactNumeric(amount),
		Method:        req.Method,
		TransactionID: optionalText(req.TransactionID),
		ProcessorFee:  decimalToNumeric(fee),
		Notes:         optionalText(req.Notes),
		ProcessedBy:   optionalText(req.ProcessedBy),
	})
	if err != nil {
		return nil, persistence("create payment", err)
	}

	paid := numericToDecimal(current.PaidAmount).Add(amount)
	total := numericToDecimal(current.TotalAmount)

	// --- Complete when paid in full ---
	stage := current.CurrentStage
	completed := false
	if paid.GreaterThanOrEqual(total) && stage != enum.StageCompleted {
		if _, err := closeOpenStage(ctx, store, current.ID, stage, now); err != nil {
			return nil, err
		}
		if _, err := store.CreateWorkflowStage(ctx, database.CreateWorkflowStageParams{
			OrderID:          current.ID,
			Stage:            enum.StageCompleted,
			AssignedEmployee: optionalText(req.ProcessedBy),
			Notes:            optionalText(paidInFullNote),
			StartedAt:        pgtype.Timestamptz{Time: now, Valid: true},
		}); err != nil {
			return nil, persistence("create workflow stage", err)
		}
		stage = enum.StageCompleted
		completed = true
	}

	// --- Update order ---
	order, err := store.UpdateOrderPayment(ctx, database.UpdateOrderPaymentParams{
		ID:           current.ID,
		PaidAmount:   exactNumeric(paid),
		CurrentStage: stage,
	})
	if err != nil {
		return nil, persistence("update order payment", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit tx", err)
	}

	return &RecordPaymentResult{
		Payment:    payment,
		Order:      order,
		NewStage:   stage,
		PaidAmount: paid,
		BalanceDue: BalanceDue(total, paid),
		Completed:  completed,
	}, nil
}

// BalanceDue is total minus paid, floored at zero.
func BalanceDue(total, paid decimal.Decimal) decimal.Decimal {
	due := total.Sub(paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
