package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
	"github.com/ifixandrepair/shop-api/internal/notify"
)

// AdvanceStageRequest moves an order to a new workflow stage. Any of the
// eight stages is accepted regardless of the current one.
type AdvanceStageRequest struct {
	OrderID             uuid.UUID
	Stage               string
	AssignedEmployee    string
	Notes               string
	EstimatedCompletion *time.Time
	SendSMS             bool
}

// AdvanceStageResult is the new stage event and the delivery outcome per
// channel; an empty outcome means the channel was not attempted.
type AdvanceStageResult struct {
	Stage         database.WorkflowStage
	Order         database.PosOrder
	PreviousStage string
	Closed        *database.WorkflowStage
	SMS           notify.Outcome
	Email         notify.Outcome
}

// AdvanceStage records a stage transition under a row lock on the order,
// then notifies the customer. Notification failures never undo the
// transition.
func (s *OrderService) AdvanceStage(ctx context.Context, req AdvanceStageRequest) (*AdvanceStageResult, error) {
	if !enum.IsStage(req.Stage) {
		return nil, invalid("stage", "invalid stage")
	}

	result, contact, err := s.advanceStageTx(ctx, req)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveStageTransition(req.Stage)
	s.log.Info("stage changed",
		zap.String("order_number", result.Order.OrderNumber),
		zap.String("from", result.PreviousStage),
		zap.String("to", req.Stage),
	)

	payload := notify.Payload{
		CustomerName:     contact.name,
		OrderNumber:      result.Order.OrderNumber,
		DeviceInfo:       deviceInfo(result.Order),
		IssueDescription: result.Order.IssueDescription,
		CurrentStage:     req.Stage,
		Notes:            req.Notes,
		TotalAmount:      numericToDecimal(result.Order.TotalAmount).StringFixed(2),
	}
	if req.EstimatedCompletion != nil {
		payload.EstimatedCompletion = req.EstimatedCompletion.In(s.loc).Format(estimateDateFmt)
	}

	if req.SendSMS && contact.phone != "" {
		result.SMS = s.notify(ctx, notify.Notification{
			Channel: notify.ChannelSMS,
			Kind:    smsKindFor(result.PreviousStage, req.Stage),
			To:      contact.phone,
			Payload: payload,
		})
	}
	if contact.email != "" {
		result.Email = s.notify(ctx, notify.Notification{
			Channel: notify.ChannelEmail,
			Kind:    notify.KindStatusUpdate,
			To:      contact.email,
			Payload: payload,
		})
	}

	smsSent := result.SMS == notify.OutcomeSent
	emailSent := result.Email == notify.OutcomeSent
	if smsSent || emailSent {
		if err := s.markNotified(ctx, result.Stage.ID, smsSent, emailSent); err != nil {
			s.log.Warn("failed to record notification flags",
				zap.String("stage_id", result.Stage.ID.String()),
				zap.Error(err),
			)
		} else {
			result.Stage.SmsNotificationSent = result.Stage.SmsNotificationSent || smsSent
			result.Stage.EmailNotificationSent = result.Stage.EmailNotificationSent || emailSent
		}
	}

	s.publish(EventOrderStageChanged, result.Order, nil)
	return result, nil
}

type customerContact struct {
	name  string
	phone string
	email string
}

func (s *OrderService) advanceStageTx(ctx context.Context, req AdvanceStageRequest) (*AdvanceStageResult, customerContact, error) {
	var contact customerContact

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, contact, persistence("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := s.now()

	// --- Lock order ---
	row, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		return nil, contact, notFoundOr("get order", "order", req.OrderID.String(), err)
	}
	contact = customerContact{
		name:  row.CustomerName,
		phone: row.CustomerPhone,
	}
	if row.CustomerEmail.Valid {
		contact.email = row.CustomerEmail.String
	}
	previous := row.PosOrder.CurrentStage

	// --- Close open stage ---
	closed, err := closeOpenStage(ctx, store, row.PosOrder.ID, previous, now)
	if err != nil {
		return nil, contact, err
	}

	// --- Open new stage ---
	estimate := optionalTime(req.EstimatedCompletion)
	stage, err := store.CreateWorkflowStage(ctx, database.CreateWorkflowStageParams{
		OrderID:             row.PosOrder.ID,
		Stage:               req.Stage,
		AssignedEmployee:    optionalText(req.AssignedEmployee),
		Notes:               optionalText(req.Notes),
		EstimatedCompletion: estimate,
		StartedAt:           pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		return nil, contact, persistence("create workflow stage", err)
	}

	// --- Update order ---
	order, err := store.UpdateOrderStage(ctx, database.UpdateOrderStageParams{
		ID:                  row.PosOrder.ID,
		CurrentStage:        req.Stage,
		AssignedTechnician:  optionalText(req.AssignedEmployee),
		EstimatedCompletion: estimate,
	})
	if err != nil {
		return nil, contact, persistence("update order stage", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, contact, persistence("commit tx", err)
	}

	return &AdvanceStageResult{
		Stage:         stage,
		Order:         order,
		PreviousStage: previous,
		Closed:        closed,
	}, contact, nil
}

// markNotified persists the sent flags in a short transaction of its own.
func (s *OrderService) markNotified(ctx context.Context, stageID uuid.UUID, sms, email bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return persistence("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.newStore(tx).MarkWorkflowStageNotified(ctx, database.MarkWorkflowStageNotifiedParams{
		ID:                    stageID,
		SmsNotificationSent:   sms,
		EmailNotificationSent: email,
	}); err != nil {
		return persistence("mark workflow stage notified", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return persistence("commit tx", err)
	}
	return nil
}

// smsKindFor picks the text message for a transition.
func smsKindFor(previous, next string) notify.Kind {
	switch {
	case next == enum.StageReady:
		return notify.KindReadyForPickup
	case next == enum.StageWaitingForParts:
		return notify.KindPartsNeeded
	case previous == enum.StageDiagnostic:
		return notify.KindDiagnosticComplete
	default:
		return notify.KindStatusUpdate
	}
}
