package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const workflowStageColumns = `id, order_id, stage, assigned_employee, notes, estimated_completion, sms_notification_sent, email_notification_sent, started_at, completed_at, duration_minutes`

const completeWorkflowStage = `-- name: CompleteWorkflowStage :one
UPDATE workflow_stages
SET completed_at = $2,
    duration_minutes = $3
WHERE id = $1
RETURNING ` + workflowStageColumns

type CompleteWorkflowStageParams struct {
	ID              uuid.UUID          `json:"id"`
	CompletedAt     pgtype.Timestamptz `json:"completed_at"`
	DurationMinutes pgtype.Int4        `json:"duration_minutes"`
}

func (q *Queries) CompleteWorkflowStage(ctx context.Context, arg CompleteWorkflowStageParams) (WorkflowStage, error) {
	row := q.db.QueryRow(ctx, completeWorkflowStage, arg.ID, arg.CompletedAt, arg.DurationMinutes)
	var i WorkflowStage
	err := scanWorkflowStage(row, &i)
	return i, err
}

const createWorkflowStage = `-- name: CreateWorkflowStage :one
INSERT INTO workflow_stages (order_id, stage, assigned_employee, notes, estimated_completion, started_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
RETURNING ` + workflowStageColumns

type CreateWorkflowStageParams struct {
	OrderID             uuid.UUID          `json:"order_id"`
	Stage               string             `json:"stage"`
	AssignedEmployee    pgtype.Text        `json:"assigned_employee"`
	Notes               pgtype.Text        `json:"notes"`
	EstimatedCompletion pgtype.Timestamptz `json:"estimated_completion"`
	StartedAt           pgtype.Timestamptz `json:"started_at"`
}

func (q *Queries) CreateWorkflowStage(ctx context.Context, arg CreateWorkflowStageParams) (WorkflowStage, error) {
	row := q.db.QueryRow(ctx, createWorkflowStage,
		arg.OrderID,
		arg.Stage,
		arg.AssignedEmployee,
		arg.Notes,
		arg.EstimatedCompletion,
		arg.StartedAt,
	)
	var i WorkflowStage
	err := scanWorkflowStage(row, &i)
	return i, err
}

const getOpenWorkflowStage = `-- name: GetOpenWorkflowStage :one
SELECT ` + workflowStageColumns + ` FROM workflow_stages
WHERE order_id = $1 AND stage = $2 AND completed_at IS NULL
ORDER BY started_at DESC
LIMIT 1
`

type GetOpenWorkflowStageParams struct {
	OrderID uuid.UUID `json:"order_id"`
	Stage   string    `json:"stage"`
}

func (q *Queries) GetOpenWorkflowStage(ctx context.Context, arg GetOpenWorkflowStageParams) (WorkflowStage, error) {
	row := q.db.QueryRow(ctx, getOpenWorkflowStage, arg.OrderID, arg.Stage)
	var i WorkflowStage
	err := scanWorkflowStage(row, &i)
	return i, err
}

const listWorkflowStagesByOrder = `-- name: ListWorkflowStagesByOrder :many
SELECT ` + workflowStageColumns + ` FROM workflow_stages
WHERE order_id = $1
ORDER BY started_at ASC
`

func (q *Queries) ListWorkflowStagesByOrder(ctx context.Context, orderID uuid.UUID) ([]WorkflowStage, error) {
	rows, err := q.db.Query(ctx, listWorkflowStagesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WorkflowStage
	for rows.Next() {
		var i WorkflowStage
		if err := scanWorkflowStage(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markWorkflowStageNotified = `-- name: MarkWorkflowStageNotified :exec
UPDATE workflow_stages
SET sms_notification_sent = sms_notification_sent OR $2,
    email_notification_sent = email_notification_sent OR $3
WHERE id = $1
`

type MarkWorkflowStageNotifiedParams struct {
	ID                    uuid.UUID `json:"id"`
	SmsNotificationSent   bool      `json:"sms_notification_sent"`
	EmailNotificationSent bool      `json:"email_notification_sent"`
}

func (q *Queries) MarkWorkflowStageNotified(ctx context.Context, arg MarkWorkflowStageNotifiedParams) error {
	_, err := q.db.Exec(ctx, markWorkflowStageNotified, arg.ID, arg.SmsNotificationSent, arg.EmailNotificationSent)
	return err
}

func scanWorkflowStage(row rowScanner, i *WorkflowStage) error {
	return row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Stage,
		&i.AssignedEmployee,
		&i.Notes,
		&i.EstimatedCompletion,
		&i.SmsNotificationSent,
		&i.EmailNotificationSent,
		&i.StartedAt,
		&i.CompletedAt,
		&i.DurationMinutes,
	)
}
