package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, amount, method, transaction_id, processor_fee, notes, processed_by, created_at`

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (order_id, amount, method, transaction_id, processor_fee, notes, processed_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	OrderID       uuid.UUID      `json:"order_id"`
	Amount        pgtype.Numeric `json:"amount"`
	Method        string         `json:"method"`
	TransactionID pgtype.Text    `json:"transaction_id"`
	ProcessorFee  pgtype.Numeric `json:"processor_fee"`
	Notes         pgtype.Text    `json:"notes"`
	ProcessedBy   pgtype.Text    `json:"processed_by"`
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.OrderID,
		arg.Amount,
		arg.Method,
		arg.TransactionID,
		arg.ProcessorFee,
		arg.Notes,
		arg.ProcessedBy,
	)
	var i Payment
	err := scanPayment(row, &i)
	return i, err
}

const listPaymentsBetween = `-- name: ListPaymentsBetween :many
SELECT ` + paymentColumns + ` FROM payments
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at ASC
`

type ListPaymentsBetweenParams struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (q *Queries) ListPaymentsBetween(ctx context.Context, arg ListPaymentsBetweenParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsBetween, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var i Payment
		if err := scanPayment(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPaymentsByOrder = `-- name: ListPaymentsByOrder :many
SELECT ` + paymentColumns + ` FROM payments
WHERE order_id = $1
ORDER BY created_at ASC
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		var i Payment
		if err := scanPayment(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanPayment(row rowScanner, i *Payment) error {
	return row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Amount,
		&i.Method,
		&i.TransactionID,
		&i.ProcessorFee,
		&i.Notes,
		&i.ProcessedBy,
		&i.CreatedAt,
	)
}
