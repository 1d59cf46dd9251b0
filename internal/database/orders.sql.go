package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const countOrdersCreatedBetween = `-- name: CountOrdersCreatedBetween :one
SELECT COUNT(*)::bigint FROM pos_orders
WHERE created_at >= $1 AND created_at < $2
`

type CountOrdersCreatedBetweenParams struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (q *Queries) CountOrdersCreatedBetween(ctx context.Context, arg CountOrdersCreatedBetweenParams) (int64, error) {
	row := q.db.QueryRow(ctx, countOrdersCreatedBetween, arg.Start, arg.End)
	var column_1 int64
	err := row.Scan(&column_1)
	return column_1, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO pos_orders (
    order_number, customer_id, repair_request_id, device_brand, device_model,
    issue_description, base_price, case_price, screen_protector_price,
    credit_card_fee, tax_amount, total_amount, current_stage
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id, order_number, customer_id, repair_request_id, device_brand, device_model, issue_description, base_price, case_price, screen_protector_price, credit_card_fee, tax_amount, total_amount, paid_amount, current_stage, assigned_technician, estimated_completion, notes, created_at, updated_at
`

type CreateOrderParams struct {
	OrderNumber          string         `json:"order_number"`
	CustomerID           uuid.UUID      `json:"customer_id"`
	RepairRequestID      pgtype.UUID    `json:"repair_request_id"`
	DeviceBrand          string         `json:"device_brand"`
	DeviceModel          string         `json:"device_model"`
	IssueDescription     string         `json:"issue_description"`
	BasePrice            pgtype.Numeric `json:"base_price"`
	CasePrice            pgtype.Numeric `json:"case_price"`
	ScreenProtectorPrice pgtype.Numeric `json:"screen_protector_price"`
	CreditCardFee        pgtype.Numeric `json:"credit_card_fee"`
	TaxAmount            pgtype.Numeric `json:"tax_amount"`
	TotalAmount          pgtype.Numeric `json:"total_amount"`
	CurrentStage         string         `json:"current_stage"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (PosOrder, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.CustomerID,
		arg.RepairRequestID,
		arg.DeviceBrand,
		arg.DeviceModel,
		arg.IssueDescription,
		arg.BasePrice,
		arg.CasePrice,
		arg.ScreenProtectorPrice,
		arg.CreditCardFee,
		arg.TaxAmount,
		arg.TotalAmount,
		arg.CurrentStage,
	)
	var i PosOrder
	err := scanPosOrder(row, &i)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, order_number, customer_id, repair_request_id, device_brand, device_model, issue_description, base_price, case_price, screen_protector_price, credit_card_fee, tax_amount, total_amount, paid_amount, current_stage, assigned_technician, estimated_completion, notes, created_at, updated_at FROM pos_orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (PosOrder, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var i PosOrder
	err := scanPosOrder(row, &i)
	return i, err
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT o.id, o.order_number, o.customer_id, o.repair_request_id, o.device_brand, o.device_model, o.issue_description, o.base_price, o.case_price, o.screen_protector_price, o.credit_card_fee, o.tax_amount, o.total_amount, o.paid_amount, o.current_stage, o.assigned_technician, o.estimated_completion, o.notes, o.created_at, o.updated_at,
       c.name AS customer_name, c.phone AS customer_phone, c.email AS customer_email
FROM pos_orders o
JOIN customers c ON c.id = o.customer_id
WHERE o.id = $1
FOR UPDATE OF o
`

type GetOrderForUpdateRow struct {
	PosOrder      PosOrder    `json:"pos_order"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	CustomerEmail pgtype.Text `json:"customer_email"`
}

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (GetOrderForUpdateRow, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var i GetOrderForUpdateRow
	err := row.Scan(
		&i.PosOrder.ID,
		&i.PosOrder.OrderNumber,
		&i.PosOrder.CustomerID,
		&i.PosOrder.RepairRequestID,
		&i.PosOrder.DeviceBrand,
		&i.PosOrder.DeviceModel,
		&i.PosOrder.IssueDescription,
		&i.PosOrder.BasePrice,
		&i.PosOrder.CasePrice,
		&i.PosOrder.ScreenProtectorPrice,
		&i.PosOrder.CreditCardFee,
		&i.PosOrder.TaxAmount,
		&i.PosOrder.TotalAmount,
		&i.PosOrder.PaidAmount,
		&i.PosOrder.CurrentStage,
		&i.PosOrder.AssignedTechnician,
		&i.PosOrder.EstimatedCompletion,
		&i.PosOrder.Notes,
		&i.PosOrder.CreatedAt,
		&i.PosOrder.UpdatedAt,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.CustomerEmail,
	)
	return i, err
}

const listOrdersWithCustomer = `-- name: ListOrdersWithCustomer :many
SELECT o.id, o.order_number, o.customer_id, o.repair_request_id, o.device_brand, o.device_model, o.issue_description, o.base_price, o.case_price, o.screen_protector_price, o.credit_card_fee, o.tax_amount, o.total_amount, o.paid_amount, o.current_stage, o.assigned_technician, o.estimated_completion, o.notes, o.created_at, o.updated_at,
       c.name AS customer_name, c.phone AS customer_phone, c.email AS customer_email
FROM pos_orders o
JOIN customers c ON c.id = o.customer_id
WHERE ($1::text IS NULL OR o.current_stage = $1::text)
ORDER BY o.created_at DESC
`

type ListOrdersWithCustomerRow struct {
	PosOrder      PosOrder    `json:"pos_order"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	CustomerEmail pgtype.Text `json:"customer_email"`
}

func (q *Queries) ListOrdersWithCustomer(ctx context.Context, stage pgtype.Text) ([]ListOrdersWithCustomerRow, error) {
	rows, err := q.db.Query(ctx, listOrdersWithCustomer, stage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListOrdersWithCustomerRow
	for rows.Next() {
		var i ListOrdersWithCustomerRow
		if err := rows.Scan(
			&i.PosOrder.ID,
			&i.PosOrder.OrderNumber,
			&i.PosOrder.CustomerID,
			&i.PosOrder.RepairRequestID,
			&i.PosOrder.DeviceBrand,
			&i.PosOrder.DeviceModel,
			&i.PosOrder.IssueDescription,
			&i.PosOrder.BasePrice,
			&i.PosOrder.CasePrice,
			&i.PosOrder.ScreenProtectorPrice,
			&i.PosOrder.CreditCardFee,
			&i.PosOrder.TaxAmount,
			&i.PosOrder.TotalAmount,
			&i.PosOrder.PaidAmount,
			&i.PosOrder.CurrentStage,
			&i.PosOrder.AssignedTechnician,
			&i.PosOrder.EstimatedCompletion,
			&i.PosOrder.Notes,
			&i.PosOrder.CreatedAt,
			&i.PosOrder.UpdatedAt,
			&i.CustomerName,
			&i.CustomerPhone,
			&i.CustomerEmail,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderPayment = `-- name: UpdateOrderPayment :one
UPDATE pos_orders
SET paid_amount = $2,
    current_stage = $3,
    updated_at = now()
WHERE id = $1
RETURNING id, order_number, customer_id, repair_request_id, device_brand, device_model, issue_description, base_price, case_price, screen_protector_price, credit_card_fee, tax_amount, total_amount, paid_amount, current_stage, assigned_technician, estimated_completion, notes, created_at, updated_at
`

type UpdateOrderPaymentParams struct {
	ID           uuid.UUID      `json:"id"`
	PaidAmount   pgtype.Numeric `json:"paid_amount"`
	CurrentStage string         `json:"current_stage"`
}

func (q *Queries) UpdateOrderPayment(ctx context.Context, arg UpdateOrderPaymentParams) (PosOrder, error) {
	row := q.db.QueryRow(ctx, updateOrderPayment, arg.ID, arg.PaidAmount, arg.CurrentStage)
	var i PosOrder
	err := scanPosOrder(row, &i)
	return i, err
}

const updateOrderStage = `-- name: UpdateOrderStage :one
UPDATE pos_orders
SET current_stage = $2,
    assigned_technician = $3,
    estimated_completion = $4,
    updated_at = now()
WHERE id = $1
RETURNING id, order_number, customer_id, repair_request_id, device_brand, device_model, issue_description, base_price, case_price, screen_protector_price, credit_card_fee, tax_amount, total_amount, paid_amount, current_stage, assigned_technician, estimated_completion, notes, created_at, updated_at
`

type UpdateOrderStageParams struct {
	ID                  uuid.UUID          `json:"id"`
	CurrentStage        string             `json:"current_stage"`
	AssignedTechnician  pgtype.Text        `json:"assigned_technician"`
	EstimatedCompletion pgtype.Timestamptz `json:"estimated_completion"`
}

func (q *Queries) UpdateOrderStage(ctx context.Context, arg UpdateOrderStageParams) (PosOrder, error) {
	row := q.db.QueryRow(ctx, updateOrderStage,
		arg.ID,
		arg.CurrentStage,
		arg.AssignedTechnician,
		arg.EstimatedCompletion,
	)
	var i PosOrder
	err := scanPosOrder(row, &i)
	return i, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosOrder(row rowScanner, i *PosOrder) error {
	return row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.CustomerID,
		&i.RepairRequestID,
		&i.DeviceBrand,
		&i.DeviceModel,
		&i.IssueDescription,
		&i.BasePrice,
		&i.CasePrice,
		&i.ScreenProtectorPrice,
		&i.CreditCardFee,
		&i.TaxAmount,
		&i.TotalAmount,
		&i.PaidAmount,
		&i.CurrentStage,
		&i.AssignedTechnician,
		&i.EstimatedCompletion,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
}
