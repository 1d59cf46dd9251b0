package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createRepairRequest = `-- name: CreateRepairRequest :one
INSERT INTO repair_requests (
    customer_id, device_brand, device_model, issue_description, quoted_price,
    has_google_review, want_case, want_screen_protector, terms_accepted, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, customer_id, device_brand, device_model, issue_description, quoted_price, has_google_review, want_case, want_screen_protector, terms_accepted, status, created_at, updated_at
`

type CreateRepairRequestParams struct {
	CustomerID          uuid.UUID      `json:"customer_id"`
	DeviceBrand         string         `json:"device_brand"`
	DeviceModel         string         `json:"device_model"`
	IssueDescription    string         `json:"issue_description"`
	QuotedPrice         pgtype.Numeric `json:"quoted_price"`
	HasGoogleReview     bool           `json:"has_google_review"`
	WantCase            bool           `json:"want_case"`
	WantScreenProtector bool           `json:"want_screen_protector"`
	TermsAccepted       bool           `json:"terms_accepted"`
	Status              string         `json:"status"`
}

func (q *Queries) CreateRepairRequest(ctx context.Context, arg CreateRepairRequestParams) (RepairRequest, error) {
	row := q.db.QueryRow(ctx, createRepairRequest,
		arg.CustomerID,
		arg.DeviceBrand,
		arg.DeviceModel,
		arg.IssueDescription,
		arg.QuotedPrice,
		arg.HasGoogleReview,
		arg.WantCase,
		arg.WantScreenProtector,
		arg.TermsAccepted,
		arg.Status,
	)
	var i RepairRequest
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.DeviceBrand,
		&i.DeviceModel,
		&i.IssueDescription,
		&i.QuotedPrice,
		&i.HasGoogleReview,
		&i.WantCase,
		&i.WantScreenProtector,
		&i.TermsAccepted,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listRepairRequestsWithCustomer = `-- name: ListRepairRequestsWithCustomer :many
SELECT rr.id, rr.customer_id, rr.device_brand, rr.device_model, rr.issue_description,
       rr.quoted_price, rr.has_google_review, rr.want_case, rr.want_screen_protector,
       rr.terms_accepted, rr.status, rr.created_at,
       c.name AS customer_name, c.phone AS customer_phone, c.email AS customer_email
FROM repair_requests rr
JOIN customers c ON c.id = rr.customer_id
ORDER BY rr.created_at DESC
LIMIT $1
`

type ListRepairRequestsWithCustomerRow struct {
	ID                  uuid.UUID      `json:"id"`
	CustomerID          uuid.UUID      `json:"customer_id"`
	DeviceBrand         string         `json:"device_brand"`
	DeviceModel         string         `json:"device_model"`
	IssueDescription    string         `json:"issue_description"`
	QuotedPrice         pgtype.Numeric `json:"quoted_price"`
	HasGoogleReview     bool           `json:"has_google_review"`
	WantCase            bool           `json:"want_case"`
	WantScreenProtector bool           `json:"want_screen_protector"`
	TermsAccepted       bool           `json:"terms_accepted"`
	Status              string         `json:"status"`
	CreatedAt           time.Time      `json:"created_at"`
	CustomerName        string         `json:"customer_name"`
	CustomerPhone       string         `json:"customer_phone"`
	CustomerEmail       pgtype.Text    `json:"customer_email"`
}

// A NULL limit returns every row.
func (q *Queries) ListRepairRequestsWithCustomer(ctx context.Context, maxRows pgtype.Int4) ([]ListRepairRequestsWithCustomerRow, error) {
	rows, err := q.db.Query(ctx, listRepairRequestsWithCustomer, maxRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRepairRequestsWithCustomerRow
	for rows.Next() {
		var i ListRepairRequestsWithCustomerRow
		if err := rows.Scan(
			&i.ID,
			&i.CustomerID,
			&i.DeviceBrand,
			&i.DeviceModel,
			&i.IssueDescription,
			&i.QuotedPrice,
			&i.HasGoogleReview,
			&i.WantCase,
			&i.WantScreenProtector,
			&i.TermsAccepted,
			&i.Status,
			&i.CreatedAt,
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
