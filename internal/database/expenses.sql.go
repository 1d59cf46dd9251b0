package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const expenseColumns = `id, category, description, amount, payment_method, vendor, receipt_notes, expense_date, added_by, created_at`

const createExpense = `-- name: CreateExpense :one
INSERT INTO business_expenses (category, description, amount, payment_method, vendor, receipt_notes, expense_date, added_by)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()), $8)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	Category      string             `json:"category"`
	Description   string             `json:"description"`
	Amount        pgtype.Numeric     `json:"amount"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	Vendor        pgtype.Text        `json:"vendor"`
	ReceiptNotes  pgtype.Text        `json:"receipt_notes"`
	ExpenseDate   pgtype.Timestamptz `json:"expense_date"`
	AddedBy       pgtype.Text        `json:"added_by"`
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (BusinessExpense, error) {
	row := q.db.QueryRow(ctx, createExpense,
		arg.Category,
		arg.Description,
		arg.Amount,
		arg.PaymentMethod,
		arg.Vendor,
		arg.ReceiptNotes,
		arg.ExpenseDate,
		arg.AddedBy,
	)
	var i BusinessExpense
	err := scanExpense(row, &i)
	return i, err
}

const listExpensesBetween = `-- name: ListExpensesBetween :many
SELECT ` + expenseColumns + ` FROM business_expenses
WHERE expense_date >= $1 AND expense_date < $2
ORDER BY expense_date ASC
`

type ListExpensesBetweenParams struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (q *Queries) ListExpensesBetween(ctx context.Context, arg ListExpensesBetweenParams) ([]BusinessExpense, error) {
	rows, err := q.db.Query(ctx, listExpensesBetween, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BusinessExpense
	for rows.Next() {
		var i BusinessExpense
		if err := scanExpense(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanExpense(row rowScanner, i *BusinessExpense) error {
	return row.Scan(
		&i.ID,
		&i.Category,
		&i.Description,
		&i.Amount,
		&i.PaymentMethod,
		&i.Vendor,
		&i.ReceiptNotes,
		&i.ExpenseDate,
		&i.AddedBy,
		&i.CreatedAt,
	)
}
