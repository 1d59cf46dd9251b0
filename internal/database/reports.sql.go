package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const createFinancialReport = `-- name: CreateFinancialReport :one
INSERT INTO financial_reports (
    report_type, start_date, end_date, total_revenue, total_expenses, net_profit,
    orders_count, average_order_value, payment_breakdown, expense_breakdown, generated_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, report_type, start_date, end_date, total_revenue, total_expenses, net_profit, orders_count, average_order_value, payment_breakdown, expense_breakdown, generated_at, generated_by
`

type CreateFinancialReportParams struct {
	ReportType        string         `json:"report_type"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	TotalRevenue      pgtype.Numeric `json:"total_revenue"`
	TotalExpenses     pgtype.Numeric `json:"total_expenses"`
	NetProfit         pgtype.Numeric `json:"net_profit"`
	OrdersCount       int32          `json:"orders_count"`
	AverageOrderValue pgtype.Numeric `json:"average_order_value"`
	PaymentBreakdown  []byte         `json:"payment_breakdown"`
	ExpenseBreakdown  []byte         `json:"expense_breakdown"`
	GeneratedBy       pgtype.Text    `json:"generated_by"`
}

func (q *Queries) CreateFinancialReport(ctx context.Context, arg CreateFinancialReportParams) (FinancialReport, error) {
	row := q.db.QueryRow(ctx, createFinancialReport,
		arg.ReportType,
		arg.StartDate,
		arg.EndDate,
		arg.TotalRevenue,
		arg.TotalExpenses,
		arg.NetProfit,
		arg.OrdersCount,
		arg.AverageOrderValue,
		arg.PaymentBreakdown,
		arg.ExpenseBreakdown,
		arg.GeneratedBy,
	)
	var i FinancialReport
	err := row.Scan(
		&i.ID,
		&i.ReportType,
		&i.StartDate,
		&i.EndDate,
		&i.TotalRevenue,
		&i.TotalExpenses,
		&i.NetProfit,
		&i.OrdersCount,
		&i.AverageOrderValue,
		&i.PaymentBreakdown,
		&i.ExpenseBreakdown,
		&i.GeneratedAt,
		&i.GeneratedBy,
	)
	return i, err
}

const upsertDailySummary = `-- name: UpsertDailySummary :one
INSERT INTO daily_summaries (
    date, total_revenue, total_expenses, orders_count, payments_count,
    cash_total, card_total, mobile_total, check_total,
    closed_by, closed_at, is_manual_close, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), true, $11)
ON CONFLICT (date) DO UPDATE SET
    total_revenue = EXCLUDED.total_revenue,
    total_expenses = EXCLUDED.total_expenses,
    orders_count = EXCLUDED.orders_count,
    payments_count = EXCLUDED.payments_count,
    cash_total = EXCLUDED.cash_total,
    card_total = EXCLUDED.card_total,
    mobile_total = EXCLUDED.mobile_total,
    check_total = EXCLUDED.check_total,
    closed_by = EXCLUDED.closed_by,
    closed_at = EXCLUDED.closed_at,
    is_manual_close = true,
    notes = EXCLUDED.notes
RETURNING id, date, total_revenue, total_expenses, orders_count, payments_count, cash_total, card_total, mobile_total, check_total, closed_by, closed_at, is_manual_close, notes, created_at
`

type UpsertDailySummaryParams struct {
	Date          pgtype.Date    `json:"date"`
	TotalRevenue  pgtype.Numeric `json:"total_revenue"`
	TotalExpenses pgtype.Numeric `json:"total_expenses"`
	OrdersCount   int32          `json:"orders_count"`
	PaymentsCount int32          `json:"payments_count"`
	CashTotal     pgtype.Numeric `json:"cash_total"`
	CardTotal     pgtype.Numeric `json:"card_total"`
	MobileTotal   pgtype.Numeric `json:"mobile_total"`
	CheckTotal    pgtype.Numeric `json:"check_total"`
	ClosedBy      pgtype.Text    `json:"closed_by"`
	Notes         pgtype.Text    `json:"notes"`
}

func (q *Queries) UpsertDailySummary(ctx context.Context, arg UpsertDailySummaryParams) (DailySummary, error) {
	row := q.db.QueryRow(ctx, upsertDailySummary,
		arg.Date,
		arg.TotalRevenue,
		arg.TotalExpenses,
		arg.OrdersCount,
		arg.PaymentsCount,
		arg.CashTotal,
		arg.CardTotal,
		arg.MobileTotal,
		arg.CheckTotal,
		arg.ClosedBy,
		arg.Notes,
	)
	var i DailySummary
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.TotalRevenue,
		&i.TotalExpenses,
		&i.OrdersCount,
		&i.PaymentsCount,
		&i.CashTotal,
		&i.CardTotal,
		&i.MobileTotal,
		&i.CheckTotal,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.IsManualClose,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}
