package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/service"
)

func num(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(s)
	return n
}

func sampleSummary() *service.Summary {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &service.Summary{
		Start:    start,
		End:      start.AddDate(0, 0, 7),
		Revenue:  decimal.RequireFromString("150"),
		Expenses: decimal.RequireFromString("40"),
		Profit:   decimal.RequireFromString("110"),
		ByMethod: map[string]decimal.Decimal{
			"cash": decimal.RequireFromString("100"),
			"card": decimal.RequireFromString("50"),
		},
		ByCategory:    map[string]decimal.Decimal{"parts": decimal.RequireFromString("40")},
		PaymentsCount: 2,
		OrdersPaid:    2,
		ExpensesCount: 1,
		PaymentRows: []database.Payment{
			{ID: uuid.New(), OrderID: uuid.New(), Amount: num("100"), Method: "cash", CreatedAt: start.Add(10 * time.Hour)},
			{ID: uuid.New(), OrderID: uuid.New(), Amount: num("50"), Method: "card", ProcessedBy: pgtype.Text{String: "Omar", Valid: true}, CreatedAt: start.Add(30 * time.Hour)},
		},
		ExpenseRows: []database.BusinessExpense{
			{ID: uuid.New(), Category: "parts", Description: "iPhone 13 screen", Amount: num("40"), ExpenseDate: start.Add(12 * time.Hour)},
		},
	}
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(sampleSummary(), time.UTC)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetPayments, SheetExpenses}, f.GetSheetList())

	v, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", v, "end date is the last included day")

	v, _ = f.GetCellValue(SheetPayments, "C3")
	assert.Equal(t, "card", v)
	v, _ = f.GetCellValue(SheetPayments, "G3")
	assert.Equal(t, "Omar", v)

	rows, err := f.GetRows(SheetExpenses)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "iPhone 13 screen", rows[1][2])
}

func TestWorkbook_RoundTrip(t *testing.T) {
	f, err := Workbook(sampleSummary(), time.UTC)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	reopened, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.GetRows(SheetPayments)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, paymentHeaders, rows[0])
}

func TestWorkbook_Empty(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f, err := Workbook(&service.Summary{Start: start, End: start.AddDate(0, 0, 1), ByMethod: map[string]decimal.Decimal{}}, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPayments)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "financial_report_2025-03-01_2025-03-31.xlsx", Filename("2025-03-01", "2025-03-31"))
}
