package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
)

const dateLayout = "2006-01-02"

// ReportStore defines the DB methods needed for reporting.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	ListPaymentsBetween(ctx context.Context, arg database.ListPaymentsBetweenParams) ([]database.Payment, error)
	ListExpensesBetween(ctx context.Context, arg database.ListExpensesBetweenParams) ([]database.BusinessExpense, error)
	CountOrdersCreatedBetween(ctx context.Context, arg database.CountOrdersCreatedBetweenParams) (int64, error)
	UpsertDailySummary(ctx context.Context, arg database.UpsertDailySummaryParams) (database.DailySummary, error)
	CreateFinancialReport(ctx context.Context, arg database.CreateFinancialReportParams) (database.FinancialReport, error)
}

// ReportService aggregates payments and expenses over shop-local days.
type ReportService struct {
	store ReportStore
	loc   *time.Location
	log   *zap.Logger
}

func NewReportService(store ReportStore, loc *time.Location, log *zap.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{store: store, loc: loc, log: log.Named("reports")}
}

// Summary is the aggregate of one half-open period [Start, End).
type Summary struct {
	Start         time.Time
	End           time.Time
	Revenue       decimal.Decimal
	Expenses      decimal.Decimal
	Profit        decimal.Decimal
	ByMethod      map[string]decimal.Decimal
	ByCategory    map[string]decimal.Decimal
	PaymentsCount int
	OrdersPaid    int
	ExpensesCount int
	PaymentRows   []database.Payment
	ExpenseRows   []database.BusinessExpense
}

// ParseDate parses a YYYY-MM-DD date as local midnight in the shop time zone.
func (s *ReportService) ParseDate(field, raw string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, invalid(field, "invalid "+field+", expected YYYY-MM-DD")
	}
	return t, nil
}

// DailySummary aggregates the shop-local calendar day
// [date 00:00, date+1 00:00).
func (s *ReportService) DailySummary(ctx context.Context, date string) (*Summary, error) {
	day, err := s.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, day, day.AddDate(0, 0, 1))
}

// Period aggregates the inclusive local date range startDate..endDate.
func (s *ReportService) Period(ctx context.Context, startDate, endDate string) (*Summary, error) {
	start, err := s.ParseDate("start_date", startDate)
	if err != nil {
		return nil, err
	}
	end, err := s.ParseDate("end_date", endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, invalid("end_date", "end_date must not be before start_date")
	}
	return s.summarize(ctx, start, end.AddDate(0, 0, 1))
}

func (s *ReportService) summarize(ctx context.Context, start, end time.Time) (*Summary, error) {
	payments, err := s.store.ListPaymentsBetween(ctx, database.ListPaymentsBetweenParams{Start: start, End: end})
	if err != nil {
		return nil, persistence("list payments", err)
	}
	expenses, err := s.store.ListExpensesBetween(ctx, database.ListExpensesBetweenParams{Start: start, End: end})
	if err != nil {
		return nil, persistence("list expenses", err)
	}

	sum := &Summary{
		Start:       start,
		End:         end,
		Revenue:     decimal.Zero,
		Expenses:    decimal.Zero,
		ByMethod:    make(map[string]decimal.Decimal, len(enum.PaymentMethods)),
		ByCategory:  make(map[string]decimal.Decimal),
		PaymentRows: payments,
		ExpenseRows: expenses,
	}
	for _, m := range enum.PaymentMethods {
		sum.ByMethod[m] = decimal.Zero
	}

	orders := make(map[uuid.UUID]struct{})
	for _, p := range payments {
		amt := numericToDecimal(p.Amount)
		sum.Revenue = sum.Revenue.Add(amt)
		sum.ByMethod[p.Method] = sum.ByMethod[p.Method].Add(amt)
		orders[p.OrderID] = struct{}{}
	}
	for _, e := range expenses {
		amt := numericToDecimal(e.Amount)
		sum.Expenses = sum.Expenses.Add(amt)
		sum.ByCategory[e.Category] = sum.ByCategory[e.Category].Add(amt)
	}

	sum.Profit = sum.Revenue.Sub(sum.Expenses)
	sum.PaymentsCount = len(payments)
	sum.OrdersPaid = len(orders)
	sum.ExpensesCount = len(expenses)
	return sum, nil
}

// CloseDayRequest closes one calendar day.
type CloseDayRequest struct {
	Date     string
	ClosedBy string
	Notes    string
}

// CloseDay stores the day's summary, replacing an earlier close of the same
// date.
func (s *ReportService) CloseDay(ctx context.Context, req CloseDayRequest) (database.DailySummary, error) {
	sum, err := s.DailySummary(ctx, req.Date)
	if err != nil {
		return database.DailySummary{}, err
	}

	y, m, d := sum.Start.Date()
	row, err := s.store.UpsertDailySummary(ctx, database.UpsertDailySummaryParams{
		Date:          pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true},
		TotalRevenue:  decimalToNumeric(sum.Revenue),
		TotalExpenses: decimalToNumeric(sum.Expenses),
		OrdersCount:   int32(sum.OrdersPaid),
		PaymentsCount: int32(sum.PaymentsCount),
		CashTotal:     decimalToNumeric(sum.ByMethod[enum.PaymentMethodCash]),
		CardTotal:     decimalToNumeric(sum.ByMethod[enum.PaymentMethodCard]),
		MobileTotal:   decimalToNumeric(sum.ByMethod[enum.PaymentMethodMobile]),
		CheckTotal:    decimalToNumeric(sum.ByMethod[enum.PaymentMethodCheck]),
		ClosedBy:      optionalText(strings.TrimSpace(req.ClosedBy)),
		Notes:         optionalText(strings.TrimSpace(req.Notes)),
	})
	if err != nil {
		return database.DailySummary{}, persistence("upsert daily summary", err)
	}

	s.log.Info("day closed", zap.String("date", req.Date), zap.String("revenue", sum.Revenue.StringFixed(2)))
	return row, nil
}

// FinancialReportRequest generates a stored report. EndDate is inclusive;
// when empty the period follows from ReportType.
type FinancialReportRequest struct {
	ReportType  string
	StartDate   string
	EndDate     string
	GeneratedBy string
}

// ReportPeriod returns the half-open period for a report type starting on
// start. Monthly and yearly periods snap to the calendar.
func ReportPeriod(reportType string, start time.Time) (time.Time, time.Time) {
	y, m, d := start.Date()
	loc := start.Location()
	switch reportType {
	case enum.ReportTypeWeekly:
		return start, start.AddDate(0, 0, 7)
	case enum.ReportTypeMonthly:
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return first, first.AddDate(0, 1, 0)
	case enum.ReportTypeYearly:
		first := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return first, first.AddDate(1, 0, 0)
	default:
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return day, day.AddDate(0, 0, 1)
	}
}

// FinancialReport aggregates the period, counts orders created in it, and
// persists the result.
func (s *ReportService) FinancialReport(ctx context.Context, req FinancialReportRequest) (database.FinancialReport, error) {
	if !enum.IsReportType(req.ReportType) {
		return database.FinancialReport{}, invalid("reportType", "reportType must be one of daily, weekly, monthly, yearly")
	}
	start, err := s.ParseDate("startDate", req.StartDate)
	if err != nil {
		return database.FinancialReport{}, err
	}

	var end time.Time
	if strings.TrimSpace(req.EndDate) != "" {
		last, err := s.ParseDate("endDate", req.EndDate)
		if err != nil {
			return database.FinancialReport{}, err
		}
		if last.Before(start) {
			return database.FinancialReport{}, invalid("endDate", "endDate must not be before startDate")
		}
		end = last.AddDate(0, 0, 1)
	} else {
		start, end = ReportPeriod(req.ReportType, start)
	}

	sum, err := s.summarize(ctx, start, end)
	if err != nil {
		return database.FinancialReport{}, err
	}

	ordersCreated, err := s.store.CountOrdersCreatedBetween(ctx, database.CountOrdersCreatedBetweenParams{Start: start, End: end})
	if err != nil {
		return database.FinancialReport{}, persistence("count orders", err)
	}

	avg := decimal.Zero
	if sum.OrdersPaid > 0 {
		avg = sum.Revenue.Div(decimal.NewFromInt(int64(sum.OrdersPaid))).Round(2)
	}

	paymentJSON, err := json.Marshal(fixedAmounts(sum.ByMethod))
	if err != nil {
		return database.FinancialReport{}, err
	}
	expenseJSON, err := json.Marshal(fixedAmounts(sum.ByCategory))
	if err != nil {
		return database.FinancialReport{}, err
	}

	report, err := s.store.CreateFinancialReport(ctx, database.CreateFinancialReportParams{
		ReportType:        req.ReportType,
		StartDate:         start,
		EndDate:           end,
		TotalRevenue:      decimalToNumeric(sum.Revenue),
		TotalExpenses:     decimalToNumeric(sum.Expenses),
		NetProfit:         decimalToNumeric(sum.Profit),
		OrdersCount:       int32(ordersCreated),
		AverageOrderValue: decimalToNumeric(avg),
		PaymentBreakdown:  paymentJSON,
		ExpenseBreakdown:  expenseJSON,
		GeneratedBy:       optionalText(strings.TrimSpace(req.GeneratedBy)),
	})
	if err != nil {
		return database.FinancialReport{}, persistence("create financial report", err)
	}

	s.log.Info("financial report generated",
		zap.String("report_type", req.ReportType),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return report, nil
}

func fixedAmounts(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.StringFixed(2)
	}
	return out
}
