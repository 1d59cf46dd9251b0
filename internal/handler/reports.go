package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/enum"
	"github.com/ifixandrepair/shop-api/internal/export"
	"github.com/ifixandrepair/shop-api/internal/service"
)

// ReportService builds and stores the shop's financial summaries.
// Satisfied by *service.ReportService.
type ReportService interface {
	DailySummary(ctx context.Context, date string) (*service.Summary, error)
	Period(ctx context.Context, startDate, endDate string) (*service.Summary, error)
	CloseDay(ctx context.Context, req service.CloseDayRequest) (database.DailySummary, error)
	FinancialReport(ctx context.Context, req service.FinancialReportRequest) (database.FinancialReport, error)
}

// ReportHandler handles the daily and financial report endpoints.
type ReportHandler struct {
	svc ReportService
	loc *time.Location
	log *zap.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(svc ReportService, loc *time.Location, log *zap.Logger) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{svc: svc, loc: loc, log: handlerLogger(log, "reports")}
}

// RegisterRoutes registers the public report endpoints on the given Chi
// router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/daily/{date}", h.Daily)
}

// RegisterAdminRoutes registers the report endpoints that write or export.
// Expected to be mounted behind the admin session check.
func (h *ReportHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/reports/daily/{date}/close", h.CloseDay)
	r.Post("/reports/financial", h.Financial)
	r.Get("/reports/financial/export", h.Export)
}

// --- Request / Response types ---

type closeDayRequest struct {
	ClosedBy string `json:"closedBy"`
	Notes    string `json:"notes"`
}

type financialReportRequest struct {
	ReportType  string `json:"reportType"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	GeneratedBy string `json:"generatedBy"`
}

type dailyReportResponse struct {
	Date             string            `json:"date"`
	Revenue          string            `json:"revenue"`
	Expenses         string            `json:"expenses"`
	Profit           string            `json:"profit"`
	PaymentBreakdown map[string]string `json:"paymentBreakdown"`
	ExpenseBreakdown map[string]string `json:"expenseBreakdown"`
	OrdersCount      int               `json:"ordersCount"`
	PaymentsCount    int               `json:"paymentsCount"`
	ExpensesCount    int               `json:"expensesCount"`
}

type dailySummaryResponse struct {
	ID            uuid.UUID  `json:"id"`
	Date          string     `json:"date"`
	TotalRevenue  string     `json:"totalRevenue"`
	TotalExpenses string     `json:"totalExpenses"`
	OrdersCount   int32      `json:"ordersCount"`
	PaymentsCount int32      `json:"paymentsCount"`
	CashTotal     string     `json:"cashTotal"`
	CardTotal     string     `json:"cardTotal"`
	MobileTotal   string     `json:"mobileTotal"`
	CheckTotal    string     `json:"checkTotal"`
	ClosedBy      *string    `json:"closedBy"`
	ClosedAt      *time.Time `json:"closedAt"`
	IsManualClose bool       `json:"isManualClose"`
	Notes         *string    `json:"notes"`
}

type financialReportResponse struct {
	ID                uuid.UUID       `json:"id"`
	ReportType        string          `json:"reportType"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           time.Time       `json:"endDate"`
	TotalRevenue      string          `json:"totalRevenue"`
	TotalExpenses     string          `json:"totalExpenses"`
	NetProfit         string          `json:"netProfit"`
	OrdersCount       int32           `json:"ordersCount"`
	AverageOrderValue string          `json:"averageOrderValue"`
	PaymentBreakdown  json.RawMessage `json:"paymentBreakdown"`
	ExpenseBreakdown  json.RawMessage `json:"expenseBreakdown"`
	GeneratedAt       time.Time       `json:"generatedAt"`
	GeneratedBy       *string         `json:"generatedBy"`
}

func fixed(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.StringFixed(2)
	}
	return out
}

func toDailyReportResponse(date string, sum *service.Summary) dailyReportResponse {
	breakdown := make(map[string]string, len(enum.PaymentMethods))
	for _, m := range enum.PaymentMethods {
		breakdown[m] = sum.ByMethod[m].StringFixed(2)
	}
	return dailyReportResponse{
		Date:             date,
		Revenue:          sum.Revenue.StringFixed(2),
		Expenses:         sum.Expenses.StringFixed(2),
		Profit:           sum.Profit.StringFixed(2),
		PaymentBreakdown: breakdown,
		ExpenseBreakdown: fixed(sum.ByCategory),
		OrdersCount:      sum.OrdersPaid,
		PaymentsCount:    sum.PaymentsCount,
		ExpensesCount:    sum.ExpensesCount,
	}
}

func toDailySummaryResponse(d database.DailySummary) dailySummaryResponse {
	resp := dailySummaryResponse{
		ID:            d.ID,
		TotalRevenue:  money(d.TotalRevenue),
		TotalExpenses: money(d.TotalExpenses),
		OrdersCount:   d.OrdersCount,
		PaymentsCount: d.PaymentsCount,
		CashTotal:     money(d.CashTotal),
		CardTotal:     money(d.CardTotal),
		MobileTotal:   money(d.MobileTotal),
		CheckTotal:    money(d.CheckTotal),
		ClosedBy:      textPtr(d.ClosedBy),
		ClosedAt:      timePtr(d.ClosedAt),
		IsManualClose: d.IsManualClose,
		Notes:         textPtr(d.Notes),
	}
	if d.Date.Valid {
		resp.Date = d.Date.Time.Format("2006-01-02")
	}
	return resp
}

func toFinancialReportResponse(f database.FinancialReport) financialReportResponse {
	return financialReportResponse{
		ID:                f.ID,
		ReportType:        f.ReportType,
		StartDate:         f.StartDate,
		EndDate:           f.EndDate,
		TotalRevenue:      money(f.TotalRevenue),
		TotalExpenses:     money(f.TotalExpenses),
		NetProfit:         money(f.NetProfit),
		OrdersCount:       f.OrdersCount,
		AverageOrderValue: money(f.AverageOrderValue),
		PaymentBreakdown:  rawOrEmpty(f.PaymentBreakdown),
		ExpenseBreakdown:  rawOrEmpty(f.ExpenseBreakdown),
		GeneratedAt:       f.GeneratedAt,
		GeneratedBy:       textPtr(f.GeneratedBy),
	}
}

func rawOrEmpty(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(b)
}

// --- Handlers ---

// Daily aggregates one shop-local calendar day.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	sum, err := h.svc.DailySummary(r.Context(), date)
	if err != nil {
		writeServiceError(w, h.log, "daily summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportResponse(date, sum))
}

// CloseDay stores the day's summary.
func (h *ReportHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	var req closeDayRequest
	// The body is optional.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	row, err := h.svc.CloseDay(r.Context(), service.CloseDayRequest{
		Date:     chi.URLParam(r, "date"),
		ClosedBy: req.ClosedBy,
		Notes:    req.Notes,
	})
	if err != nil {
		writeServiceError(w, h.log, "close day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailySummaryResponse(row))
}

// Financial generates and stores a financial report.
func (h *ReportHandler) Financial(w http.ResponseWriter, r *http.Request) {
	var req financialReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	report, err := h.svc.FinancialReport(r.Context(), service.FinancialReportRequest{
		ReportType:  strings.TrimSpace(req.ReportType),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		GeneratedBy: req.GeneratedBy,
	})
	if err != nil {
		writeServiceError(w, h.log, "financial report", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFinancialReportResponse(report))
}

// Export streams the inclusive date range as an xlsx workbook.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	start := strings.TrimSpace(r.URL.Query().Get("start_date"))
	end := strings.TrimSpace(r.URL.Query().Get("end_date"))
	if start == "" || end == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date and end_date are required"})
		return
	}

	sum, err := h.svc.Period(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, h.log, "report period", err)
		return
	}

	f, err := export.Workbook(sum, h.loc)
	if err != nil {
		h.log.Error("build workbook failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer f.Close() //nolint:errcheck

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(start, end)+`"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		h.log.Warn("write workbook failed", zap.Error(err))
	}
}
