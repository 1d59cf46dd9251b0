package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type BusinessExpense struct {
	ID            uuid.UUID      `json:"id"`
	Category      string         `json:"category"`
	Description   string         `json:"description"`
	Amount        pgtype.Numeric `json:"amount"`
	PaymentMethod pgtype.Text    `json:"payment_method"`
	Vendor        pgtype.Text    `json:"vendor"`
	ReceiptNotes  pgtype.Text    `json:"receipt_notes"`
	ExpenseDate   time.Time      `json:"expense_date"`
	AddedBy       pgtype.Text    `json:"added_by"`
	CreatedAt     time.Time      `json:"created_at"`
}

type Customer struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Email     pgtype.Text `json:"email"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type DailySummary struct {
	ID            uuid.UUID          `json:"id"`
	Date          pgtype.Date        `json:"date"`
	TotalRevenue  pgtype.Numeric     `json:"total_revenue"`
	TotalExpenses pgtype.Numeric     `json:"total_expenses"`
	OrdersCount   int32              `json:"orders_count"`
	PaymentsCount int32              `json:"payments_count"`
	CashTotal     pgtype.Numeric     `json:"cash_total"`
	CardTotal     pgtype.Numeric     `json:"card_total"`
	MobileTotal   pgtype.Numeric     `json:"mobile_total"`
	CheckTotal    pgtype.Numeric     `json:"check_total"`
	ClosedBy      pgtype.Text        `json:"closed_by"`
	ClosedAt      pgtype.Timestamptz `json:"closed_at"`
	IsManualClose bool               `json:"is_manual_close"`
	Notes         pgtype.Text        `json:"notes"`
	CreatedAt     time.Time          `json:"created_at"`
}

type Employee struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Role      string      `json:"role"`
	Phone     pgtype.Text `json:"phone"`
	Email     pgtype.Text `json:"email"`
	IsActive  bool        `json:"is_active"`
	HireDate  pgtype.Date `json:"hire_date"`
	CreatedAt time.Time   `json:"created_at"`
}

type FinancialReport struct {
	ID                uuid.UUID      `json:"id"`
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
	GeneratedAt       time.Time      `json:"generated_at"`
	GeneratedBy       pgtype.Text    `json:"generated_by"`
}

type Inventory struct {
	ID                uuid.UUID      `json:"id"`
	Brand             string         `json:"brand"`
	ProductLine       string         `json:"product_line"`
	Model             string         `json:"model"`
	PartType          string         `json:"part_type"`
	Quantity          int32          `json:"quantity"`
	UnitCost          pgtype.Numeric `json:"unit_cost"`
	SellingPrice      pgtype.Numeric `json:"selling_price"`
	LowStockThreshold int32          `json:"low_stock_threshold"`
	Supplier          pgtype.Text    `json:"supplier"`
	Sku               pgtype.Text    `json:"sku"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type Payment struct {
	ID            uuid.UUID      `json:"id"`
	OrderID       uuid.UUID      `json:"order_id"`
	Amount        pgtype.Numeric `json:"amount"`
	Method        string         `json:"method"`
	TransactionID pgtype.Text    `json:"transaction_id"`
	ProcessorFee  pgtype.Numeric `json:"processor_fee"`
	Notes         pgtype.Text    `json:"notes"`
	ProcessedBy   pgtype.Text    `json:"processed_by"`
	CreatedAt     time.Time      `json:"created_at"`
}

type PosOrder struct {
	ID                   uuid.UUID          `json:"id"`
	OrderNumber          string             `json:"order_number"`
	CustomerID           uuid.UUID          `json:"customer_id"`
	RepairRequestID      pgtype.UUID        `json:"repair_request_id"`
	DeviceBrand          string             `json:"device_brand"`
	DeviceModel          string             `json:"device_model"`
	IssueDescription     string             `json:"issue_description"`
	BasePrice            pgtype.Numeric     `json:"base_price"`
	CasePrice            pgtype.Numeric     `json:"case_price"`
	ScreenProtectorPrice pgtype.Numeric     `json:"screen_protector_price"`
	CreditCardFee        pgtype.Numeric     `json:"credit_card_fee"`
	TaxAmount            pgtype.Numeric     `json:"tax_amount"`
	TotalAmount          pgtype.Numeric     `json:"total_amount"`
	PaidAmount           pgtype.Numeric     `json:"paid_amount"`
	CurrentStage         string             `json:"current_stage"`
	AssignedTechnician   pgtype.Text        `json:"assigned_technician"`
	EstimatedCompletion  pgtype.Timestamptz `json:"estimated_completion"`
	Notes                pgtype.Text        `json:"notes"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

type RepairRequest struct {
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
	UpdatedAt           time.Time      `json:"updated_at"`
}

type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type WorkflowStage struct {
	ID                    uuid.UUID          `json:"id"`
	OrderID               uuid.UUID          `json:"order_id"`
	Stage                 string             `json:"stage"`
	AssignedEmployee      pgtype.Text        `json:"assigned_employee"`
	Notes                 pgtype.Text        `json:"notes"`
	EstimatedCompletion   pgtype.Timestamptz `json:"estimated_completion"`
	SmsNotificationSent   bool               `json:"sms_notification_sent"`
	EmailNotificationSent bool               `json:"email_notification_sent"`
	StartedAt             time.Time          `json:"started_at"`
	CompletedAt           pgtype.Timestamptz `json:"completed_at"`
	DurationMinutes       pgtype.Int4        `json:"duration_minutes"`
}
