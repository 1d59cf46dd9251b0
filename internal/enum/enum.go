package enum

// ── Group A: State machines (CHECK constrained in DB) ──

// Workflow stages, in progression order.
const (
	StageReceived        = "received"
	StageDiagnostic      = "diagnostic"
	StageRepair          = "repair"
	StageWaitingForParts = "waiting-for-parts"
	StageTesting         = "testing"
	StageReady           = "ready"
	StageDelivered       = "delivered"
	StageCompleted       = "completed"
)

// Stages lists every workflow stage in progression order.
var Stages = []string{
	StageReceived,
	StageDiagnostic,
	StageRepair,
	StageWaitingForParts,
	StageTesting,
	StageReady,
	StageDelivered,
	StageCompleted,
}

const (
	RepairRequestPending    = "pending"
	RepairRequestSubmitted  = "submitted"
	RepairRequestInProgress = "in_progress"
	RepairRequestCompleted  = "completed"
	RepairRequestCancelled  = "cancelled"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodMobile = "mobile"
	PaymentMethodCheck  = "check"
)

// PaymentMethods lists the accepted payment methods in report order.
var PaymentMethods = []string{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodMobile,
	PaymentMethodCheck,
}

const (
	ReportTypeDaily   = "daily"
	ReportTypeWeekly  = "weekly"
	ReportTypeMonthly = "monthly"
	ReportTypeYearly  = "yearly"
)

// IsStage reports whether s is one of the eight workflow stages.
func IsStage(s string) bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

// NextStage returns the stage that normally follows s, or "" when s is the
// last stage or unknown.
func NextStage(s string) string {
	for i, st := range Stages {
		if st == s && i+1 < len(Stages) {
			return Stages[i+1]
		}
	}
	return ""
}

func IsPaymentMethod(s string) bool {
	for _, m := range PaymentMethods {
		if m == s {
			return true
		}
	}
	return false
}

func IsReportType(s string) bool {
	switch s {
	case ReportTypeDaily, ReportTypeWeekly, ReportTypeMonthly, ReportTypeYearly:
		return true
	}
	return false
}
