// Package export writes report periods as xlsx workbooks.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ifixandrepair/shop-api/internal/enum"
	"github.com/ifixandrepair/shop-api/internal/service"
)

const (
	SheetSummary  = "Summary"
	SheetPayments = "Payments"
	SheetExpenses = "Expenses"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const timeFmt = "2006-01-02 15:04"

var (
	paymentHeaders = []string{"Date", "Order ID", "Method", "Amount", "Processor Fee", "Transaction ID", "Processed By", "Notes"}
	expenseHeaders = []string{"Date", "Category", "Description", "Amount", "Payment Method", "Vendor", "Added By", "Receipt Notes"}
)

// Filename is the download name for the inclusive range startDate..endDate.
func Filename(startDate, endDate string) string {
	return fmt.Sprintf("financial_report_%s_%s.xlsx", startDate, endDate)
}

// Workbook builds the three-sheet report for sum. Times are written in loc.
func Workbook(sum *service.Summary, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetPayments, SheetExpenses} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}

	writeSummary(f, sum, headerStyle, moneyStyle)

	// Payments
	writeHeader(f, SheetPayments, paymentHeaders, headerStyle)
	for i, p := range sum.PaymentRows {
		row := i + 2
		f.SetCellValue(SheetPayments, cell("A", row), p.CreatedAt.In(loc).Format(timeFmt))
		f.SetCellValue(SheetPayments, cell("B", row), p.OrderID.String())
		f.SetCellValue(SheetPayments, cell("C", row), p.Method)
		f.SetCellValue(SheetPayments, cell("D", row), service.NumericToDecimal(p.Amount).InexactFloat64())
		f.SetCellValue(SheetPayments, cell("E", row), service.NumericToDecimal(p.ProcessorFee).InexactFloat64())
		f.SetCellValue(SheetPayments, cell("F", row), p.TransactionID.String)
		f.SetCellValue(SheetPayments, cell("G", row), p.ProcessedBy.String)
		f.SetCellValue(SheetPayments, cell("H", row), p.Notes.String)
	}
	if n := len(sum.PaymentRows); n > 0 {
		f.SetCellStyle(SheetPayments, "D2", cell("E", n+1), moneyStyle)
	}
	setWidths(f, SheetPayments, []float64{18, 38, 10, 12, 14, 20, 16, 30})

	// Expenses
	writeHeader(f, SheetExpenses, expenseHeaders, headerStyle)
	for i, e := range sum.ExpenseRows {
		row := i + 2
		f.SetCellValue(SheetExpenses, cell("A", row), e.ExpenseDate.In(loc).Format(timeFmt))
		f.SetCellValue(SheetExpenses, cell("B", row), e.Category)
		f.SetCellValue(SheetExpenses, cell("C", row), e.Description)
		f.SetCellValue(SheetExpenses, cell("D", row), service.NumericToDecimal(e.Amount).InexactFloat64())
		f.SetCellValue(SheetExpenses, cell("E", row), e.PaymentMethod.String)
		f.SetCellValue(SheetExpenses, cell("F", row), e.Vendor.String)
		f.SetCellValue(SheetExpenses, cell("G", row), e.AddedBy.String)
		f.SetCellValue(SheetExpenses, cell("H", row), e.ReceiptNotes.String)
	}
	if n := len(sum.ExpenseRows); n > 0 {
		f.SetCellStyle(SheetExpenses, "D2", cell("D", n+1), moneyStyle)
	}
	setWidths(f, SheetExpenses, []float64{18, 16, 30, 12, 16, 18, 16, 30})

	f.SetActiveSheet(0)
	return f, nil
}

func writeSummary(f *excelize.File, sum *service.Summary, headerStyle, moneyStyle int) {
	s := SheetSummary
	lastDay := sum.End.AddDate(0, 0, -1)

	writeHeader(f, s, []string{"Metric", "Value"}, headerStyle)
	rows := []struct {
		label string
		value interface{}
		money bool
	}{
		{"Start Date", sum.Start.Format("2006-01-02"), false},
		{"End Date", lastDay.Format("2006-01-02"), false},
		{"Total Revenue", sum.Revenue.InexactFloat64(), true},
		{"Total Expenses", sum.Expenses.InexactFloat64(), true},
		{"Net Profit", sum.Profit.InexactFloat64(), true},
		{"Payments", sum.PaymentsCount, false},
		{"Orders Paid", sum.OrdersPaid, false},
		{"Expenses Recorded", sum.ExpensesCount, false},
	}
	row := 2
	for _, r := range rows {
		f.SetCellValue(s, cell("A", row), r.label)
		f.SetCellValue(s, cell("B", row), r.value)
		if r.money {
			f.SetCellStyle(s, cell("B", row), cell("B", row), moneyStyle)
		}
		row++
	}

	row++
	f.SetCellValue(s, cell("A", row), "Revenue by Method")
	f.SetCellStyle(s, cell("A", row), cell("B", row), headerStyle)
	row++
	for _, m := range enum.PaymentMethods {
		f.SetCellValue(s, cell("A", row), m)
		f.SetCellValue(s, cell("B", row), sum.ByMethod[m].InexactFloat64())
		f.SetCellStyle(s, cell("B", row), cell("B", row), moneyStyle)
		row++
	}

	if len(sum.ByCategory) > 0 {
		row++
		f.SetCellValue(s, cell("A", row), "Expenses by Category")
		f.SetCellStyle(s, cell("A", row), cell("B", row), headerStyle)
		row++
		for _, c := range sortedKeys(sum) {
			f.SetCellValue(s, cell("A", row), c)
			f.SetCellValue(s, cell("B", row), sum.ByCategory[c].InexactFloat64())
			f.SetCellStyle(s, cell("B", row), cell("B", row), moneyStyle)
			row++
		}
	}
	setWidths(f, s, []float64{24, 16})
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		c := col + "1"
		f.SetCellValue(sheet, c, h)
		f.SetCellStyle(sheet, c, c, style)
	}
}

func setWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func sortedKeys(sum *service.Summary) []string {
	keys := make([]string, 0, len(sum.ByCategory))
	for k := range sum.ByCategory {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
