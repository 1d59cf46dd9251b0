// Package receipt renders the customer PDF receipt for an order.
package receipt

import (
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	shopconfig "github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/service"
)

const dateFmt = "Jan 2, 2006 3:04 PM"

// Line is one priced row of the receipt.
type Line struct {
	Label  string
	Amount string
}

// Payment is one payment row of the receipt.
type Payment struct {
	Date   string
	Method string
	Amount string
}

// Data is everything printed on a receipt, already formatted.
type Data struct {
	Business      shopconfig.BusinessInfo
	OrderNumber   string
	Date          string
	CustomerName  string
	CustomerPhone string
	Device        string
	Issue         string
	Stage         string
	Lines         []Line
	Subtotal      string
	Tax           string
	Total         string
	Paid          string
	Balance       string
	Payments      []Payment
}

// Build formats an order, its customer and its payments for printing.
// Zero-priced add-ons are left out.
func Build(business shopconfig.BusinessInfo, order database.PosOrder, customer database.Customer, payments []database.Payment, loc *time.Location) Data {
	if loc == nil {
		loc = time.UTC
	}
	base := service.NumericToDecimal(order.BasePrice)
	casePrice := service.NumericToDecimal(order.CasePrice)
	protector := service.NumericToDecimal(order.ScreenProtectorPrice)
	fee := service.NumericToDecimal(order.CreditCardFee)
	total := service.NumericToDecimal(order.TotalAmount)
	paid := service.NumericToDecimal(order.PaidAmount)

	d := Data{
		Business:      business,
		OrderNumber:   order.OrderNumber,
		Date:          order.CreatedAt.In(loc).Format(dateFmt),
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Device:        strings.TrimSpace(order.DeviceBrand + " " + order.DeviceModel),
		Issue:         order.IssueDescription,
		Stage:         order.CurrentStage,
		Lines:         []Line{{Label: "Repair", Amount: money(base)}},
		Subtotal:      money(base.Add(casePrice).Add(protector).Add(fee)),
		Tax:           money(service.NumericToDecimal(order.TaxAmount)),
		Total:         money(total),
		Paid:          money(paid),
		Balance:       money(service.BalanceDue(total, paid)),
	}
	if casePrice.IsPositive() {
		d.Lines = append(d.Lines, Line{Label: "Phone case", Amount: money(casePrice)})
	}
	if protector.IsPositive() {
		d.Lines = append(d.Lines, Line{Label: "Screen protector", Amount: money(protector)})
	}
	if fee.IsPositive() {
		d.Lines = append(d.Lines, Line{Label: "Card processing fee", Amount: money(fee)})
	}
	for _, p := range payments {
		d.Payments = append(d.Payments, Payment{
			Date:   p.CreatedAt.In(loc).Format(dateFmt),
			Method: p.Method,
			Amount: money(service.NumericToDecimal(p.Amount)),
		})
	}
	return d
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Render draws the receipt as a single PDF document.
func Render(d Data) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	// Header
	m.AddRow(14,
		text.NewCol(8, d.Business.Name, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, "Receipt", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(16,
		col.New(8).Add(
			text.New(d.Business.Address, props.Text{Size: 9}),
			text.New(d.Business.Phone+"  "+d.Business.Email, props.Text{Size: 9, Top: 4}),
			text.New(d.Business.Hours, props.Text{Size: 9, Top: 8}),
		),
		col.New(4).Add(
			text.New("Order "+d.OrderNumber, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			text.New(d.Date, props.Text{Size: 9, Top: 4, Align: align.Right}),
			text.New("Status: "+d.Stage, props.Text{Size: 9, Top: 8, Align: align.Right}),
		),
	)
	m.AddRow(4, line.NewCol(12))

	// Customer and device
	m.AddRow(20,
		col.New(6).Add(
			text.New("Customer", props.Text{Style: fontstyle.Bold}),
			text.New(d.CustomerName, props.Text{Top: 5}),
			text.New(d.CustomerPhone, props.Text{Top: 9}),
		),
		col.New(6).Add(
			text.New("Device", props.Text{Style: fontstyle.Bold}),
			text.New(d.Device, props.Text{Top: 5}),
			text.New(d.Issue, props.Text{Top: 9, Size: 9}),
		),
	)

	// Line items
	m.AddRow(8,
		text.NewCol(9, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, l := range d.Lines {
		m.AddRow(7,
			text.NewCol(9, l.Label, props.Text{Size: 9}),
			text.NewCol(3, l.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(4, line.NewCol(12))

	// Totals
	for _, t := range []Line{
		{Label: "Subtotal", Amount: d.Subtotal},
		{Label: "Tax", Amount: d.Tax},
		{Label: "Total", Amount: d.Total},
		{Label: "Paid", Amount: d.Paid},
		{Label: "Balance due", Amount: d.Balance},
	} {
		style := fontstyle.Normal
		if t.Label == "Total" || t.Label == "Balance due" {
			style = fontstyle.Bold
		}
		m.AddRow(7,
			col.New(6),
			text.NewCol(3, t.Label, props.Text{Size: 9, Style: style}),
			text.NewCol(3, t.Amount, props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}

	// Payments
	if len(d.Payments) > 0 {
		m.AddRow(10, text.NewCol(12, "Payments", props.Text{Style: fontstyle.Bold, Top: 4}))
		for _, p := range d.Payments {
			m.AddRow(7,
				text.NewCol(6, p.Date, props.Text{Size: 9}),
				text.NewCol(3, p.Method, props.Text{Size: 9}),
				text.NewCol(3, p.Amount, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	m.AddRow(14, text.NewCol(12, "Thank you for choosing "+d.Business.Name+"!", props.Text{Size: 9, Top: 6, Align: align.Center}))

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
