// Package pricing computes the price breakdown for a repair quote.
package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var (
	CaseSurcharge            = decimal.NewFromInt(15)
	ScreenProtectorSurcharge = decimal.NewFromInt(10)
	// ProcessingFee is charged unless the customer has left a review.
	ProcessingFee = decimal.NewFromInt(5)
	TaxRate       = decimal.RequireFromString("0.10")
)

// Options are the add-ons and waivers chosen at intake.
type Options struct {
	WantCase            bool
	WantScreenProtector bool
	HasGoogleReview     bool
}

// Breakdown is the itemised quote. Amounts are rounded to the cent.
type Breakdown struct {
	BasePrice            decimal.Decimal
	CasePrice            decimal.Decimal
	ScreenProtectorPrice decimal.Decimal
	CreditCardFee        decimal.Decimal
	Subtotal             decimal.Decimal
	TaxAmount            decimal.Decimal
	TotalAmount          decimal.Decimal
}

// Calculate is the single source of the pricing formula:
// subtotal = base + case + protector + fee, tax = 10% of subtotal,
// total = subtotal + tax rounded half-up to the cent.
func Calculate(base decimal.Decimal, opts Options) Breakdown {
	b := Breakdown{
		BasePrice:            base,
		CasePrice:            decimal.Zero,
		ScreenProtectorPrice: decimal.Zero,
		CreditCardFee:        decimal.Zero,
	}
	if opts.WantCase {
		b.CasePrice = CaseSurcharge
	}
	if opts.WantScreenProtector {
		b.ScreenProtectorPrice = ScreenProtectorSurcharge
	}
	if !opts.HasGoogleReview {
		b.CreditCardFee = ProcessingFee
	}

	b.Subtotal = base.Add(b.CasePrice).Add(b.ScreenProtectorPrice).Add(b.CreditCardFee)
	tax := b.Subtotal.Mul(TaxRate)
	// decimal.Round rounds half away from zero, which is half-up for prices.
	b.TaxAmount = tax.Round(2)
	b.TotalAmount = b.Subtotal.Add(tax).Round(2)
	return b
}

type breakdownJSON struct {
	BasePrice            string `json:"basePrice"`
	CasePrice            string `json:"casePrice"`
	ScreenProtectorPrice string `json:"screenProtectorPrice"`
	CreditCardFee        string `json:"creditCardFee"`
	Subtotal             string `json:"subtotal"`
	TaxAmount            string `json:"taxAmount"`
	TotalAmount          string `json:"totalAmount"`
}

// MarshalJSON renders every amount with two decimals.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(breakdownJSON{
		BasePrice:            b.BasePrice.StringFixed(2),
		CasePrice:            b.CasePrice.StringFixed(2),
		ScreenProtectorPrice: b.ScreenProtectorPrice.StringFixed(2),
		CreditCardFee:        b.CreditCardFee.StringFixed(2),
		Subtotal:             b.Subtotal.StringFixed(2),
		TaxAmount:            b.TaxAmount.StringFixed(2),
		TotalAmount:          b.TotalAmount.StringFixed(2),
	})
}
