package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shopconfig "github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/database"
)

func num(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(s)
	return n
}

func sampleOrder() (database.PosOrder, database.Customer, []database.Payment) {
	created := time.Date(2025, 3, 1, 16, 30, 0, 0, time.UTC)
	order := database.PosOrder{
		ID:                   uuid.New(),
		OrderNumber:          "IFR123456789",
		DeviceBrand:          "Apple",
		DeviceModel:          "iPhone 13",
		IssueDescription:     "Cracked screen",
		BasePrice:            num("100"),
		CasePrice:            num("15"),
		ScreenProtectorPrice: num("0"),
		CreditCardFee:        num("0"),
		TaxAmount:            num("11.50"),
		TotalAmount:          num("126.50"),
		PaidAmount:           num("60"),
		CurrentStage:         "repair",
		CreatedAt:            created,
	}
	customer := database.Customer{Name: "Jane Doe", Phone: "8725551234"}
	payments := []database.Payment{{Amount: num("60"), Method: "cash", CreatedAt: created.Add(time.Hour)}}
	return order, customer, payments
}

func TestBuild(t *testing.T) {
	order, customer, payments := sampleOrder()

	d := Build(shopconfig.BusinessInfo{Name: "IFIXANDREPAIR"}, order, customer, payments, time.UTC)

	assert.Equal(t, "IFR123456789", d.OrderNumber)
	assert.Equal(t, "Apple iPhone 13", d.Device)
	assert.Equal(t, []Line{{Label: "Repair", Amount: "$100.00"}, {Label: "Phone case", Amount: "$15.00"}}, d.Lines)
	assert.Equal(t, "$115.00", d.Subtotal)
	assert.Equal(t, "$11.50", d.Tax)
	assert.Equal(t, "$126.50", d.Total)
	assert.Equal(t, "$60.00", d.Paid)
	assert.Equal(t, "$66.50", d.Balance)
	require.Len(t, d.Payments, 1)
	assert.Equal(t, "cash", d.Payments[0].Method)
	assert.Equal(t, "Mar 1, 2025 5:30 PM", d.Payments[0].Date)
}

func TestBuild_OverpaidBalanceIsZero(t *testing.T) {
	order, customer, _ := sampleOrder()
	order.PaidAmount = num("200")

	d := Build(shopconfig.BusinessInfo{}, order, customer, nil, nil)

	assert.Equal(t, "$0.00", d.Balance)
	assert.Empty(t, d.Payments)
}

func TestRender(t *testing.T) {
	order, customer, payments := sampleOrder()
	d := Build(shopconfig.BusinessInfo{
		Name:    "IFIXANDREPAIR",
		Address: "1300 Desplaines Ave, Forest Park, IL 60130",
		Phone:   "(872) 304-7275",
	}, order, customer, payments, time.UTC)

	pdf, err := Render(d)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "expected a PDF document")
}
