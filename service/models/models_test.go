package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestRailClassification(t *testing.T) {
	assert.True(t, IsChainRail(RailHbar))
	assert.True(t, IsChainRail(RailUsdc))
	assert.False(t, IsChainRail(RailMobileMoney))

	assert.True(t, IsKnownRail(RailMobileMoney))
	assert.False(t, IsKnownRail("CASH"))
	assert.False(t, IsKnownRail(""))
	assert.False(t, IsKnownRail("hbar"), "rails are case sensitive")
}

func TestLeaseIsAnchored(t *testing.T) {
	lease := &Lease{}
	assert.False(t, lease.IsAnchored())

	empty := ""
	lease.ChainAnchorID = &empty
	assert.False(t, lease.IsAnchored())

	anchor := "0.0.1234@1700000000.000000001"
	lease.ChainAnchorID = &anchor
	assert.True(t, lease.IsAnchored())
}

func TestLeaseIsOpenEnded(t *testing.T) {
	lease := &Lease{}
	assert.True(t, lease.IsOpenEnded())

	zero := time.Time{}
	lease.EndDate = &zero
	assert.True(t, lease.IsOpenEnded())

	end := time.Now().AddDate(1, 0, 0)
	lease.EndDate = &end
	assert.False(t, lease.IsOpenEnded())
}

func TestPaymentIsTerminal(t *testing.T) {
	payment := &Payment{Status: PaymentStatusPending}
	assert.False(t, payment.IsTerminal())

	payment.Status = PaymentStatusPaid
	assert.True(t, payment.IsTerminal())

	payment.Status = PaymentStatusFailed
	assert.True(t, payment.IsTerminal())
}

func TestPaymentToAPI(t *testing.T) {
	payment := &Payment{
		LeaseID:       "lease-1",
		Amount:        decimal.NewNullDecimal(decimal.RequireFromString("199.50")),
		Currency:      "KES",
		Rail:          RailMobileMoney,
		TransactionID: "FLW-MOCK-1",
		Status:        PaymentStatusPending,
		Extra: datatypes.JSONMap{
			"checkout_url": "https://checkout.example.com/pay/abc",
			"payer_id":     "tenant-1",
		},
	}
	payment.ID = "pay-1"

	api := payment.ToAPI()
	assert.Equal(t, "pay-1", api.ID)
	assert.Equal(t, "lease-1", api.LeaseID)
	assert.Equal(t, "199.5", api.Amount.String())
	assert.Equal(t, RailMobileMoney, api.Rail)
	assert.Equal(t, "FLW-MOCK-1", api.TransactionID)
	assert.Equal(t, "https://checkout.example.com/pay/abc", api.CheckoutURL)
}

func TestPaymentToAPIWithoutExtra(t *testing.T) {
	payment := &Payment{
		LeaseID: "lease-1",
		Amount:  decimal.NewNullDecimal(decimal.NewFromInt(150)),
		Status:  PaymentStatusFailed,
	}
	payment.ID = "pay-2"

	api := payment.ToAPI()
	assert.Empty(t, api.CheckoutURL)
	assert.Equal(t, PaymentStatusFailed, api.Status)
}
