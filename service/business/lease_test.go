package business

import (
	"testing"
	"time"

	"github.com/immobx/service-ledger/service/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLeaseRequest() *CreateLeaseRequest {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &CreateLeaseRequest{
		PropertyID:    "prop-1",
		LandlordID:    "landlord-1",
		TenantID:      "tenant-1",
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       &end,
		RentAmount:    amountOf(350),
		Currency:      "USD",
		DepositMonths: 2,
	}
}

func TestCreateLease(t *testing.T) {
	ctx, service := testService(t)

	leaseRepo := newFakeLeaseRepo()
	lb, err := NewLeaseBusiness(ctx, service, leaseRepo)
	require.NoError(t, err)

	lease, err := lb.Create(ctx, validLeaseRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, lease.ID)
	assert.Equal(t, models.LeaseStatusActive, lease.Status)
	assert.Equal(t, models.DepositStatusUnpaid, lease.DepositStatus)
	assert.False(t, lease.IsAnchored(), "a new lease is anchored lazily on first chain payment")
	// Deposit defaults to rent times deposit months.
	require.True(t, lease.DepositAmount.Valid)
	assert.True(t, lease.DepositAmount.Decimal.Equal(decimal.NewFromInt(700)))

	stored, err := lb.GetByID(ctx, lease.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.ID, stored.ID)
}

func TestCreateLeaseKeepsExplicitDeposit(t *testing.T) {
	ctx, service := testService(t)

	lb, err := NewLeaseBusiness(ctx, service, newFakeLeaseRepo())
	require.NoError(t, err)

	request := validLeaseRequest()
	request.DepositAmount = amountOf(500)

	lease, err := lb.Create(ctx, request)
	require.NoError(t, err)
	assert.True(t, lease.DepositAmount.Decimal.Equal(decimal.NewFromInt(500)))
}

func TestCreateLeaseValidation(t *testing.T) {
	ctx, service := testService(t)

	leaseRepo := newFakeLeaseRepo()
	lb, err := NewLeaseBusiness(ctx, service, leaseRepo)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(request *CreateLeaseRequest)
	}{
		{name: "missing property", mutate: func(r *CreateLeaseRequest) { r.PropertyID = "" }},
		{name: "missing landlord", mutate: func(r *CreateLeaseRequest) { r.LandlordID = "" }},
		{name: "missing tenant", mutate: func(r *CreateLeaseRequest) { r.TenantID = "" }},
		{name: "missing start date", mutate: func(r *CreateLeaseRequest) { r.StartDate = time.Time{} }},
		{name: "missing currency", mutate: func(r *CreateLeaseRequest) { r.Currency = "" }},
		{name: "end before start", mutate: func(r *CreateLeaseRequest) {
			end := r.StartDate.AddDate(0, -1, 0)
			r.EndDate = &end
		}},
		{name: "missing rent", mutate: func(r *CreateLeaseRequest) { r.RentAmount = decimal.NullDecimal{} }},
		{name: "negative rent", mutate: func(r *CreateLeaseRequest) { r.RentAmount = amountOf(-10) }},
		{name: "negative deposit", mutate: func(r *CreateLeaseRequest) { r.DepositAmount = amountOf(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validLeaseRequest()
			tt.mutate(request)
			_, err := lb.Create(ctx, request)
			assert.ErrorIs(t, err, ErrorInvalidLease)
		})
	}

	assert.Empty(t, leaseRepo.leases, "invalid requests must not be stored")
}

func TestCreateLeaseRejectsOverlap(t *testing.T) {
	ctx, service := testService(t)

	leaseRepo := newFakeLeaseRepo()
	leaseRepo.overlap = true

	lb, err := NewLeaseBusiness(ctx, service, leaseRepo)
	require.NoError(t, err)

	_, err = lb.Create(ctx, validLeaseRequest())
	assert.ErrorIs(t, err, ErrorLeaseOverlap)
	assert.Empty(t, leaseRepo.leases)
}

func TestCreateLeaseOpenEnded(t *testing.T) {
	ctx, service := testService(t)

	lb, err := NewLeaseBusiness(ctx, service, newFakeLeaseRepo())
	require.NoError(t, err)

	request := validLeaseRequest()
	request.EndDate = nil

	lease, err := lb.Create(ctx, request)
	require.NoError(t, err)
	assert.True(t, lease.IsOpenEnded())
}

func TestGetLeaseByIDMissing(t *testing.T) {
	ctx, service := testService(t)

	lb, err := NewLeaseBusiness(ctx, service, newFakeLeaseRepo())
	require.NoError(t, err)

	_, err = lb.GetByID(ctx, "no-such")
	assert.ErrorIs(t, err, ErrorLeaseDoesNotExist)
}
