package business

import (
	"context"
	"errors"
	"time"

	"github.com/immobx/service-ledger/service/models"
	"github.com/immobx/service-ledger/service/repository"
	"github.com/pitabwire/frame"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateLeaseRequest registers a rental agreement. EndDate may be nil
// for an open ended lease; DepositAmount defaults to rent times the
// deposit months when absent.
type CreateLeaseRequest struct {
	PropertyID string `json:"property_id"`
	LandlordID string `json:"landlord_id"`
	TenantID   string `json:"tenant_id"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	RentAmount decimal.NullDecimal `json:"rent_amount"`
	Currency   string              `json:"currency"`

	DepositMonths int                 `json:"deposit_months"`
	DepositAmount decimal.NullDecimal `json:"deposit_amount"`
}

type LeaseBusiness interface {
	Create(ctx context.Context, request *CreateLeaseRequest) (*models.Lease, error)
	GetByID(ctx context.Context, id string) (*models.Lease, error)
}

func NewLeaseBusiness(_ context.Context, service *frame.Service, leaseRepo repository.LeaseRepository) (LeaseBusiness, error) {
	if service == nil || leaseRepo == nil {
		return nil, ErrorInitializationFail
	}
	return &leaseBusiness{service: service, leaseRepo: leaseRepo}, nil
}

type leaseBusiness struct {
	service   *frame.Service
	leaseRepo repository.LeaseRepository
}

func (lb *leaseBusiness) Create(ctx context.Context, request *CreateLeaseRequest) (*models.Lease, error) {
	logger := lb.service.Log(ctx).WithField("propertyId", request.PropertyID)

	if request.PropertyID == "" || request.LandlordID == "" || request.TenantID == "" {
		return nil, ErrorInvalidLease
	}
	if request.StartDate.IsZero() || request.Currency == "" {
		return nil, ErrorInvalidLease
	}
	if request.EndDate != nil && !request.EndDate.After(request.StartDate) {
		return nil, ErrorInvalidLease
	}
	if !request.RentAmount.Valid || !request.RentAmount.Decimal.IsPositive() {
		return nil, ErrorInvalidLease
	}

	depositAmount := request.DepositAmount
	if !depositAmount.Valid && request.DepositMonths > 0 {
		depositAmount = decimal.NewNullDecimal(
			request.RentAmount.Decimal.Mul(decimal.NewFromInt(int64(request.DepositMonths))))
	}
	if depositAmount.Valid && depositAmount.Decimal.IsNegative() {
		return nil, ErrorInvalidLease
	}

	overlaps, err := lb.leaseRepo.ActiveOverlapExists(ctx, request.PropertyID, request.StartDate, request.EndDate, "")
	if err != nil {
		logger.WithError(err).Error("could not check for overlapping leases")
		return nil, err
	}
	if overlaps {
		return nil, ErrorLeaseOverlap
	}

	lease := &models.Lease{
		PropertyID:    request.PropertyID,
		LandlordID:    request.LandlordID,
		TenantID:      request.TenantID,
		StartDate:     request.StartDate,
		EndDate:       request.EndDate,
		RentAmount:    request.RentAmount,
		Currency:      request.Currency,
		Status:        models.LeaseStatusActive,
		DepositMonths: request.DepositMonths,
		DepositAmount: depositAmount,
		DepositStatus: models.DepositStatusUnpaid,
	}
	lease.GenID(ctx)

	if err = lb.leaseRepo.Save(ctx, lease); err != nil {
		logger.WithError(err).Error("could not store lease")
		return nil, err
	}

	logger.WithField("leaseId", lease.ID).Info("lease registered")
	return lease, nil
}

func (lb *leaseBusiness) GetByID(ctx context.Context, id string) (*models.Lease, error) {
	lease, err := lb.leaseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorLeaseDoesNotExist
		}
		return nil, err
	}
	return lease, nil
}
