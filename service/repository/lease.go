package repository

import (
	"context"
	"time"

	"github.com/immobx/service-ledger/service/models"
	"github.com/pitabwire/frame"
)

type LeaseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Lease, error)
	Save(ctx context.Context, lease *models.Lease) error
	// SetChainAnchor writes the chain anchor if none is set yet and reports
	// whether the write happened. A false result with no error means a
	// concurrent or out of band anchor already exists.
	SetChainAnchor(ctx context.Context, id string, anchorID string) (bool, error)
	ActiveOverlapExists(ctx context.Context, propertyID string, start time.Time, end *time.Time, excludeID string) (bool, error)
}

type leaseRepository struct {
	abstractRepository
}

func NewLeaseRepository(_ context.Context, service *frame.Service) LeaseRepository {
	return &leaseRepository{abstractRepository{service: service}}
}

func (repo *leaseRepository) GetByID(ctx context.Context, id string) (*models.Lease, error) {
	lease := models.Lease{}
	err := repo.readDb(ctx).First(&lease, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (repo *leaseRepository) Save(ctx context.Context, lease *models.Lease) error {
	return repo.writeDb(ctx).Save(lease).Error
}

func (repo *leaseRepository) SetChainAnchor(ctx context.Context, id string, anchorID string) (bool, error) {
	result := repo.writeDb(ctx).
		Model(&models.Lease{}).
		Where("id = ? AND chain_anchor_id IS NULL", id).
		Update("chain_anchor_id", anchorID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repo *leaseRepository) ActiveOverlapExists(ctx context.Context, propertyID string, start time.Time, end *time.Time, excludeID string) (bool, error) {
	var count int64
	query := repo.readDb(ctx).
		Model(&models.Lease{}).
		Where("property_id = ? AND status = ? AND id <> ?", propertyID, models.LeaseStatusActive, excludeID).
		Where("end_date IS NULL OR end_date >= ?", start)
	if end != nil {
		query = query.Where("start_date <= ?", *end)
	}
	err := query.Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
