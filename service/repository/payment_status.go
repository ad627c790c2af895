package repository

import (
	"context"

	"github.com/immobx/service-ledger/service/models"
	"github.com/pitabwire/frame"
)

type PaymentStatusRepository interface {
	GetByPaymentID(ctx context.Context, paymentID string) ([]*models.PaymentStatus, error)
	Save(ctx context.Context, status *models.PaymentStatus) error
}

type paymentStatusRepository struct {
	abstractRepository
}

func NewPaymentStatusRepository(_ context.Context, service *frame.Service) PaymentStatusRepository {
	return &paymentStatusRepository{abstractRepository{service: service}}
}

func (repo *paymentStatusRepository) GetByPaymentID(ctx context.Context, paymentID string) ([]*models.PaymentStatus, error) {
	var statuses []*models.PaymentStatus
	err := repo.readDb(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (repo *paymentStatusRepository) Save(ctx context.Context, status *models.PaymentStatus) error {
	return repo.writeDb(ctx).Save(status).Error
}
