package repository

import (
	"context"

	"github.com/immobx/service-ledger/service/models"
	"github.com/pitabwire/frame"
)

type PaymentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Save(ctx context.Context, payment *models.Payment) error
	History(ctx context.Context, leaseID string, status string, page int, limit int) ([]*models.Payment, error)
	// TransitionStatus moves a payment out of pending in a single
	// conditional write. It reports whether the row changed; false means
	// the payment was already terminal and the call is a no-op.
	TransitionStatus(ctx context.Context, id string, status string, transactionID string, failureReason string) (bool, error)
}

type paymentRepository struct {
	abstractRepository
}

func NewPaymentRepository(_ context.Context, service *frame.Service) PaymentRepository {
	return &paymentRepository{abstractRepository{service: service}}
}

func (repo *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	payment := models.Payment{}
	err := repo.readDb(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (repo *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	payment := models.Payment{}
	err := repo.readDb(ctx).First(&payment, "transaction_id = ?", transactionID).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (repo *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return repo.writeDb(ctx).Create(payment).Error
}

func (repo *paymentRepository) Save(ctx context.Context, payment *models.Payment) error {
	return repo.writeDb(ctx).Save(payment).Error
}

func (repo *paymentRepository) History(ctx context.Context, leaseID string, status string, page int, limit int) ([]*models.Payment, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var payments []*models.Payment
	query := repo.readDb(ctx).
		Where("lease_id = ?", leaseID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (repo *paymentRepository) TransitionStatus(ctx context.Context, id string, status string, transactionID string, failureReason string) (bool, error) {
	updates := map[string]any{
		"status":         status,
		"failure_reason": failureReason,
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}

	result := repo.writeDb(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
