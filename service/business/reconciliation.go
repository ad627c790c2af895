package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/immobx/service-ledger/service/chain"
	"github.com/immobx/service-ledger/service/events"
	"github.com/immobx/service-ledger/service/models"
	"github.com/immobx/service-ledger/service/rail"
	"github.com/immobx/service-ledger/service/repository"
	"github.com/pitabwire/frame"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InitiateRequest is one payment attempt against a lease. Amount is
// optional; when absent the lease's deposit amount is used.
type InitiateRequest struct {
	LeaseID string              `json:"lease_id"`
	Amount  decimal.NullDecimal `json:"amount"`
	Rail    string              `json:"rail"`
	PayerID string              `json:"payer_id"`
}

// WebhookPayload is the aggregator's asynchronous settlement report. The
// signature comes from the request header, not the body.
type WebhookPayload struct {
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
	Provider      string `json:"provider"`
	Status        string `json:"status"`

	Signature string `json:"-"`
}

type ReconciliationBusiness interface {
	Initiate(ctx context.Context, request *InitiateRequest) (*models.Payment, error)
	Confirm(ctx context.Context, payload *WebhookPayload) (*models.Payment, error)
	History(ctx context.Context, leaseID string, status string, page int, limit int) ([]*models.Payment, error)
	StatusTrail(ctx context.Context, paymentID string) ([]*models.PaymentStatus, error)
}

func NewReconciliationBusiness(_ context.Context, service *frame.Service,
	leaseRepo repository.LeaseRepository, paymentRepo repository.PaymentRepository,
	statusRepo repository.PaymentStatusRepository,
	gateway chain.Gateway, adapter rail.Adapter) (ReconciliationBusiness, error) {
	if service == nil || leaseRepo == nil || paymentRepo == nil || statusRepo == nil || gateway == nil || adapter == nil {
		return nil, ErrorInitializationFail
	}
	return &reconciliationBusiness{
		service:     service,
		leaseRepo:   leaseRepo,
		paymentRepo: paymentRepo,
		statusRepo:  statusRepo,
		gateway:     gateway,
		adapter:     adapter,
	}, nil
}

type reconciliationBusiness struct {
	service     *frame.Service
	leaseRepo   repository.LeaseRepository
	paymentRepo repository.PaymentRepository
	statusRepo  repository.PaymentStatusRepository
	gateway     chain.Gateway
	adapter     rail.Adapter
}

func (rb *reconciliationBusiness) Initiate(ctx context.Context, request *InitiateRequest) (*models.Payment, error) {
	logger := rb.service.Log(ctx).WithField("leaseId", request.LeaseID).WithField("rail", request.Rail)

	if !models.IsKnownRail(request.Rail) {
		return nil, ErrorUnknownRail
	}

	lease, err := rb.leaseRepo.GetByID(ctx, request.LeaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorLeaseDoesNotExist
		}
		return nil, err
	}

	if request.PayerID != "" && request.PayerID != lease.TenantID {
		return nil, ErrorUnauthorizedPayer
	}

	amount := request.Amount
	if !amount.Valid {
		// A request without an amount is a deposit payment.
		amount = lease.DepositAmount
	}
	if !amount.Valid || !amount.Decimal.IsPositive() {
		return nil, ErrorInvalidAmount
	}

	payment := &models.Payment{
		LeaseID:  lease.ID,
		Amount:   amount,
		Currency: lease.Currency,
		Rail:     request.Rail,
		Status:   models.PaymentStatusPending,
		Extra:    datatypes.JSONMap{"payer_id": request.PayerID},
	}
	payment.GenID(ctx)

	if err = rb.paymentRepo.Create(ctx, payment); err != nil {
		logger.WithError(err).Error("could not create payment record")
		return nil, err
	}
	rb.emitStatusEvent(ctx, payment.ID, models.PaymentStatusPending, "")

	if payment.Rail == models.RailMobileMoney {
		return rb.initiateMobileMoney(ctx, lease, payment)
	}
	return rb.settleOnChain(ctx, lease, payment)
}

// initiateMobileMoney hands the payment to the aggregator and leaves the
// record pending until the webhook arrives.
func (rb *reconciliationBusiness) initiateMobileMoney(ctx context.Context, lease *models.Lease, payment *models.Payment) (*models.Payment, error) {
	logger := rb.service.Log(ctx).WithField("paymentId", payment.ID)

	reference := fmt.Sprintf("IMMOBX-%s-%s-%d", lease.ID, payment.ID, time.Now().UnixMilli())

	response, err := rb.adapter.Initiate(ctx, rail.InitiateRequest{
		Amount:    payment.Amount.Decimal.StringFixed(2),
		Currency:  payment.Currency,
		Reference: reference,
	})
	if err != nil {
		logger.WithError(err).Error("aggregator initiation failed")
		return rb.failPayment(ctx, payment, err.Error(), err)
	}

	payment.TransactionID = response.ProviderReference
	if payment.TransactionID == "" {
		payment.TransactionID = reference
	}
	if response.CheckoutURL != "" {
		payment.Extra["checkout_url"] = response.CheckoutURL
	}
	if err = rb.paymentRepo.Save(ctx, payment); err != nil {
		logger.WithError(err).Error("could not store aggregator reference")
		return nil, err
	}

	return payment, nil
}

// settleOnChain records the payment against the lease's contract
// representation, anchoring the lease first when it has never been
// mirrored on chain.
func (rb *reconciliationBusiness) settleOnChain(ctx context.Context, lease *models.Lease, payment *models.Payment) (*models.Payment, error) {
	logger := rb.service.Log(ctx).WithField("paymentId", payment.ID).WithField("leaseId", lease.ID)

	if !lease.IsAnchored() {
		anchorID, err := rb.gateway.CreateLease(ctx, snapshotFromLease(lease))
		if err != nil {
			// The lease may have been anchored out of band; the payment
			// call below settles the question, the contract rejects
			// payments against unknown leases.
			logger.WithError(err).Warn("could not anchor lease on chain, attempting payment anyway")
		} else {
			written, saveErr := rb.leaseRepo.SetChainAnchor(ctx, lease.ID, anchorID)
			if saveErr != nil {
				logger.WithError(saveErr).Warn("could not persist chain anchor")
			} else if written {
				lease.ChainAnchorID = &anchorID
			}
		}
	}

	transactionID, err := rb.gateway.RecordPayment(ctx, chain.PaymentRecord{
		LeaseID:   lease.ID,
		PaymentID: payment.ID,
		Amount:    payment.Amount.Decimal,
		Rail:      payment.Rail,
	})
	if err != nil {
		logger.WithError(err).Error("on chain payment failed")
		return rb.failPayment(ctx, payment, err.Error(), err)
	}

	if _, err = rb.paymentRepo.TransitionStatus(ctx, payment.ID, models.PaymentStatusPaid, transactionID, ""); err != nil {
		logger.WithError(err).Error("could not mark payment as paid")
		return nil, err
	}
	payment.Status = models.PaymentStatusPaid
	payment.TransactionID = transactionID
	rb.emitStatusEvent(ctx, payment.ID, models.PaymentStatusPaid, "")

	return payment, nil
}

// failPayment records the terminal failure on the row and surfaces the
// original cause to the caller. The row stays behind as the audit trail.
func (rb *reconciliationBusiness) failPayment(ctx context.Context, payment *models.Payment, reason string, cause error) (*models.Payment, error) {
	if _, err := rb.paymentRepo.TransitionStatus(ctx, payment.ID, models.PaymentStatusFailed, "", reason); err != nil {
		rb.service.Log(ctx).WithError(err).WithField("paymentId", payment.ID).Error("could not mark payment as failed")
		return nil, err
	}
	payment.Status = models.PaymentStatusFailed
	payment.FailureReason = reason
	rb.emitStatusEvent(ctx, payment.ID, models.PaymentStatusFailed, reason)
	return payment, cause
}

func (rb *reconciliationBusiness) Confirm(ctx context.Context, payload *WebhookPayload) (*models.Payment, error) {
	logger := rb.service.Log(ctx).WithField("reference", payload.Reference).WithField("status", payload.Status)

	if payload.Signature != "" && !rb.adapter.VerifySignature(payload.Signature) {
		return nil, ErrorInvalidSignature
	}

	payment, err := rb.resolvePayment(ctx, payload)
	if err != nil {
		return nil, err
	}

	if payment.IsTerminal() {
		logger.WithField("paymentId", payment.ID).Debug("duplicate confirmation for settled payment")
		return payment, nil
	}

	switch payload.Status {
	case "success":
		transactionID := payload.TransactionID
		if transactionID == "" {
			transactionID = payload.Reference
		}
		changed, err := rb.paymentRepo.TransitionStatus(ctx, payment.ID, models.PaymentStatusPaid, transactionID, "")
		if err != nil {
			return nil, err
		}
		payment, err = rb.paymentRepo.GetByID(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		if changed {
			rb.emitStatusEvent(ctx, payment.ID, models.PaymentStatusPaid, "")
			rb.notifyConfirmed(ctx, payment)
		}
		return payment, nil

	case "pending":
		// Not an outcome yet; the aggregator will call back again.
		return payment, nil

	default:
		reason := fmt.Sprintf("aggregator reported %s", payload.Status)
		changed, err := rb.paymentRepo.TransitionStatus(ctx, payment.ID, models.PaymentStatusFailed, "", reason)
		if err != nil {
			return nil, err
		}
		payment, err = rb.paymentRepo.GetByID(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		if changed {
			rb.emitStatusEvent(ctx, payment.ID, models.PaymentStatusFailed, reason)
		}
		return payment, nil
	}
}

// resolvePayment finds the payment a webhook refers to, trying the
// internal id first, then the transaction id, then the reference string.
func (rb *reconciliationBusiness) resolvePayment(ctx context.Context, payload *WebhookPayload) (*models.Payment, error) {
	if payload.PaymentID != "" {
		payment, err := rb.paymentRepo.GetByID(ctx, payload.PaymentID)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	for _, candidate := range []string{payload.TransactionID, payload.Reference} {
		if candidate == "" {
			continue
		}
		payment, err := rb.paymentRepo.GetByTransactionID(ctx, candidate)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, ErrorPaymentDoesNotExist
}

func (rb *reconciliationBusiness) History(ctx context.Context, leaseID string, status string, page int, limit int) ([]*models.Payment, error) {
	if _, err := rb.leaseRepo.GetByID(ctx, leaseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorLeaseDoesNotExist
		}
		return nil, err
	}
	return rb.paymentRepo.History(ctx, leaseID, status, page, limit)
}

// StatusTrail lists the audit rows written for a payment, oldest first.
func (rb *reconciliationBusiness) StatusTrail(ctx context.Context, paymentID string) ([]*models.PaymentStatus, error) {
	if _, err := rb.paymentRepo.GetByID(ctx, paymentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorPaymentDoesNotExist
		}
		return nil, err
	}
	return rb.statusRepo.GetByPaymentID(ctx, paymentID)
}

func (rb *reconciliationBusiness) emitStatusEvent(ctx context.Context, paymentID string, paymentStatus string, reason string) {
	pStatus := models.PaymentStatus{
		PaymentID: paymentID,
		Status:    paymentStatus,
	}
	if reason != "" {
		pStatus.Extra = datatypes.JSONMap{"failure_reason": reason}
	}
	pStatus.GenID(ctx)

	event := events.PaymentStatusSave{}
	if err := rb.service.Emit(ctx, event.Name(), pStatus); err != nil {
		rb.service.Log(ctx).WithError(err).WithField("paymentId", paymentID).Warn("could not emit payment status event")
	}
}

// notifyConfirmed is fire and forget; a notification failure never rolls
// back the settled payment.
func (rb *reconciliationBusiness) notifyConfirmed(ctx context.Context, payment *models.Payment) {
	event := events.PaymentConfirmed{}
	if err := rb.service.Emit(ctx, event.Name(), payment); err != nil {
		rb.service.Log(ctx).WithError(err).WithField("paymentId", payment.ID).Warn("could not emit confirmation event")
	}
}

func snapshotFromLease(lease *models.Lease) chain.LeaseSnapshot {
	depositStatus := lease.DepositStatus
	if depositStatus == "" {
		depositStatus = models.DepositStatusUnpaid
	}
	return chain.LeaseSnapshot{
		LeaseID:       lease.ID,
		LandlordID:    lease.LandlordID,
		TenantID:      lease.TenantID,
		EndDate:       lease.EndDate,
		RentAmount:    lease.RentAmount.Decimal,
		Currency:      lease.Currency,
		Status:        lease.Status,
		DepositMonths: int64(lease.DepositMonths),
		DepositAmount: lease.DepositAmount.Decimal,
		DepositStatus: depositStatus,
	}
}
