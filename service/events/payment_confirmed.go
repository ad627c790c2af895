package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/immobx/service-ledger/service/models"
	"github.com/pitabwire/frame"
)

// PaymentConfirmed fans a settled payment out to the notifications topic
// so interested parties (landlord, tenant) can be told. Delivery is best
// effort; the payment state change never depends on it.
type PaymentConfirmed struct {
	Service *frame.Service
	Topic   string
}

func (e *PaymentConfirmed) Name() string {
	return "payment.confirmed"
}

func (e *PaymentConfirmed) PayloadType() any {
	return &models.Payment{}
}

func (e *PaymentConfirmed) Validate(_ context.Context, payload any) error {
	payment, ok := payload.(*models.Payment)
	if !ok {
		return errors.New(" payload is not of type models.Payment")
	}
	if payment.GetID() == "" {
		return errors.New(" payment Id should already have been set ")
	}
	return nil
}

func (e *PaymentConfirmed) Execute(ctx context.Context, payload any) error {
	payment := payload.(*models.Payment)

	logger := e.Service.Log(ctx).WithField("paymentId", payment.GetID()).WithField("type", e.Name())

	notification := map[string]string{
		"payment_id":     payment.ID,
		"lease_id":       payment.LeaseID,
		"status":         payment.Status,
		"rail":           payment.Rail,
		"transaction_id": payment.TransactionID,
	}
	message, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	if err = e.Service.Publish(ctx, e.Topic, message); err != nil {
		logger.WithError(err).Warn("could not publish confirmation notification")
		return err
	}

	logger.Debug("published confirmation notification")
	return nil
}
