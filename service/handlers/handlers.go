package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/immobx/service-ledger/service/business"
	"github.com/immobx/service-ledger/service/chain"
	"github.com/immobx/service-ledger/service/models"
	"github.com/immobx/service-ledger/service/rail"
	"github.com/pitabwire/frame"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type LedgerServer struct {
	Service  *frame.Service
	Business business.ReconciliationBusiness
	Leases   business.LeaseBusiness
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// InitiatePaymentHandler accepts one payment attempt against a lease.
// A payment that was created but failed terminally is still returned in
// the error response body; the row is the audit trail.
func (ls *LedgerServer) InitiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ls.Service.Log(ctx).WithField("type", "InitiatePaymentHandler")

	var request business.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.WithError(err).Error("failed to decode payment request")
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	payment, err := ls.Business.Initiate(ctx, &request)
	if err != nil {
		logger.WithError(err).Error("payment initiation failed")
		response := map[string]any{"message": "Payment failed", "error": err.Error()}
		if payment != nil {
			response["data"] = payment.ToAPI()
		}
		writeJSON(w, httpStatusFromError(err), response)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Payment accepted",
		"data":    payment.ToAPI(),
	})
}

// PaymentWebhookHandler receives the aggregator's settlement report. Any
// 2xx answer tells the sender not to retry.
func (ls *LedgerServer) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ls.Service.Log(ctx).WithField("type", "PaymentWebhookHandler")

	var payload business.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.WithError(err).Error("failed to decode webhook payload")
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}
	payload.Signature = r.Header.Get("verif-hash")

	payment, err := ls.Business.Confirm(ctx, &payload)
	if err != nil {
		logger.WithError(err).Error("webhook confirmation failed")
		writeJSON(w, httpStatusFromError(err), map[string]any{"message": "Webhook rejected", "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Webhook processed",
		"data":    payment.ToAPI(),
	})
}

func (ls *LedgerServer) CreateLeaseHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ls.Service.Log(ctx).WithField("type", "CreateLeaseHandler")

	var request business.CreateLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.WithError(err).Error("failed to decode lease request")
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	lease, err := ls.Leases.Create(ctx, &request)
	if err != nil {
		logger.WithError(err).Error("lease registration failed")
		writeJSON(w, httpStatusFromError(err), map[string]any{"message": "Lease not registered", "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Lease registered",
		"data":    lease.ToAPI(),
	})
}

func (ls *LedgerServer) GetLeaseHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ls.Service.Log(ctx).WithField("type", "GetLeaseHandler")

	lease, err := ls.Leases.GetByID(ctx, mux.Vars(r)["leaseID"])
	if err != nil {
		logger.WithError(err).Error("could not load lease")
		writeJSON(w, httpStatusFromError(err), map[string]any{"message": "Could not load lease", "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Lease details",
		"data":    lease.ToAPI(),
	})
}

func (ls *LedgerServer) PaymentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ls.Service.Log(ctx).WithField("type", "PaymentHistoryHandler")

	leaseID := mux.Vars(r)["leaseID"]
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	paymentStatus := r.URL.Query().Get("status")

	payments, err := ls.Business.History(ctx, leaseID, paymentStatus, page, limit)
	if err != nil {
		logger.WithError(err).Error("could not list payments")
		writeJSON(w, httpStatusFromError(err), map[string]any{"message": "Could not list payments", "error": err.Error()})
		return
	}

	items := make([]*models.PaymentObject, 0, len(payments))
	for _, payment := range payments {
		items = append(items, payment.ToAPI())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Payment history",
		"data":    items,
	})
}

func (ls *LedgerServer) PaymentStatusTrailHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ls.Service.Log(ctx).WithField("type", "PaymentStatusTrailHandler")

	statuses, err := ls.Business.StatusTrail(ctx, mux.Vars(r)["paymentID"])
	if err != nil {
		logger.WithError(err).Error("could not list payment statuses")
		writeJSON(w, httpStatusFromError(err), map[string]any{"message": "Could not list payment statuses", "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Payment status trail",
		"data":    statuses,
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// httpStatusFromError maps the business and collaborator error taxonomy
// onto HTTP status codes.
func httpStatusFromError(err error) int {
	var chainRejected *chain.RejectedError
	var railRejected *rail.RejectedError
	if errors.As(err, &chainRejected) || errors.As(err, &railRejected) {
		return http.StatusBadRequest
	}

	var chainUnavailable *chain.UnavailableError
	var railUnavailable *rail.UnavailableError
	if errors.As(err, &chainUnavailable) || errors.As(err, &railUnavailable) {
		return http.StatusBadGateway
	}

	switch status.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.FailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
