package router

import (
	"github.com/gorilla/mux"
	handlers "github.com/immobx/service-ledger/service/handlers"
)

func NewRouter(ls *handlers.LedgerServer) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	// Health check endpoint
	router.HandleFunc("/health", handlers.HealthHandler).Methods("GET")

	// Lease endpoints
	router.HandleFunc("/leases", ls.CreateLeaseHandler).Methods("POST")
	router.HandleFunc("/leases/{leaseID}", ls.GetLeaseHandler).Methods("GET")

	// Payment endpoints
	router.HandleFunc("/payments", ls.InitiatePaymentHandler).Methods("POST")
	router.HandleFunc("/leases/{leaseID}/payments", ls.PaymentHistoryHandler).Methods("GET")
	router.HandleFunc("/payments/{paymentID}/statuses", ls.PaymentStatusTrailHandler).Methods("GET")

	// Webhook endpoint
	router.HandleFunc("/webhooks/payment", ls.PaymentWebhookHandler).Methods("POST")

	return router
}
