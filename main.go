package main

import (
	"fmt"
	"strings"

	"github.com/immobx/service-ledger/config"
	"github.com/immobx/service-ledger/service/business"
	"github.com/immobx/service-ledger/service/chain"
	"github.com/immobx/service-ledger/service/events"
	"github.com/immobx/service-ledger/service/handlers"
	"github.com/immobx/service-ledger/service/models"
	"github.com/immobx/service-ledger/service/rail"
	"github.com/immobx/service-ledger/service/repository"
	"github.com/immobx/service-ledger/service/router"
	"github.com/nats-io/nats.go"
	"github.com/pitabwire/frame"
	_ "gorm.io/driver/postgres"
)

func main() {
	serviceName := "service_ledger"
	ledgerConfig, err := frame.ConfigFromEnv[config.LedgerConfig]()
	if err != nil {
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	ctx, service := frame.NewService(serviceName, frame.WithConfig(&ledgerConfig), frame.WithDatastore())
	defer service.Stop(ctx)
	logger := service.Log(ctx).WithField("type", "main")

	// Run migrations if DO_MIGRATION=true
	if ledgerConfig.DO_MIGRATION {
		err = service.MigrateDatastore(ctx, ledgerConfig.GetDatabaseMigrationPath(),
			&models.Lease{}, &models.Payment{}, &models.PaymentStatus{})
		if err != nil {
			logger.WithError(err).Fatal("could not migrate successfully")
		}
		logger.Info("Migrations completed successfully")
		return
	}

	// Ensure all required tables exist
	db := service.DB(ctx, false)
	if db == nil {
		logger.Fatal("Database connection is nil - check DATABASE_URL and database availability")
		return
	}
	if err = db.AutoMigrate(&models.Lease{}, &models.Payment{}, &models.PaymentStatus{}); err != nil {
		logger.WithError(err).Fatal("Failed to auto-migrate database tables - cannot continue")
		return
	}

	gateway, err := chain.New(chain.Config{
		Network:          ledgerConfig.HederaNetwork,
		OperatorID:       ledgerConfig.HederaAccountID,
		OperatorKey:      ledgerConfig.HederaPrivateKey,
		MasterContractID: ledgerConfig.HederaMasterContractID,
	})
	if err != nil {
		logger.WithError(err).Fatal("could not setup chain gateway")
	}

	adapter := rail.New(ledgerConfig.FlwBaseURL, ledgerConfig.FlwSecretKey, ledgerConfig.FlwWebhookHash)
	if ledgerConfig.FlwWebhookHash == "" {
		logger.Warn("No webhook hash configured: signed aggregator callbacks will be rejected")
	}

	leaseRepo := repository.NewLeaseRepository(ctx, service)
	paymentRepo := repository.NewPaymentRepository(ctx, service)
	paymentStatusRepo := repository.NewPaymentStatusRepository(ctx, service)

	reconciliation, err := business.NewReconciliationBusiness(ctx, service, leaseRepo, paymentRepo, paymentStatusRepo, gateway, adapter)
	if err != nil {
		logger.WithError(err).Fatal("could not setup reconciliation business")
	}

	leases, err := business.NewLeaseBusiness(ctx, service, leaseRepo)
	if err != nil {
		logger.WithError(err).Fatal("could not setup lease business")
	}

	ledgerServer := &handlers.LedgerServer{
		Service:  service,
		Business: reconciliation,
		Leases:   leases,
	}

	notificationTopic := ledgerConfig.NotificationTopic
	notificationURL := ledgerConfig.NATS_URL + notificationTopic

	// Probe NATS before registering the publisher; fall back to in-memory
	// pub/sub so confirmations keep flowing when the broker is away.
	probeURL := strings.SplitN(ledgerConfig.NATS_URL, "?", 2)[0]
	if nc, natsErr := nats.Connect(probeURL); natsErr != nil {
		logger.WithError(natsErr).Warn("could not reach NATS - falling back to memory-based pubsub")
		notificationURL = "mem://" + notificationTopic
	} else {
		nc.Close()
		logger.WithField("natsURL", notificationURL).Info("Using NATS for pub/sub messaging")
	}

	serviceOptions := []frame.Option{
		frame.WithHTTPHandler(router.NewRouter(ledgerServer)),
		frame.WithRegisterEvents(
			&events.PaymentStatusSave{Service: service},
			&events.PaymentConfirmed{Service: service, Topic: notificationTopic},
		),
		frame.WithRegisterPublisher(notificationTopic, notificationURL),
	}

	service.Init(ctx, serviceOptions...)

	logger.WithField("server http port", ledgerConfig.HTTPServerPort).
		Info("Initiating server operations")

	if err = service.Run(ctx, ":8081"); err != nil {
		logger.WithError(err).Fatal("could not run Server")
	}
}
