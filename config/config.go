package config

import "github.com/pitabwire/frame"

type LedgerConfig struct {
	frame.ConfigurationDefault

	HederaNetwork          string `envDefault:"testnet" env:"HEDERA_NETWORK"`
	HederaAccountID        string `envDefault:"" env:"HEDERA_ACCOUNT_ID"`
	HederaPrivateKey       string `envDefault:"" env:"HEDERA_PRIVATE_KEY"`
	HederaMasterContractID string `envDefault:"" env:"HEDERA_MASTER_CONTRACT_ID"`

	FlwBaseURL     string `envDefault:"https://api.flutterwave.com/v3" env:"FLW_BASE_URL"`
	FlwSecretKey   string `envDefault:"" env:"FLW_SECRET_KEY"`
	FlwWebhookHash string `envDefault:"" env:"FLW_WEBHOOK_HASH"`

	NATS_URL          string `envDefault:"nats://nats:4222?subject=" env:"NATS_URL" required:"true"`
	NotificationTopic string `envDefault:"payment.confirmed" env:"NOTIFICATION_TOPIC" required:"true"`

	SecurelyRunService bool `envDefault:"false" env:"SECURELY_RUN_SERVICE"`
	DO_MIGRATION       bool `envDefault:"false" env:"DO_MIGRATION"`
}
