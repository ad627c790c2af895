package chain

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/shopspring/decimal"
)

const (
	createLeaseFunction = "createNewLease"
	makePaymentFunction = "makePayment"

	createLeaseGas = 900_000
	makePaymentGas = 500_000
)

// LeaseSnapshot carries the lease fields mirrored onto the master contract.
type LeaseSnapshot struct {
	LeaseID       string
	LandlordID    string
	TenantID      string
	EndDate       *time.Time
	RentAmount    decimal.Decimal
	Currency      string
	Status        string
	DepositMonths int64
	DepositAmount decimal.Decimal
	DepositStatus string
}

// PaymentRecord carries one payment attempt to be recorded against a lease.
type PaymentRecord struct {
	LeaseID   string
	PaymentID string
	Amount    decimal.Decimal
	Rail      string
}

// Gateway is the thin client the orchestrator uses to mirror leases and
// payments onto the ledger. It does not deduplicate calls; retry safety is
// the caller's responsibility.
type Gateway interface {
	CreateLease(ctx context.Context, snapshot LeaseSnapshot) (string, error)
	RecordPayment(ctx context.Context, record PaymentRecord) (string, error)
}

type Config struct {
	Network          string
	OperatorID       string
	OperatorKey      string
	MasterContractID string
}

type hederaGateway struct {
	client     *hedera.Client
	contractID hedera.ContractID
}

// New creates a gateway bound to the configured operator account and
// master contract.
func New(cfg Config) (Gateway, error) {
	if cfg.OperatorID == "" || cfg.OperatorKey == "" {
		return nil, errors.New("missing hedera operator credentials")
	}

	operatorID, err := hedera.AccountIDFromString(cfg.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("invalid hedera operator id: %w", err)
	}

	operatorKey, err := hedera.PrivateKeyFromString(cfg.OperatorKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hedera operator key: %w", err)
	}

	contractID, err := hedera.ContractIDFromString(cfg.MasterContractID)
	if err != nil {
		return nil, fmt.Errorf("invalid master contract id: %w", err)
	}

	network := cfg.Network
	if network == "" {
		network = "testnet"
	}
	client, err := hedera.ClientForName(network)
	if err != nil {
		return nil, fmt.Errorf("unknown hedera network %q: %w", network, err)
	}
	client.SetOperator(operatorID, operatorKey)

	return &hederaGateway{client: client, contractID: contractID}, nil
}

func (gw *hederaGateway) CreateLease(_ context.Context, snapshot LeaseSnapshot) (string, error) {
	var endDate uint64
	if snapshot.EndDate != nil && !snapshot.EndDate.IsZero() {
		endDate = uint64(snapshot.EndDate.Unix())
	}

	params := hedera.NewContractFunctionParameters()
	for _, word := range [][]byte{
		uint256FromID(snapshot.LeaseID),
		uint256FromID(snapshot.LandlordID),
		uint256FromID(snapshot.TenantID),
	} {
		params.AddUint256(word)
	}
	params.AddUint64(endDate)
	params.AddUint256(uint256FromAmount(snapshot.RentAmount))
	params.AddString(snapshot.Currency)
	params.AddString(snapshot.Status)
	params.AddUint256(uint256FromInt(snapshot.DepositMonths))
	params.AddUint256(uint256FromAmount(snapshot.DepositAmount))
	params.AddString(snapshot.DepositStatus)

	return gw.execute(createLeaseFunction, createLeaseGas, params)
}

func (gw *hederaGateway) RecordPayment(_ context.Context, record PaymentRecord) (string, error) {
	params := hedera.NewContractFunctionParameters()
	for _, word := range [][]byte{
		uint256FromID(record.LeaseID),
		uint256FromID(record.PaymentID),
		uint256FromAmount(record.Amount),
	} {
		params.AddUint256(word)
	}
	params.AddString(record.Rail)

	return gw.execute(makePaymentFunction, makePaymentGas, params)
}

func (gw *hederaGateway) execute(function string, gas uint64, params *hedera.ContractFunctionParameters) (string, error) {
	response, err := hedera.NewContractExecuteTransaction().
		SetContractID(gw.contractID).
		SetGas(gas).
		SetFunction(function, params).
		Execute(gw.client)
	if err != nil {
		return "", classify(err)
	}

	receipt, err := response.GetReceipt(gw.client)
	if err != nil {
		return "", classify(err)
	}

	if receipt.Status != hedera.StatusSuccess {
		return "", &RejectedError{Status: receipt.Status.String()}
	}

	return response.TransactionID.String(), nil
}

// classify separates business refusals surfaced through precheck or
// receipt statuses from transport conditions where the outcome is unknown.
func classify(err error) error {
	var precheck hedera.ErrHederaPreCheckStatus
	if errors.As(err, &precheck) {
		return &RejectedError{Status: precheck.Status.String()}
	}
	var receiptStatus hedera.ErrHederaReceiptStatus
	if errors.As(err, &receiptStatus) {
		return &RejectedError{Status: receiptStatus.Status.String()}
	}
	return &UnavailableError{Err: err}
}

// uint256FromID maps a record id onto a deterministic 32 byte contract key.
func uint256FromID(id string) []byte {
	sum := sha256.Sum256([]byte(id))
	return sum[:]
}

func uint256FromInt(v int64) []byte {
	if v < 0 {
		v = 0
	}
	return new(big.Int).SetInt64(v).FillBytes(make([]byte, 32))
}

// uint256FromAmount rounds to whole currency units, matching what the
// master contract stores.
func uint256FromAmount(amount decimal.Decimal) []byte {
	units := amount.Round(0).BigInt()
	if units.Sign() < 0 {
		units = big.NewInt(0)
	}
	return units.FillBytes(make([]byte, 32))
}
