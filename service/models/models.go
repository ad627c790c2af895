package models

import (
	"time"

	"github.com/pitabwire/frame"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	RailHbar        = "HBAR"
	RailUsdc        = "USDC"
	RailMobileMoney = "MOBILE_MONEY"

	LeaseStatusPending    = "pending"
	LeaseStatusActive     = "active"
	LeaseStatusTerminated = "terminated"

	DepositStatusUnpaid  = "unpaid"
	DepositStatusPartial = "partial"
	DepositStatusPaid    = "paid"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// IsChainRail reports whether the rail settles on the distributed ledger
// synchronously, as opposed to the mobile money aggregator whose outcome
// arrives later via webhook.
func IsChainRail(rail string) bool {
	return rail == RailHbar || rail == RailUsdc
}

func IsKnownRail(rail string) bool {
	return IsChainRail(rail) || rail == RailMobileMoney
}

// Lease Table holds the rental agreement between a landlord owned property and a tenant
type Lease struct {
	frame.BaseModel

	PropertyID string `gorm:"type:varchar(50);index"`
	LandlordID string `gorm:"type:varchar(50)"`
	TenantID   string `gorm:"type:varchar(50)"`

	StartDate time.Time
	EndDate   *time.Time

	RentAmount decimal.NullDecimal `gorm:"type:numeric" json:"rent_amount"`
	Currency   string              `gorm:"type:varchar(10)"`
	Status     string              `gorm:"type:varchar(20)"`

	DepositMonths int
	DepositAmount decimal.NullDecimal `gorm:"type:numeric" json:"deposit_amount"`
	DepositStatus string              `gorm:"type:varchar(20)"`

	// ChainAnchorID correlates this lease with its smart contract
	// representation. Null until first anchored; written at most once.
	ChainAnchorID *string `gorm:"type:varchar(100);uniqueIndex"`

	Extra datatypes.JSONMap `gorm:"index:,type:gin,option:jsonb_path_ops" json:"extra"`
}

func (model *Lease) IsAnchored() bool {
	return model.ChainAnchorID != nil && *model.ChainAnchorID != ""
}

func (model *Lease) IsOpenEnded() bool {
	return model.EndDate == nil || model.EndDate.IsZero()
}

// Payment Table holds one attempt to transfer funds against a lease.
// Rows are never deleted, a failed attempt is the audit trail of what was tried.
type Payment struct {
	frame.BaseModel

	LeaseID string `gorm:"type:varchar(50);index"`

	Amount   decimal.NullDecimal `gorm:"type:numeric" json:"amount"`
	Currency string              `gorm:"type:varchar(10)"`
	Rail     string              `gorm:"type:varchar(20)"`

	// TransactionID holds the provider reference for mobile money payments
	// and the chain transaction id for on chain payments. Uniqueness for
	// non empty values is enforced by a partial index, see migrations.
	TransactionID string `gorm:"type:varchar(100);index"`

	Status        string `gorm:"type:varchar(20)"`
	FailureReason string `gorm:"type:text"`

	Extra datatypes.JSONMap `gorm:"index:,type:gin,option:jsonb_path_ops" json:"extra"`
}

func (model *Payment) IsTerminal() bool {
	return model.Status == PaymentStatusPaid || model.Status == PaymentStatusFailed
}

// PaymentStatus keeps an append only trail of every status a payment has moved through.
type PaymentStatus struct {
	frame.BaseModel

	PaymentID string            `gorm:"type:varchar(50);index"`
	Status    string            `gorm:"type:varchar(20)"`
	Extra     datatypes.JSONMap `gorm:"index:,type:gin,option:jsonb_path_ops" json:"extra"`
}

type LeaseObject struct {
	ID            string          `json:"id"`
	PropertyID    string          `json:"property_id"`
	LandlordID    string          `json:"landlord_id"`
	TenantID      string          `json:"tenant_id"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	RentAmount    decimal.Decimal `json:"rent_amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	DepositMonths int             `json:"deposit_months"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	DepositStatus string          `json:"deposit_status"`
	ChainAnchorID string          `json:"chain_anchor_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (model *Lease) ToAPI() *LeaseObject {
	anchorID := ""
	if model.ChainAnchorID != nil {
		anchorID = *model.ChainAnchorID
	}

	return &LeaseObject{
		ID:            model.ID,
		PropertyID:    model.PropertyID,
		LandlordID:    model.LandlordID,
		TenantID:      model.TenantID,
		StartDate:     model.StartDate,
		EndDate:       model.EndDate,
		RentAmount:    model.RentAmount.Decimal,
		Currency:      model.Currency,
		Status:        model.Status,
		DepositMonths: model.DepositMonths,
		DepositAmount: model.DepositAmount.Decimal,
		DepositStatus: model.DepositStatus,
		ChainAnchorID: anchorID,
		CreatedAt:     model.CreatedAt,
	}
}

type PaymentObject struct {
	ID            string          `json:"id"`
	LeaseID       string          `json:"lease_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Rail          string          `json:"rail"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CheckoutURL   string          `json:"checkout_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (model *Payment) ToAPI() *PaymentObject {
	checkoutURL := ""
	if model.Extra != nil {
		if v, ok := model.Extra["checkout_url"].(string); ok {
			checkoutURL = v
		}
	}

	return &PaymentObject{
		ID:            model.ID,
		LeaseID:       model.LeaseID,
		Amount:        model.Amount.Decimal,
		Currency:      model.Currency,
		Rail:          model.Rail,
		TransactionID: model.TransactionID,
		Status:        model.Status,
		FailureReason: model.FailureReason,
		CheckoutURL:   checkoutURL,
		CreatedAt:     model.CreatedAt,
	}
}
