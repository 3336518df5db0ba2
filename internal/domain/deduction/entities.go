package deduction

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("scheduled deduction not found")
	// ErrStaleState is returned when a conditional transition finds the row
	// no longer in the expected status.
	ErrStaleState      = errors.New("scheduled deduction changed state")
	ErrDuplicate       = errors.New("scheduled deduction already exists for date")
	ErrTxNotFound      = errors.New("deduction transaction not found")
	ErrInvalidTxStatus = errors.New("invalid deduction transaction status")
)

const DefaultMaxAttempts = 3

// PlatformFeeRate is the fixed share of each successful charge kept by the platform.
var PlatformFeeRate = decimal.RequireFromString("0.02")

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports statuses that never change again.
func (s Status) IsTerminal() bool { return s == StatusCompleted || s == StatusCancelled }

type ScheduledDeduction struct {
	ID                   uint64     `gorm:"primaryKey;column:id" json:"-"`
	DeductionID          string     `gorm:"size:32;uniqueIndex:ux_deductions_deduction_id" json:"deduction_id"`
	MandateID            string     `gorm:"size:32;uniqueIndex:ux_deductions_mandate_date,priority:1" json:"mandate_id"`
	LoanID               string     `gorm:"size:32;index:idx_deductions_loan" json:"loan_id"`
	PaymentMethodID      string     `gorm:"size:32" json:"payment_method_id"`
	ScheduledDate        time.Time  `gorm:"uniqueIndex:ux_deductions_mandate_date,priority:2;index:idx_deductions_status_date,priority:2" json:"scheduled_date"`
	AmountMinor          int64      `gorm:"not null" json:"amount_minor"`
	Currency             string     `gorm:"size:3;not null" json:"currency"`
	Status               Status     `gorm:"size:16;not null;default:scheduled;index:idx_deductions_status_date,priority:1" json:"status"`
	AttemptCount         int        `gorm:"not null;default:0" json:"attempt_count"`
	MaxAttempts          int        `gorm:"not null;default:3" json:"max_attempts"`
	NextRetryAt          *time.Time `json:"next_retry_at,omitempty"`
	FailureReason        string     `gorm:"size:512" json:"failure_reason,omitempty"`
	GatewayTransactionID string     `gorm:"size:191" json:"gateway_transaction_id,omitempty"`
	// ChargeKey is the gateway idempotency key of the open attempt. It survives
	// an attempt whose outcome is unknown and is cleared after a known decline.
	ChargeKey            string     `gorm:"size:64" json:"-"`
	ProcessingStartedAt  *time.Time `json:"processing_started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ScheduledDeduction) TableName() string { return "scheduled_deductions" }

// Retryable reports whether another attempt is allowed after the current one failed.
func (d *ScheduledDeduction) Retryable() bool {
	limit := d.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	return d.AttemptCount < limit
}

// NextChargeKey is the idempotency key for the coming attempt: the stored key
// when the last outcome is unknown, else the deduction id, suffixed with the
// attempt number from the second attempt on.
func (d *ScheduledDeduction) NextChargeKey() string {
	if d.ChargeKey != "" {
		return d.ChargeKey
	}
	attempt := d.AttemptCount + 1
	if attempt <= 1 {
		return d.DeductionID
	}
	return d.DeductionID + "-" + strconv.Itoa(attempt)
}

// Update is applied by Repository.Transition only while the row still holds
// the expected status.
type Update struct {
	To                   Status
	IncrementAttempt     bool
	NextRetryAt          *time.Time
	ClearNextRetry       bool
	FailureReason        string
	GatewayTransactionID string
	ProcessingStartedAt  *time.Time
	CompletedAt          *time.Time
	ChargeKey            string
	ClearChargeKey       bool
}

type TxStatus string

const (
	TxSuccess  TxStatus = "success"
	TxFailed   TxStatus = "failed"
	TxRefunded TxStatus = "refunded"
	TxDisputed TxStatus = "disputed"
)

// Transaction is the ledger row recorded per gateway outcome.
type Transaction struct {
	ID                   uint64    `gorm:"primaryKey;column:id" json:"-"`
	TransactionID        string    `gorm:"size:32;uniqueIndex:ux_deduction_tx_id" json:"transaction_id"`
	DeductionID          string    `gorm:"size:32;index:idx_deduction_tx_deduction" json:"deduction_id"`
	MandateID            string    `gorm:"size:32" json:"mandate_id"`
	LoanID               string    `gorm:"size:32" json:"loan_id"`
	GatewayTransactionID string    `gorm:"size:191;index:idx_deduction_tx_gateway" json:"gateway_transaction_id,omitempty"`
	GrossAmount          int64     `json:"gross_amount"`
	PlatformFee          int64     `json:"platform_fee"`
	LenderAmount         int64     `json:"lender_amount"`
	Currency             string    `gorm:"size:3" json:"currency"`
	Status               TxStatus  `gorm:"size:16;not null" json:"status"`
	FailureReason        string    `gorm:"size:512" json:"failure_reason,omitempty"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "deduction_transactions" }

// SplitFee returns the platform fee (2%, rounded half up) and the lender share.
func SplitFee(grossMinor int64) (fee, lender int64) {
	fee = decimal.NewFromInt(grossMinor).Mul(PlatformFeeRate).Round(0).IntPart()
	return fee, grossMinor - fee
}
