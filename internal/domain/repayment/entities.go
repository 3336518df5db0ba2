package repayment

import (
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid repayment input")

type Method string

const (
	MethodManual  Method = "manual"
	MethodMandate Method = "mandate"
	MethodGateway Method = "gateway"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodManual, MethodMandate, MethodGateway:
		return true
	}
	return false
}

// Event is an append-only record of money received against a loan.
type Event struct {
	ID                uint64    `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID       string    `gorm:"size:32;uniqueIndex:ux_repayment_repayment_id" json:"repayment_id"`
	LoanID            string    `gorm:"size:32;index:idx_repayment_loan" json:"loan_id"`
	ScheduleID        *string   `gorm:"size:32" json:"schedule_id,omitempty"`
	AmountMinor       int64     `json:"amount_minor"`
	PaidAt            time.Time `json:"paid_at"`
	Method            Method    `gorm:"size:16" json:"method"`
	ExternalReference string    `gorm:"size:128" json:"external_reference,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Event) TableName() string { return "repayment_events" }
