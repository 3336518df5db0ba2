package repayment

import (
	"time"

	domain "credlio-backend/internal/domain/repayment"
)

type RecordInput struct {
	LoanID      string
	AmountMinor int64
	PaidAt      time.Time
	Method      domain.Method
	// ScheduleID links the event to an installment; empty links the earliest unpaid one.
	ScheduleID string
	Reference  string
}

type RepaymentDTO struct {
	RepaymentID      string    `json:"repayment_id"`
	LoanID           string    `json:"loan_id"`
	ScheduleID       string    `json:"schedule_id,omitempty"`
	AmountMinor      int64     `json:"amount_minor"`
	PaidAt           time.Time `json:"paid_at"`
	Method           string    `json:"method"`
	TotalRepaidMinor int64     `json:"total_repaid_minor"`
	LoanStatus       string    `json:"loan_status"`
	Warnings         []string  `json:"warnings,omitempty"`
}

// Applied reports what Apply changed.
type Applied struct {
	Event            domain.Event
	InstallmentPaid  bool
	TotalRepaidMinor int64
	Completed        bool
}
