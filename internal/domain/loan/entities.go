package loan

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidTransition = errors.New("invalid loan state transition")
	ErrInvalidInput      = errors.New("invalid loan input")
	ErrOpenRequestExists = errors.New("borrower already has a requested loan")
	ErrForbidden         = errors.New("actor may not act on this loan")
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var transitions = map[Status][]Status{
	StatusRequested: {StatusPending, StatusRejected, StatusCancelled},
	StatusPending:   {StatusActive, StatusRejected, StatusCancelled},
	StatusActive:    {StatusCompleted},
}

// CanTransition reports whether from -> to is an allowed lifecycle move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Loan struct {
	ID               uint64         `gorm:"primaryKey;column:id" json:"-"`
	LoanID           string         `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID       string         `gorm:"size:64;index:idx_loans_borrower" json:"borrower_id"`
	LenderID         string         `gorm:"size:64;index:idx_loans_lender" json:"lender_id,omitempty"`
	PrincipalMinor   int64          `gorm:"not null" json:"principal_minor"`
	AprBps           int            `gorm:"not null" json:"apr_bps"`
	TermMonths       int            `gorm:"not null" json:"term_months"`
	StartDate        *time.Time     `json:"start_date,omitempty"`
	Currency         string         `gorm:"size:3;not null" json:"currency"`
	Purpose          string         `gorm:"size:64" json:"purpose"`
	Status           Status         `gorm:"size:16;not null;default:requested" json:"status"`
	TotalRepaidMinor int64          `gorm:"not null;default:0" json:"total_repaid_minor"`
	ActivatedAt      *time.Time     `json:"activated_at,omitempty"`
	StatusUpdatedAt  time.Time      `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "loans" }

func (l *Loan) IsActive() bool { return l.Status == StatusActive }

// OutstandingMinor is the principal not yet covered by repayments.
func (l *Loan) OutstandingMinor() int64 {
	if out := l.PrincipalMinor - l.TotalRepaidMinor; out > 0 {
		return out
	}
	return 0
}

// Transition moves the loan to next, stamping StatusUpdatedAt.
func (l *Loan) Transition(next Status, now time.Time) error {
	if !CanTransition(l.Status, next) {
		return ErrInvalidTransition
	}
	l.Status = next
	l.StatusUpdatedAt = now
	return nil
}
