package loan

import (
	"time"

	domain "credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/pkg/auth"
)

// Actor is the authenticated caller a lifecycle action is performed for.
type Actor struct {
	UserID string
	Role   auth.Role
}

func (a Actor) IsAdmin() bool { return a.Role == auth.RoleAdmin }

type CreateLoanInput struct {
	BorrowerID     string
	PrincipalMinor int64
	AprBps         int
	TermMonths     int
	Currency       string
	Purpose        string
}

type LoanDTO struct {
	LoanID           string     `json:"loan_id"`
	BorrowerID       string     `json:"borrower_id"`
	LenderID         string     `json:"lender_id,omitempty"`
	PrincipalMinor   int64      `json:"principal_minor"`
	AprBps           int        `json:"apr_bps"`
	TermMonths       int        `json:"term_months"`
	Currency         string     `json:"currency"`
	Purpose          string     `json:"purpose,omitempty"`
	Status           string     `json:"status"`
	TotalRepaidMinor int64      `json:"total_repaid_minor"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	ActivatedAt      *time.Time `json:"activated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ActivationDTO carries the activated loan and any best-effort follow-ups
// that did not complete.
type ActivationDTO struct {
	Loan     LoanDTO  `json:"loan"`
	Warnings []string `json:"warnings,omitempty"`
}

type ScheduleEntryDTO struct {
	ScheduleID         string     `json:"schedule_id"`
	PaymentNumber      int        `json:"payment_number"`
	DueDate            string     `json:"due_date"`
	PrincipalComponent int64      `json:"principal_component"`
	InterestComponent  int64      `json:"interest_component"`
	AmountDue          int64      `json:"amount_due"`
	Paid               bool       `json:"paid"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
}

func toDTO(l *domain.Loan) LoanDTO {
	return LoanDTO{
		LoanID:           l.LoanID,
		BorrowerID:       l.BorrowerID,
		LenderID:         l.LenderID,
		PrincipalMinor:   l.PrincipalMinor,
		AprBps:           l.AprBps,
		TermMonths:       l.TermMonths,
		Currency:         l.Currency,
		Purpose:          l.Purpose,
		Status:           string(l.Status),
		TotalRepaidMinor: l.TotalRepaidMinor,
		StartDate:        l.StartDate,
		ActivatedAt:      l.ActivatedAt,
		CreatedAt:        l.CreatedAt,
	}
}

func toEntryDTO(e *schedule.Entry) ScheduleEntryDTO {
	return ScheduleEntryDTO{
		ScheduleID:         e.ScheduleID,
		PaymentNumber:      e.PaymentNumber,
		DueDate:            e.DueDate.UTC().Format(time.DateOnly),
		PrincipalComponent: e.PrincipalComponent,
		InterestComponent:  e.InterestComponent,
		AmountDue:          e.AmountDue(),
		Paid:               e.Paid,
		PaidAt:             e.PaidAt,
	}
}
