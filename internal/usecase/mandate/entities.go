package mandate

import (
	"time"

	"credlio-backend/internal/domain/deduction"
	domain "credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/paymentmethod"
)

type RegisterPaymentMethodInput struct {
	BorrowerID  string
	CardToken   string
	CustomerRef string
	Brand       string
	Last4       string
}

type PaymentMethodDTO struct {
	PaymentMethodID string    `json:"payment_method_id"`
	BorrowerID      string    `json:"borrower_id"`
	Brand           string    `json:"brand,omitempty"`
	Last4           string    `json:"last4,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateMandateInput struct {
	LoanID          string
	PaymentMethodID string
	Frequency       domain.Frequency
	DeductionDay    int
	// AmountMinor defaults to the next unpaid installment when zero.
	AmountMinor int64
	// StartDate defaults to today; the first deduction is the first occurrence on or after it.
	StartDate time.Time
}

type MandateDTO struct {
	MandateID       string        `json:"mandate_id"`
	LoanID          string        `json:"loan_id"`
	BorrowerID      string        `json:"borrower_id"`
	LenderID        string        `json:"lender_id"`
	PaymentMethodID string        `json:"payment_method_id"`
	Frequency       string        `json:"frequency"`
	DeductionDay    int           `json:"deduction_day,omitempty"`
	AmountMinor     int64         `json:"amount_minor"`
	Currency        string        `json:"currency"`
	Status          string        `json:"status"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
	FirstDeduction  *DeductionDTO `json:"first_deduction,omitempty"`
}

type DeductionDTO struct {
	DeductionID          string     `json:"deduction_id"`
	ScheduledDate        string     `json:"scheduled_date"`
	AmountMinor          int64      `json:"amount_minor"`
	Currency             string     `json:"currency"`
	Status               string     `json:"status"`
	AttemptCount         int        `json:"attempt_count"`
	MaxAttempts          int        `json:"max_attempts"`
	NextRetryAt          *time.Time `json:"next_retry_at,omitempty"`
	FailureReason        string     `json:"failure_reason,omitempty"`
	GatewayTransactionID string     `json:"gateway_transaction_id,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

func toMandateDTO(m *domain.Mandate) *MandateDTO {
	return &MandateDTO{
		MandateID:       m.MandateID,
		LoanID:          m.LoanID,
		BorrowerID:      m.BorrowerID,
		LenderID:        m.LenderID,
		PaymentMethodID: m.PaymentMethodID,
		Frequency:       string(m.Frequency),
		DeductionDay:    m.DeductionDay,
		AmountMinor:     m.AmountMinor,
		Currency:        m.Currency,
		Status:          string(m.Status),
		CancelledAt:     m.CancelledAt,
	}
}

func toDeductionDTO(d *deduction.ScheduledDeduction) DeductionDTO {
	return DeductionDTO{
		DeductionID:          d.DeductionID,
		ScheduledDate:        d.ScheduledDate.UTC().Format(time.DateOnly),
		AmountMinor:          d.AmountMinor,
		Currency:             d.Currency,
		Status:               string(d.Status),
		AttemptCount:         d.AttemptCount,
		MaxAttempts:          d.MaxAttempts,
		NextRetryAt:          d.NextRetryAt,
		FailureReason:        d.FailureReason,
		GatewayTransactionID: d.GatewayTransactionID,
		CompletedAt:          d.CompletedAt,
	}
}

func toPaymentMethodDTO(p *paymentmethod.PaymentMethod) *PaymentMethodDTO {
	return &PaymentMethodDTO{
		PaymentMethodID: p.PaymentMethodID,
		BorrowerID:      p.BorrowerID,
		Brand:           p.Brand,
		Last4:           p.Last4,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
	}
}
