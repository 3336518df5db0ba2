package uow

import (
	"context"

	"credlio-backend/internal/domain/deduction"
	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/domain/score"
)

// Repos are bound to the transaction handed to a unit of work.
type Repos struct {
	Loans        loan.Repository
	Schedules    schedule.Repository
	Repayments   repayment.Repository
	Scores       score.Repository
	Mandates     mandate.Repository
	Deductions   deduction.Repository
	Transactions deduction.TransactionRepository
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row first, then passes it in.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
