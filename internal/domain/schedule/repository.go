package schedule

import (
	"context"
	"time"
)

type Repository interface {
	// ReplaceForLoan swaps the whole installment set for a loan.
	ReplaceForLoan(ctx context.Context, loanID string, entries []Entry) error
	ListByLoanID(ctx context.Context, loanID string) ([]Entry, error)
	ListByLoanIDs(ctx context.Context, loanIDs []string) ([]Entry, error)
	GetByScheduleID(ctx context.Context, scheduleID string) (*Entry, error)
	FirstUnpaid(ctx context.Context, loanID string) (*Entry, error)
	PatchFirstDueDate(ctx context.Context, loanID string, due time.Time) error
	MarkPaid(ctx context.Context, scheduleID string, paidAt time.Time) error
}
