package repayment

import "context"

type Repository interface {
	Create(ctx context.Context, e *Event) error
	ListByLoanIDs(ctx context.Context, loanIDs []string) ([]Event, error)
}
