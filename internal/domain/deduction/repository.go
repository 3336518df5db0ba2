package deduction

import (
	"context"
	"time"
)

type Repository interface {
	// Create fails with ErrDuplicate when the mandate already has a row for the date.
	Create(ctx context.Context, d *ScheduledDeduction) error
	GetByDeductionID(ctx context.Context, deductionID string) (*ScheduledDeduction, error)
	ListByMandateID(ctx context.Context, mandateID string) ([]ScheduledDeduction, error)
	// ListDue returns scheduled rows dated on or before today whose retry time,
	// if any, has passed, ordered by scheduled_date ascending.
	ListDue(ctx context.Context, today, now time.Time, limit int) ([]ScheduledDeduction, error)
	ListStuckProcessing(ctx context.Context, startedBefore time.Time, limit int) ([]ScheduledDeduction, error)
	// Transition applies u only if the row is still in status from.
	Transition(ctx context.Context, deductionID string, from Status, u Update) error
}

type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByGatewayTransactionID(ctx context.Context, gatewayTxID string) (*Transaction, error)
	UpdateStatus(ctx context.Context, transactionID string, status TxStatus, reason string) error
}
