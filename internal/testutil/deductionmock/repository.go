package deductionmock

import (
	"context"
	"errors"
	"time"

	domain "credlio-backend/internal/domain/deduction"
)

var (
	_ domain.Repository            = (*Repo)(nil)
	_ domain.TransactionRepository = (*TxRepo)(nil)
)

var errUnimplemented = errors.New("deductionmock: method not implemented")

type Repo struct {
	CreateFn              func(ctx context.Context, d *domain.ScheduledDeduction) error
	GetByDeductionIDFn    func(ctx context.Context, deductionID string) (*domain.ScheduledDeduction, error)
	ListByMandateIDFn     func(ctx context.Context, mandateID string) ([]domain.ScheduledDeduction, error)
	ListDueFn             func(ctx context.Context, today, now time.Time, limit int) ([]domain.ScheduledDeduction, error)
	ListStuckProcessingFn func(ctx context.Context, startedBefore time.Time, limit int) ([]domain.ScheduledDeduction, error)
	TransitionFn          func(ctx context.Context, deductionID string, from domain.Status, u domain.Update) error
}

func (m *Repo) Create(ctx context.Context, d *domain.ScheduledDeduction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByDeductionID(ctx context.Context, deductionID string) (*domain.ScheduledDeduction, error) {
	if m.GetByDeductionIDFn != nil {
		return m.GetByDeductionIDFn(ctx, deductionID)
	}
	return nil, errUnimplemented
}

func (m *Repo) ListByMandateID(ctx context.Context, mandateID string) ([]domain.ScheduledDeduction, error) {
	if m.ListByMandateIDFn != nil {
		return m.ListByMandateIDFn(ctx, mandateID)
	}
	return nil, nil
}

func (m *Repo) ListDue(ctx context.Context, today, now time.Time, limit int) ([]domain.ScheduledDeduction, error) {
	if m.ListDueFn != nil {
		return m.ListDueFn(ctx, today, now, limit)
	}
	return nil, nil
}

func (m *Repo) ListStuckProcessing(ctx context.Context, startedBefore time.Time, limit int) ([]domain.ScheduledDeduction, error) {
	if m.ListStuckProcessingFn != nil {
		return m.ListStuckProcessingFn(ctx, startedBefore, limit)
	}
	return nil, nil
}

func (m *Repo) Transition(ctx context.Context, deductionID string, from domain.Status, u domain.Update) error {
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, deductionID, from, u)
	}
	return nil
}

type TxRepo struct {
	CreateFn                    func(ctx context.Context, t *domain.Transaction) error
	GetByGatewayTransactionIDFn func(ctx context.Context, gatewayTxID string) (*domain.Transaction, error)
	UpdateStatusFn              func(ctx context.Context, transactionID string, status domain.TxStatus, reason string) error
}

func (m *TxRepo) Create(ctx context.Context, t *domain.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, t)
	}
	return nil
}

func (m *TxRepo) GetByGatewayTransactionID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error) {
	if m.GetByGatewayTransactionIDFn != nil {
		return m.GetByGatewayTransactionIDFn(ctx, gatewayTxID)
	}
	return nil, domain.ErrTxNotFound
}

func (m *TxRepo) UpdateStatus(ctx context.Context, transactionID string, status domain.TxStatus, reason string) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, transactionID, status, reason)
	}
	return nil
}
