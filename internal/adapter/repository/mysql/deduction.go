package mysql

import (
	"context"
	"time"

	"credlio-backend/internal/domain/deduction"

	"gorm.io/gorm"
)

type DeductionRepository struct{ db *gorm.DB }

func NewDeductionRepository(db *gorm.DB) *DeductionRepository { return &DeductionRepository{db: db} }

func (r *DeductionRepository) Create(ctx context.Context, d *deduction.ScheduledDeduction) error {
	if d.MaxAttempts == 0 {
		d.MaxAttempts = deduction.DefaultMaxAttempts
	}
	if d.Status == "" {
		d.Status = deduction.StatusScheduled
	}
	return duplicate(r.db.WithContext(ctx).Create(d).Error, deduction.ErrDuplicate)
}

func (r *DeductionRepository) GetByDeductionID(ctx context.Context, deductionID string) (*deduction.ScheduledDeduction, error) {
	var out deduction.ScheduledDeduction
	if err := r.db.WithContext(ctx).Where("deduction_id = ?", deductionID).First(&out).Error; err != nil {
		return nil, notFound(err, deduction.ErrNotFound)
	}
	return &out, nil
}

func (r *DeductionRepository) ListByMandateID(ctx context.Context, mandateID string) ([]deduction.ScheduledDeduction, error) {
	var out []deduction.ScheduledDeduction
	err := r.db.WithContext(ctx).
		Where("mandate_id = ?", mandateID).
		Order("scheduled_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *DeductionRepository) ListDue(ctx context.Context, today, now time.Time, limit int) ([]deduction.ScheduledDeduction, error) {
	var out []deduction.ScheduledDeduction
	q := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_date <= ?", deduction.StatusScheduled, today).
		Where("(next_retry_at IS NULL OR next_retry_at <= ?)", now).
		Order("scheduled_date ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}

func (r *DeductionRepository) ListStuckProcessing(ctx context.Context, startedBefore time.Time, limit int) ([]deduction.ScheduledDeduction, error) {
	var out []deduction.ScheduledDeduction
	q := r.db.WithContext(ctx).
		Where("status = ? AND processing_started_at < ?", deduction.StatusProcessing, startedBefore).
		Order("processing_started_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}

func (r *DeductionRepository) Transition(ctx context.Context, deductionID string, from deduction.Status, u deduction.Update) error {
	set := map[string]any{"status": u.To}
	if u.IncrementAttempt {
		set["attempt_count"] = gorm.Expr("attempt_count + 1")
	}
	if u.NextRetryAt != nil {
		set["next_retry_at"] = *u.NextRetryAt
	} else if u.ClearNextRetry {
		set["next_retry_at"] = nil
	}
	if u.FailureReason != "" {
		set["failure_reason"] = u.FailureReason
	}
	if u.GatewayTransactionID != "" {
		set["gateway_transaction_id"] = u.GatewayTransactionID
	}
	if u.ProcessingStartedAt != nil {
		set["processing_started_at"] = *u.ProcessingStartedAt
	}
	if u.CompletedAt != nil {
		set["completed_at"] = *u.CompletedAt
	}
	if u.ChargeKey != "" {
		set["charge_key"] = u.ChargeKey
	} else if u.ClearChargeKey {
		set["charge_key"] = ""
	}

	res := r.db.WithContext(ctx).
		Model(&deduction.ScheduledDeduction{}).
		Where("deduction_id = ? AND status = ?", deductionID, from).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return deduction.ErrStaleState
	}
	return nil
}

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *deduction.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) GetByGatewayTransactionID(ctx context.Context, gatewayTxID string) (*deduction.Transaction, error) {
	var out deduction.Transaction
	err := r.db.WithContext(ctx).
		Where("gateway_transaction_id = ?", gatewayTxID).
		Order("id DESC").
		First(&out).Error
	if err != nil {
		return nil, notFound(err, deduction.ErrTxNotFound)
	}
	return &out, nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, transactionID string, status deduction.TxStatus, reason string) error {
	set := map[string]any{"status": status}
	if reason != "" {
		set["failure_reason"] = reason
	}
	res := r.db.WithContext(ctx).
		Model(&deduction.Transaction{}).
		Where("transaction_id = ?", transactionID).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return deduction.ErrTxNotFound
	}
	return nil
}
