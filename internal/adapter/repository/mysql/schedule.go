package mysql

import (
	"context"
	"time"

	"credlio-backend/internal/domain/schedule"

	"gorm.io/gorm"
)

type ScheduleRepository struct{ db *gorm.DB }

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

// ReplaceForLoan deletes and re-inserts in one transaction; callers already
// inside a unit of work get a nested savepoint.
func (r *ScheduleRepository) ReplaceForLoan(ctx context.Context, loanID string, entries []schedule.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", loanID).Delete(&schedule.Entry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].LoanID = loanID
		}
		return tx.Create(&entries).Error
	})
}

func (r *ScheduleRepository) ListByLoanID(ctx context.Context, loanID string) ([]schedule.Entry, error) {
	var out []schedule.Entry
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("payment_number ASC").
		Find(&out).Error
	return out, err
}

func (r *ScheduleRepository) ListByLoanIDs(ctx context.Context, loanIDs []string) ([]schedule.Entry, error) {
	var out []schedule.Entry
	if len(loanIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("loan_id IN ?", loanIDs).
		Order("loan_id ASC, payment_number ASC").
		Find(&out).Error
	return out, err
}

func (r *ScheduleRepository) GetByScheduleID(ctx context.Context, scheduleID string) (*schedule.Entry, error) {
	var out schedule.Entry
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).First(&out).Error; err != nil {
		return nil, notFound(err, schedule.ErrNotFound)
	}
	return &out, nil
}

func (r *ScheduleRepository) FirstUnpaid(ctx context.Context, loanID string) (*schedule.Entry, error) {
	var out schedule.Entry
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND paid = ?", loanID, false).
		Order("payment_number ASC").
		First(&out).Error
	if err != nil {
		return nil, notFound(err, schedule.ErrNotFound)
	}
	return &out, nil
}

func (r *ScheduleRepository) PatchFirstDueDate(ctx context.Context, loanID string, due time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&schedule.Entry{}).
		Where("loan_id = ? AND payment_number = ?", loanID, 1).
		Update("due_date", due)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepository) MarkPaid(ctx context.Context, scheduleID string, paidAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&schedule.Entry{}).
		Where("schedule_id = ?", scheduleID).
		Updates(map[string]any{"paid": true, "paid_at": paidAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return schedule.ErrNotFound
	}
	return nil
}
