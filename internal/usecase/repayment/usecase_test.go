package repayment

import (
	"context"
	"errors"
	"testing"
	"time"

	"credlio-backend/internal/adapter/repository/mysql"
	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/notification"
	domain "credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/engine/amortization"
	"credlio-backend/internal/testutil/notificationmock"
	"credlio-backend/internal/testutil/sqlitedb"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/id"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type refresher struct {
	calls []string
	err   error
}

func (r *refresher) Recompute(_ context.Context, borrowerID string) error {
	r.calls = append(r.calls, borrowerID)
	return r.err
}

var start = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

// seedLoan stores an active loan with a 3-month zero-APR schedule of 334/334/332.
func seedLoan(t *testing.T, db *gorm.DB, loanID string) []schedule.Entry {
	t.Helper()
	require.NoError(t, db.Create(&loan.Loan{
		LoanID: loanID, BorrowerID: "b1", LenderID: "l1",
		PrincipalMinor: 1000, TermMonths: 3, Currency: "USD",
		Status: loan.StatusActive, StartDate: &start,
	}).Error)

	sched, err := amortization.ComputeSchedule(1000, 0, 3, start)
	require.NoError(t, err)
	entries := make([]schedule.Entry, 0, len(sched.Entries))
	for _, e := range sched.Entries {
		entries = append(entries, schedule.Entry{
			ScheduleID: id.NewID32(), PaymentNumber: e.PaymentNumber, DueDate: e.DueDate,
			PrincipalComponent: e.PrincipalComponent, InterestComponent: e.InterestComponent,
		})
	}
	require.NoError(t, mysql.NewScheduleRepository(db).ReplaceForLoan(context.Background(), loanID, entries))
	return entries
}

func newUC(t *testing.T) (*Usecase, *gorm.DB, *refresher, *notificationmock.Recorder) {
	db := sqlitedb.Open(t)
	ref := &refresher{}
	rec := &notificationmock.Recorder{}
	uc := NewUsecase(mysql.NewGormUoW(db), ref, rec, nil)
	uc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return uc, db, ref, rec
}

func TestRecord_PaysOffAndCompletes(t *testing.T) {
	uc, db, ref, rec := newUC(t)
	entries := seedLoan(t, db, "L1")
	ctx := context.Background()

	for i, amt := range []int64{334, 334, 332} {
		dto, err := uc.Record(ctx, RecordInput{LoanID: "L1", AmountMinor: amt, PaidAt: entries[i].DueDate}, "b1", auth.RoleBorrower)
		require.NoError(t, err)
		assert.Equal(t, entries[i].ScheduleID, dto.ScheduleID, "payment %d links installment in order", i+1)
		assert.Equal(t, string(domain.MethodManual), dto.Method)
	}

	var l loan.Loan
	require.NoError(t, db.Where("loan_id = ?", "L1").First(&l).Error)
	assert.Equal(t, loan.StatusCompleted, l.Status)
	assert.Equal(t, int64(1000), l.TotalRepaidMinor)

	stored, err := mysql.NewScheduleRepository(db).ListByLoanID(ctx, "L1")
	require.NoError(t, err)
	for _, e := range stored {
		assert.True(t, e.Paid, "installment %d paid", e.PaymentNumber)
	}

	assert.Equal(t, []string{"b1", "b1", "b1"}, ref.calls)
	assert.Equal(t, []notification.Kind{
		notification.KindRepaymentReceived, notification.KindRepaymentReceived, notification.KindRepaymentReceived,
	}, rec.Kinds("l1"))
}

func TestRecord_PartialPaymentLeavesInstallmentOpen(t *testing.T) {
	uc, db, _, _ := newUC(t)
	entries := seedLoan(t, db, "L1")

	dto, err := uc.Record(context.Background(), RecordInput{LoanID: "L1", AmountMinor: 100}, "b1", auth.RoleBorrower)
	require.NoError(t, err)
	assert.Equal(t, entries[0].ScheduleID, dto.ScheduleID)
	assert.Equal(t, int64(100), dto.TotalRepaidMinor)
	assert.Equal(t, string(loan.StatusActive), dto.LoanStatus)

	first, err := mysql.NewScheduleRepository(db).GetByScheduleID(context.Background(), entries[0].ScheduleID)
	require.NoError(t, err)
	assert.False(t, first.Paid)
}

func TestRecord_ExplicitScheduleID(t *testing.T) {
	uc, db, _, _ := newUC(t)
	entries := seedLoan(t, db, "L1")
	other := seedLoan(t, db, "L2")

	dto, err := uc.Record(context.Background(), RecordInput{LoanID: "L1", AmountMinor: 334, ScheduleID: entries[2].ScheduleID}, "l1", auth.RoleLender)
	require.NoError(t, err)
	assert.Equal(t, entries[2].ScheduleID, dto.ScheduleID)

	_, err = uc.Record(context.Background(), RecordInput{LoanID: "L1", AmountMinor: 10, ScheduleID: other[0].ScheduleID}, "b1", auth.RoleBorrower)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Record(context.Background(), RecordInput{LoanID: "L1", AmountMinor: 10, ScheduleID: "missing"}, "b1", auth.RoleBorrower)
	require.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestRecord_Rejections(t *testing.T) {
	uc, db, ref, _ := newUC(t)
	seedLoan(t, db, "L1")
	require.NoError(t, db.Create(&loan.Loan{LoanID: "L3", BorrowerID: "b1", PrincipalMinor: 10, TermMonths: 1, Currency: "USD", Status: loan.StatusPending}).Error)

	tests := []struct {
		name    string
		in      RecordInput
		actor   string
		role    auth.Role
		wantErr error
	}{
		{"zero amount", RecordInput{LoanID: "L1"}, "b1", auth.RoleBorrower, domain.ErrInvalidInput},
		{"bad method", RecordInput{LoanID: "L1", AmountMinor: 1, Method: "cash"}, "b1", auth.RoleBorrower, domain.ErrInvalidInput},
		{"stranger", RecordInput{LoanID: "L1", AmountMinor: 1}, "x", auth.RoleBorrower, loan.ErrForbidden},
		{"missing loan", RecordInput{LoanID: "nope", AmountMinor: 1}, "b1", auth.RoleAdmin, loan.ErrNotFound},
		{"not active", RecordInput{LoanID: "L3", AmountMinor: 1}, "b1", auth.RoleBorrower, loan.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Record(context.Background(), tt.in, tt.actor, tt.role)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, ref.calls)

	var n int64
	require.NoError(t, db.Model(&domain.Event{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRecord_ScoreFailureIsWarning(t *testing.T) {
	uc, db, ref, _ := newUC(t)
	seedLoan(t, db, "L1")
	ref.err = errors.New("score store down")

	dto, err := uc.Record(context.Background(), RecordInput{LoanID: "L1", AmountMinor: 50}, "b1", auth.RoleBorrower)
	require.NoError(t, err)
	assert.Len(t, dto.Warnings, 1)
}
