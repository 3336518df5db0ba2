package mandate

import (
	"context"
	"testing"
	"time"

	"credlio-backend/internal/adapter/repository/mysql"
	"credlio-backend/internal/domain/deduction"
	"credlio-backend/internal/domain/loan"
	domain "credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/paymentmethod"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/testutil/sqlitedb"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/id"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var today = time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Usecase, *gorm.DB) {
	t.Helper()
	db := sqlitedb.Open(t)
	uc := NewUsecase(
		mysql.NewMandateRepository(db),
		mysql.NewPaymentMethodRepository(db),
		mysql.NewDeductionRepository(db),
		mysql.NewGormUoW(db),
		nil,
	)
	uc.now = func() time.Time { return today }

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&loan.Loan{
		LoanID: "L1", BorrowerID: "b1", LenderID: "l1", PrincipalMinor: 1000,
		TermMonths: 3, Currency: "USD", Status: loan.StatusActive, StartDate: &start,
	}).Error)
	require.NoError(t, db.Create(&loan.Loan{
		LoanID: "L2", BorrowerID: "b1", PrincipalMinor: 1000,
		TermMonths: 3, Currency: "USD", Status: loan.StatusRequested,
	}).Error)
	require.NoError(t, db.Create(&schedule.Entry{
		ScheduleID: id.NewID32(), LoanID: "L1", PaymentNumber: 1,
		DueDate: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), PrincipalComponent: 334,
	}).Error)
	return uc, db
}

func registerCard(t *testing.T, uc *Usecase, borrowerID string) string {
	t.Helper()
	pm, err := uc.RegisterPaymentMethod(context.Background(), RegisterPaymentMethodInput{
		BorrowerID: borrowerID, CardToken: "ccof:" + borrowerID, Brand: "VISA", Last4: "4242",
	})
	require.NoError(t, err)
	return pm.PaymentMethodID
}

func TestCreate_MonthlySchedulesFirstDeduction(t *testing.T) {
	uc, db := setup(t)
	pmID := registerCard(t, uc, "b1")

	dto, err := uc.Create(context.Background(), CreateMandateInput{
		LoanID: "L1", PaymentMethodID: pmID, Frequency: domain.FrequencyMonthly, DeductionDay: 15,
	}, "b1", auth.RoleBorrower)
	require.NoError(t, err)

	assert.Equal(t, "l1", dto.LenderID)
	assert.Equal(t, int64(334), dto.AmountMinor, "defaults to next installment")
	assert.Equal(t, "USD", dto.Currency)
	require.NotNil(t, dto.FirstDeduction)
	assert.Equal(t, "2024-02-15", dto.FirstDeduction.ScheduledDate)
	assert.Equal(t, string(deduction.StatusScheduled), dto.FirstDeduction.Status)
	assert.Equal(t, deduction.DefaultMaxAttempts, dto.FirstDeduction.MaxAttempts)

	var n int64
	require.NoError(t, db.Model(&deduction.ScheduledDeduction{}).Where("mandate_id = ?", dto.MandateID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCreate_WeeklyStartsToday(t *testing.T) {
	uc, _ := setup(t)
	pmID := registerCard(t, uc, "b1")

	dto, err := uc.Create(context.Background(), CreateMandateInput{
		LoanID: "L1", PaymentMethodID: pmID, Frequency: domain.FrequencyWeekly, AmountMinor: 100,
	}, "b1", auth.RoleBorrower)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", dto.FirstDeduction.ScheduledDate)
	assert.Equal(t, int64(100), dto.AmountMinor)
}

func TestCreate_DefaultAmountFollowsFrequency(t *testing.T) {
	for _, tt := range []struct {
		freq domain.Frequency
		want int64
	}{
		{domain.FrequencyWeekly, 78},
		{domain.FrequencyBiweekly, 155},
	} {
		t.Run(string(tt.freq), func(t *testing.T) {
			uc, _ := setup(t)
			pmID := registerCard(t, uc, "b1")

			dto, err := uc.Create(context.Background(), CreateMandateInput{
				LoanID: "L1", PaymentMethodID: pmID, Frequency: tt.freq,
			}, "b1", auth.RoleBorrower)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dto.AmountMinor, "334 a month spread over %s periods", tt.freq)
			require.NotNil(t, dto.FirstDeduction)
			assert.Equal(t, tt.want, dto.FirstDeduction.AmountMinor)
		})
	}
}

func TestCreate_Rejections(t *testing.T) {
	uc, db := setup(t)
	own := registerCard(t, uc, "b1")
	foreign := registerCard(t, uc, "b2")

	disabled := &paymentmethod.PaymentMethod{PaymentMethodID: id.NewID32(), BorrowerID: "b1", CardToken: "x", Status: paymentmethod.StatusDisabled}
	require.NoError(t, db.Create(disabled).Error)

	tests := []struct {
		name    string
		in      CreateMandateInput
		actor   string
		wantErr error
	}{
		{"foreign card", CreateMandateInput{LoanID: "L1", PaymentMethodID: foreign, Frequency: domain.FrequencyWeekly, AmountMinor: 1}, "b1", domain.ErrInvalidInput},
		{"disabled card", CreateMandateInput{LoanID: "L1", PaymentMethodID: disabled.PaymentMethodID, Frequency: domain.FrequencyWeekly, AmountMinor: 1}, "b1", paymentmethod.ErrNotUsable},
		{"unknown card", CreateMandateInput{LoanID: "L1", PaymentMethodID: "nope", Frequency: domain.FrequencyWeekly, AmountMinor: 1}, "b1", paymentmethod.ErrNotFound},
		{"loan not active", CreateMandateInput{LoanID: "L2", PaymentMethodID: own, Frequency: domain.FrequencyWeekly, AmountMinor: 1}, "b1", loan.ErrInvalidTransition},
		{"bad frequency", CreateMandateInput{LoanID: "L1", PaymentMethodID: own, Frequency: "daily", AmountMinor: 1}, "b1", domain.ErrInvalidInput},
		{"monthly without day", CreateMandateInput{LoanID: "L1", PaymentMethodID: own, Frequency: domain.FrequencyMonthly, AmountMinor: 1}, "b1", domain.ErrInvalidInput},
		{"not the borrower", CreateMandateInput{LoanID: "L1", PaymentMethodID: own, Frequency: domain.FrequencyWeekly, AmountMinor: 1}, "l1", domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), tt.in, tt.actor, auth.RoleBorrower)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	var n int64
	require.NoError(t, db.Model(&domain.Mandate{}).Count(&n).Error)
	assert.Zero(t, n, "failed creates must not leave mandates behind")
}

func TestCancelAndListDeductions(t *testing.T) {
	uc, _ := setup(t)
	pmID := registerCard(t, uc, "b1")
	ctx := context.Background()

	m, err := uc.Create(ctx, CreateMandateInput{LoanID: "L1", PaymentMethodID: pmID, Frequency: domain.FrequencyBiweekly, AmountMinor: 50}, "b1", auth.RoleBorrower)
	require.NoError(t, err)

	_, err = uc.Cancel(ctx, m.MandateID, "stranger", auth.RoleBorrower)
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := uc.Cancel(ctx, m.MandateID, "l1", auth.RoleLender)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), got.Status)
	require.NotNil(t, got.CancelledAt)

	again, err := uc.Cancel(ctx, m.MandateID, "b1", auth.RoleBorrower)
	require.NoError(t, err, "cancel is idempotent")
	assert.Equal(t, string(domain.StatusCancelled), again.Status)

	rows, err := uc.ListDeductions(ctx, m.MandateID, "b1", auth.RoleBorrower)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(deduction.StatusScheduled), rows[0].Status, "deductions are cancelled lazily by the driver")
}

func TestRegisterPaymentMethod_Validation(t *testing.T) {
	uc, _ := setup(t)
	_, err := uc.RegisterPaymentMethod(context.Background(), RegisterPaymentMethodInput{BorrowerID: "b1"})
	require.ErrorIs(t, err, paymentmethod.ErrInvalidInput)
	_, err = uc.RegisterPaymentMethod(context.Background(), RegisterPaymentMethodInput{BorrowerID: "b1", CardToken: "t", Last4: "12"})
	require.ErrorIs(t, err, paymentmethod.ErrInvalidInput)
}
