package score

import (
	"context"
	"errors"
	"testing"
	"time"

	"credlio-backend/internal/domain/borrower"
	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	domain "credlio-backend/internal/domain/score"
	"credlio-backend/internal/testutil/borrowermock"
	"credlio-backend/internal/testutil/loanmock"
	"credlio-backend/internal/testutil/repaymentmock"
	"credlio-backend/internal/testutil/schedulemock"
	"credlio-backend/internal/testutil/scoremock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newUC(scores *scoremock.Repo, borrowers *borrowermock.Repo, loans *loanmock.Repo, schedules *schedulemock.Repo, reps *repaymentmock.Repo) *Usecase {
	if borrowers == nil {
		borrowers = &borrowermock.Repo{}
	}
	if loans == nil {
		loans = &loanmock.Repo{}
	}
	if schedules == nil {
		schedules = &schedulemock.Repo{}
	}
	if reps == nil {
		reps = &repaymentmock.Repo{}
	}
	uc := NewUsecase(scores, borrowers, loans, schedules, reps, nil)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func TestSeed(t *testing.T) {
	var inserted *domain.BorrowerScore
	uc := newUC(&scoremock.Repo{
		InsertFn: func(_ context.Context, s *domain.BorrowerScore) error {
			inserted = s
			return nil
		},
	}, nil, nil, nil, nil)

	require.NoError(t, uc.Seed(context.Background(), "b-1"))
	require.NotNil(t, inserted)
	assert.Equal(t, domain.OnboardingScore, inserted.Score)
	assert.Equal(t, domain.DefaultFactors, inserted.Factors)
	assert.Equal(t, int64(1), inserted.Version)
}

func TestSeed_ExistingRowIsNoop(t *testing.T) {
	uc := newUC(&scoremock.Repo{
		InsertFn: func(context.Context, *domain.BorrowerScore) error { return domain.ErrAlreadySeeded },
	}, nil, nil, nil, nil)
	require.NoError(t, uc.Seed(context.Background(), "b-1"))
}

func TestRefresh_InsertsWhenMissing(t *testing.T) {
	var inserted *domain.BorrowerScore
	uc := newUC(&scoremock.Repo{
		InsertFn: func(_ context.Context, s *domain.BorrowerScore) error {
			inserted = s
			return nil
		},
	}, nil, nil, nil, nil)

	dto, err := uc.Refresh(context.Background(), "b-1")
	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, 850, dto.Score)
	assert.Equal(t, int64(1), dto.Version)
	assert.Equal(t, domain.DefaultFactors, inserted.Factors)
	assert.True(t, inserted.ComputedAt.Equal(fixedNow))
}

func TestRefresh_RetriesOnceOnVersionConflict(t *testing.T) {
	version := int64(3)
	var expectations []int64
	uc := newUC(&scoremock.Repo{
		GetByBorrowerIDFn: func(context.Context, string) (*domain.BorrowerScore, error) {
			return &domain.BorrowerScore{BorrowerID: "b-1", Score: 600, Version: version}, nil
		},
		UpdateVersionedFn: func(_ context.Context, s *domain.BorrowerScore, expected int64) error {
			expectations = append(expectations, expected)
			if len(expectations) == 1 {
				version++ // a concurrent writer won
				return domain.ErrVersionConflict
			}
			s.Version = expected + 1
			return nil
		},
	}, nil, nil, nil, nil)

	dto, err := uc.Refresh(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, expectations)
	assert.Equal(t, int64(5), dto.Version)
}

func TestRefresh_GivesUpAfterSecondConflict(t *testing.T) {
	calls := 0
	uc := newUC(&scoremock.Repo{
		GetByBorrowerIDFn: func(context.Context, string) (*domain.BorrowerScore, error) {
			return &domain.BorrowerScore{BorrowerID: "b-1", Version: 1}, nil
		},
		UpdateVersionedFn: func(context.Context, *domain.BorrowerScore, int64) error {
			calls++
			return domain.ErrVersionConflict
		},
	}, nil, nil, nil, nil)

	_, err := uc.Refresh(context.Background(), "b-1")
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, upsertAttempts, calls)
}

func TestRefresh_PropagatesLoadErrors(t *testing.T) {
	boom := errors.New("db down")
	uc := newUC(&scoremock.Repo{}, &borrowermock.Repo{
		GetByBorrowerIDFn: func(context.Context, string) (*borrower.Borrower, error) { return nil, boom },
	}, nil, nil, nil)
	_, err := uc.Refresh(context.Background(), "b-1")
	require.ErrorIs(t, err, boom)
}

func TestHistory_AttachesInstallmentsAndEvents(t *testing.T) {
	sid := "s-1"
	due := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	uc := newUC(&scoremock.Repo{}, nil,
		&loanmock.Repo{
			ListByBorrowerIDFn: func(context.Context, string) ([]loan.Loan, error) {
				return []loan.Loan{
					{LoanID: "L1", Status: loan.StatusActive, PrincipalMinor: 50_000, TotalRepaidMinor: 10_000, Purpose: "home"},
					{LoanID: "L2", Status: loan.StatusCompleted, PrincipalMinor: 20_000, Purpose: "auto"},
				}, nil
			},
		},
		&schedulemock.Repo{
			ListByLoanIDsFn: func(_ context.Context, ids []string) ([]schedule.Entry, error) {
				assert.ElementsMatch(t, []string{"L1", "L2"}, ids)
				return []schedule.Entry{{ScheduleID: sid, LoanID: "L1", DueDate: due}}, nil
			},
		},
		&repaymentmock.Repo{
			ListByLoanIDsFn: func(context.Context, []string) ([]repayment.Event, error) {
				return []repayment.Event{
					{LoanID: "L1", ScheduleID: &sid, PaidAt: due},
					{LoanID: "L2", PaidAt: due},
					{LoanID: "L9", PaidAt: due},
				}, nil
			},
		},
	)

	got, err := uc.history(context.Background(), "b-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Active)
	assert.Len(t, got[0].Installments, 1)
	require.Len(t, got[0].Repayments, 1)
	assert.Equal(t, sid, got[0].Repayments[0].ScheduleID)
	assert.False(t, got[1].Active)
	require.Len(t, got[1].Repayments, 1)
	assert.Empty(t, got[1].Repayments[0].ScheduleID)
}
