package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credlio-backend/internal/domain/borrower"
	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	domain "credlio-backend/internal/domain/score"
	"credlio-backend/internal/engine/creditscore"
	"credlio-backend/pkg/logger"
)

// upsertAttempts bounds the read-compare-write loop on version conflicts.
const upsertAttempts = 2

type Usecase struct {
	scores     domain.Repository
	borrowers  borrower.Repository
	loans      loan.Repository
	schedules  schedule.Repository
	repayments repayment.Repository
	log        *logger.Logger
	now        func() time.Time
}

func NewUsecase(
	scores domain.Repository,
	borrowers borrower.Repository,
	loans loan.Repository,
	schedules schedule.Repository,
	repayments repayment.Repository,
	log *logger.Logger,
) *Usecase {
	if log == nil {
		log = logger.Nop()
	}
	return &Usecase{
		scores:     scores,
		borrowers:  borrowers,
		loans:      loans,
		schedules:  schedules,
		repayments: repayments,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) Get(ctx context.Context, borrowerID string) (*ScoreDTO, error) {
	s, err := u.scores.GetByBorrowerID(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return toDTO(s), nil
}

// Seed writes the onboarding score. An existing row is left untouched.
func (u *Usecase) Seed(ctx context.Context, borrowerID string) error {
	err := u.scores.Insert(ctx, &domain.BorrowerScore{
		BorrowerID: borrowerID,
		Score:      domain.OnboardingScore,
		Factors:    domain.DefaultFactors,
		Version:    1,
		ComputedAt: u.now(),
	})
	if errors.Is(err, domain.ErrAlreadySeeded) {
		return nil
	}
	return err
}

// Refresh recomputes the borrower's score from stored history and upserts it.
func (u *Usecase) Refresh(ctx context.Context, borrowerID string) (*ScoreDTO, error) {
	now := u.now()
	profile, err := u.profile(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	loans, err := u.history(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	res := creditscore.Compute(profile, loans, now)
	ctx = u.log.WithFields(ctx, map[string]any{
		"borrower_id":        borrowerID,
		"score":              res.Score,
		"payment_history":    res.Contributions.PaymentHistory.String(),
		"credit_utilization": res.Contributions.CreditUtilization.String(),
		"credit_age":         res.Contributions.CreditAge.String(),
		"credit_mix":         res.Contributions.CreditMix.String(),
		"new_inquiries":      res.Contributions.NewInquiries.String(),
	})
	u.log.Debug(ctx, "credit score computed")

	row := &domain.BorrowerScore{
		BorrowerID: borrowerID,
		Score:      res.Score,
		Factors:    domain.Factors(res.Factors),
		ComputedAt: now,
	}
	if err := u.upsert(ctx, row); err != nil {
		return nil, err
	}
	return toDTO(row), nil
}

// Recompute is Refresh for callers that only need the side effect.
func (u *Usecase) Recompute(ctx context.Context, borrowerID string) error {
	_, err := u.Refresh(ctx, borrowerID)
	return err
}

func (u *Usecase) upsert(ctx context.Context, row *domain.BorrowerScore) error {
	var err error
	for i := 0; i < upsertAttempts; i++ {
		var existing *domain.BorrowerScore
		existing, err = u.scores.GetByBorrowerID(ctx, row.BorrowerID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			row.Version = 1
			err = u.scores.Insert(ctx, row)
			if errors.Is(err, domain.ErrAlreadySeeded) {
				continue
			}
			return err
		case err != nil:
			return err
		}

		err = u.scores.UpdateVersioned(ctx, row, existing.Version)
		if errors.Is(err, domain.ErrVersionConflict) {
			u.log.Warn(ctx, "score version conflict, retrying")
			continue
		}
		return err
	}
	return fmt.Errorf("upsert score for %s: %w", row.BorrowerID, err)
}

func (u *Usecase) profile(ctx context.Context, borrowerID string) (creditscore.Profile, error) {
	b, err := u.borrowers.GetByBorrowerID(ctx, borrowerID)
	switch {
	case errors.Is(err, borrower.ErrNotFound):
		return creditscore.Profile{CreditLimitMinor: borrower.DefaultCreditLimitMinor}, nil
	case err != nil:
		return creditscore.Profile{}, fmt.Errorf("load borrower: %w", err)
	}
	return creditscore.Profile{
		AccountCreatedAt: b.AccountCreatedAt,
		CreditLimitMinor: b.EffectiveCreditLimit(),
	}, nil
}

func (u *Usecase) history(ctx context.Context, borrowerID string) ([]creditscore.Loan, error) {
	loans, err := u.loans.ListByBorrowerID(ctx, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	if len(loans) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.LoanID)
	}
	entries, err := u.schedules.ListByLoanIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	events, err := u.repayments.ListByLoanIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list repayments: %w", err)
	}

	byLoan := make(map[string]*creditscore.Loan, len(loans))
	out := make([]creditscore.Loan, len(loans))
	for i, l := range loans {
		out[i] = creditscore.Loan{
			Active:           l.IsActive(),
			PrincipalMinor:   l.PrincipalMinor,
			TotalRepaidMinor: l.TotalRepaidMinor,
			Purpose:          l.Purpose,
			CreatedAt:        l.CreatedAt,
		}
		byLoan[l.LoanID] = &out[i]
	}
	for _, e := range entries {
		if cl, ok := byLoan[e.LoanID]; ok {
			cl.Installments = append(cl.Installments, creditscore.Installment{ScheduleID: e.ScheduleID, DueDate: e.DueDate})
		}
	}
	for _, ev := range events {
		cl, ok := byLoan[ev.LoanID]
		if !ok {
			continue
		}
		r := creditscore.Repayment{PaidAt: ev.PaidAt}
		if ev.ScheduleID != nil {
			r.ScheduleID = *ev.ScheduleID
		}
		cl.Repayments = append(cl.Repayments, r)
	}
	return out, nil
}
