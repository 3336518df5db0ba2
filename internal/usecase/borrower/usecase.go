package borrower

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "credlio-backend/internal/domain/borrower"
	"credlio-backend/internal/domain/notification"
	"credlio-backend/pkg/logger"
)

var ErrInvalidInput = errors.New("invalid borrower input")

// ScoreSeeder writes the onboarding score for a new borrower.
type ScoreSeeder interface {
	Seed(ctx context.Context, borrowerID string) error
}

type Usecase struct {
	repo     domain.Repository
	seeder   ScoreSeeder
	notifier notification.Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewUsecase(r domain.Repository, seeder ScoreSeeder, notifier notification.Notifier, log *logger.Logger) *Usecase {
	if log == nil {
		log = logger.Nop()
	}
	return &Usecase{
		repo:     r,
		seeder:   seeder,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Onboard creates the borrower profile and seeds the initial score. A failed
// seed is reported as a warning; the profile stays.
func (u *Usecase) Onboard(ctx context.Context, in OnboardInput) (*BorrowerDTO, error) {
	if strings.TrimSpace(in.BorrowerID) == "" || in.CreditLimitMinor < 0 {
		return nil, ErrInvalidInput
	}
	created := in.AccountCreatedAt
	if created.IsZero() {
		created = u.now()
	}
	limit := in.CreditLimitMinor
	if limit == 0 {
		limit = domain.DefaultCreditLimitMinor
	}

	b := &domain.Borrower{
		BorrowerID:       in.BorrowerID,
		CreditLimitMinor: limit,
		KYCStatus:        domain.KYCPending,
		AccountCreatedAt: created.UTC(),
	}
	if err := u.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	dto := toDTO(b)
	if u.seeder != nil {
		if err := u.seeder.Seed(ctx, b.BorrowerID); err != nil {
			u.log.Error(u.log.WithField(ctx, "borrower_id", b.BorrowerID), "seed onboarding score", err)
			dto.Warnings = append(dto.Warnings, "initial credit score not recorded")
		}
	}
	return dto, nil
}

// VerifyKYC settles a pending KYC review.
func (u *Usecase) VerifyKYC(ctx context.Context, borrowerID string, approved bool) (*BorrowerDTO, error) {
	b, err := u.repo.GetByBorrowerID(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	if b.KYCStatus != domain.KYCPending {
		return nil, fmt.Errorf("%w: kyc already %s", domain.ErrInvalidTransition, b.KYCStatus)
	}
	b.KYCStatus = domain.KYCRejected
	if approved {
		b.KYCStatus = domain.KYCVerified
	}
	if err := u.repo.Save(ctx, b); err != nil {
		return nil, err
	}

	if u.notifier != nil {
		body := fmt.Sprintf("Your identity verification is %s.", b.KYCStatus)
		if err := u.notifier.Notify(ctx, b.BorrowerID, notification.KindKYC, "Verification update", body); err != nil {
			u.log.Warn(u.log.WithField(ctx, "borrower_id", b.BorrowerID), "kyc notification failed: "+err.Error())
		}
	}
	return toDTO(b), nil
}

func (u *Usecase) Get(ctx context.Context, borrowerID string) (*BorrowerDTO, error) {
	b, err := u.repo.GetByBorrowerID(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return toDTO(b), nil
}

func toDTO(b *domain.Borrower) *BorrowerDTO {
	return &BorrowerDTO{
		BorrowerID:       b.BorrowerID,
		CreditLimitMinor: b.EffectiveCreditLimit(),
		KYCStatus:        string(b.KYCStatus),
		AccountCreatedAt: b.AccountCreatedAt,
	}
}
