package mandate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"credlio-backend/internal/domain/deduction"
	"credlio-backend/internal/domain/loan"
	domain "credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/paymentmethod"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/domain/uow"
	"credlio-backend/internal/engine/amortization"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/id"
	"credlio-backend/pkg/logger"
)

type Usecase struct {
	mandates   domain.Repository
	methods    paymentmethod.Repository
	deductions deduction.Repository
	uow        uow.UnitOfWork
	log        *logger.Logger
	now        func() time.Time
}

func NewUsecase(
	mandates domain.Repository,
	methods paymentmethod.Repository,
	deductions deduction.Repository,
	tx uow.UnitOfWork,
	log *logger.Logger,
) *Usecase {
	if log == nil {
		log = logger.Nop()
	}
	return &Usecase{
		mandates:   mandates,
		methods:    methods,
		deductions: deductions,
		uow:        tx,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterPaymentMethod stores a gateway card token for the borrower.
func (u *Usecase) RegisterPaymentMethod(ctx context.Context, in RegisterPaymentMethodInput) (*PaymentMethodDTO, error) {
	if strings.TrimSpace(in.BorrowerID) == "" || strings.TrimSpace(in.CardToken) == "" {
		return nil, fmt.Errorf("%w: borrower and card token are required", paymentmethod.ErrInvalidInput)
	}
	if in.Last4 != "" && len(in.Last4) != 4 {
		return nil, fmt.Errorf("%w: last4 must have 4 digits", paymentmethod.ErrInvalidInput)
	}
	p := &paymentmethod.PaymentMethod{
		PaymentMethodID: id.NewID32(),
		BorrowerID:      in.BorrowerID,
		CardToken:       in.CardToken,
		CustomerRef:     in.CustomerRef,
		Brand:           in.Brand,
		Last4:           in.Last4,
		Status:          paymentmethod.StatusActive,
	}
	if err := u.methods.Create(ctx, p); err != nil {
		return nil, err
	}
	return toPaymentMethodDTO(p), nil
}

// Create sets up recurring deductions on an active loan and schedules the
// first one in the same transaction.
func (u *Usecase) Create(ctx context.Context, in CreateMandateInput, actor string, role auth.Role) (*MandateDTO, error) {
	pm, err := u.methods.GetByPaymentMethodID(ctx, in.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if !pm.Usable() {
		return nil, paymentmethod.ErrNotUsable
	}

	now := u.now()
	from := amortization.DateOnly(now)
	if !in.StartDate.IsZero() && in.StartDate.After(from) {
		from = amortization.DateOnly(in.StartDate)
	}

	var (
		m     *domain.Mandate
		first *deduction.ScheduledDeduction
	)
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if role != auth.RoleAdmin && actor != l.BorrowerID {
			return domain.ErrForbidden
		}
		if !l.IsActive() {
			return fmt.Errorf("%w: loan is %s", loan.ErrInvalidTransition, l.Status)
		}
		if pm.BorrowerID != l.BorrowerID {
			return fmt.Errorf("%w: payment method belongs to another borrower", domain.ErrInvalidInput)
		}

		amount := in.AmountMinor
		if amount == 0 {
			next, err := r.Schedules.FirstUnpaid(ctx, l.LoanID)
			switch {
			case errors.Is(err, schedule.ErrNotFound):
				return fmt.Errorf("%w: amount is required when the loan has no open installment", domain.ErrInvalidInput)
			case err != nil:
				return err
			}
			amount = in.Frequency.PerPeriod(next.AmountDue())
		}

		m = &domain.Mandate{
			MandateID:       id.NewID32(),
			LoanID:          l.LoanID,
			BorrowerID:      l.BorrowerID,
			LenderID:        l.LenderID,
			PaymentMethodID: pm.PaymentMethodID,
			Frequency:       in.Frequency,
			DeductionDay:    in.DeductionDay,
			AmountMinor:     amount,
			Currency:        l.Currency,
			Status:          domain.StatusActive,
		}
		if err := m.Validate(); err != nil {
			return err
		}
		date, err := m.FirstOccurrence(from)
		if err != nil {
			return err
		}
		if err := r.Mandates.Create(ctx, m); err != nil {
			return err
		}

		first = &deduction.ScheduledDeduction{
			DeductionID:     id.NewID32(),
			MandateID:       m.MandateID,
			LoanID:          m.LoanID,
			PaymentMethodID: m.PaymentMethodID,
			ScheduledDate:   date,
			AmountMinor:     m.AmountMinor,
			Currency:        m.Currency,
			Status:          deduction.StatusScheduled,
			MaxAttempts:     deduction.DefaultMaxAttempts,
		}
		return r.Deductions.Create(ctx, first)
	})
	if err != nil {
		return nil, err
	}

	dto := toMandateDTO(m)
	fd := toDeductionDTO(first)
	dto.FirstDeduction = &fd
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, mandateID, actor string, role auth.Role) (*MandateDTO, error) {
	m, err := u.load(ctx, mandateID, actor, role)
	if err != nil {
		return nil, err
	}
	return toMandateDTO(m), nil
}

// Cancel stops the mandate. Open deductions are cancelled when the driver
// next selects them.
func (u *Usecase) Cancel(ctx context.Context, mandateID, actor string, role auth.Role) (*MandateDTO, error) {
	m, err := u.load(ctx, mandateID, actor, role)
	if err != nil {
		return nil, err
	}
	if m.Status == domain.StatusCancelled {
		return toMandateDTO(m), nil
	}
	now := u.now()
	m.Status = domain.StatusCancelled
	m.CancelledAt = &now
	if err := u.mandates.Save(ctx, m); err != nil {
		return nil, err
	}
	u.log.Info(u.log.WithField(ctx, "mandate_id", m.MandateID), "mandate cancelled")
	return toMandateDTO(m), nil
}

func (u *Usecase) ListDeductions(ctx context.Context, mandateID, actor string, role auth.Role) ([]DeductionDTO, error) {
	if _, err := u.load(ctx, mandateID, actor, role); err != nil {
		return nil, err
	}
	rows, err := u.deductions.ListByMandateID(ctx, mandateID)
	if err != nil {
		return nil, err
	}
	out := make([]DeductionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDeductionDTO(&rows[i]))
	}
	return out, nil
}

func (u *Usecase) load(ctx context.Context, mandateID, actor string, role auth.Role) (*domain.Mandate, error) {
	m, err := u.mandates.GetByMandateID(ctx, mandateID)
	if err != nil {
		return nil, err
	}
	if role != auth.RoleAdmin && actor != m.BorrowerID && actor != m.LenderID {
		return nil, domain.ErrForbidden
	}
	return m, nil
}
