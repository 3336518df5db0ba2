package mandate

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var (
	ErrNotFound     = errors.New("mandate not found")
	ErrInvalidInput = errors.New("invalid mandate input")
	ErrNotActive    = errors.New("mandate is not active")
	ErrForbidden    = errors.New("actor may not act on this mandate")
)

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// PerPeriod spreads a monthly installment over one period of f, rounded up
// so a year of deductions never collects less than twelve installments.
func (f Frequency) PerPeriod(monthly int64) int64 {
	periods := int64(12)
	switch f {
	case FrequencyWeekly:
		periods = 52
	case FrequencyBiweekly:
		periods = 26
	}
	return (monthly*12 + periods - 1) / periods
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// Mandate is a standing authorization for recurring card deductions on a loan.
type Mandate struct {
	ID              uint64     `gorm:"primaryKey;column:id" json:"-"`
	MandateID       string     `gorm:"size:32;uniqueIndex:ux_mandates_mandate_id" json:"mandate_id"`
	LoanID          string     `gorm:"size:32;index:idx_mandates_loan" json:"loan_id"`
	BorrowerID      string     `gorm:"size:64;index:idx_mandates_borrower" json:"borrower_id"`
	LenderID        string     `gorm:"size:64" json:"lender_id"`
	PaymentMethodID string     `gorm:"size:32" json:"payment_method_id"`
	Frequency       Frequency  `gorm:"size:16;not null" json:"frequency"`
	DeductionDay    int        `json:"deduction_day,omitempty"`
	AmountMinor     int64      `gorm:"not null" json:"amount_minor"`
	Currency        string     `gorm:"size:3;not null" json:"currency"`
	Status          Status     `gorm:"size:16;not null;default:active" json:"status"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Mandate) TableName() string { return "payment_mandates" }

func (m *Mandate) IsActive() bool { return m != nil && m.Status == StatusActive }

func (m *Mandate) Validate() error {
	if !m.Frequency.IsValid() {
		return fmt.Errorf("%w: frequency %q", ErrInvalidInput, m.Frequency)
	}
	if m.Frequency == FrequencyMonthly && (m.DeductionDay < 1 || m.DeductionDay > 31) {
		return fmt.Errorf("%w: deduction_day must be between 1 and 31", ErrInvalidInput)
	}
	if m.AmountMinor <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if len(m.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidInput)
	}
	return nil
}

// FirstOccurrence is the first deduction date on or after from.
func (m *Mandate) FirstOccurrence(from time.Time) (time.Time, error) {
	start := dateOnly(from)
	if m.Frequency != FrequencyMonthly {
		return start, nil
	}
	return m.monthlyOnOrAfter(start)
}

// NextOccurrence is the occurrence that follows current.
// weekly +7d, biweekly +14d, monthly the deduction day of the next calendar month.
func (m *Mandate) NextOccurrence(current time.Time) (time.Time, error) {
	cur := dateOnly(current)
	switch m.Frequency {
	case FrequencyWeekly, FrequencyBiweekly:
		interval := 1
		if m.Frequency == FrequencyBiweekly {
			interval = 2
		}
		r, err := rrule.NewRRule(rrule.ROption{
			Freq:     rrule.WEEKLY,
			Interval: interval,
			Dtstart:  cur,
			Count:    2,
		})
		if err != nil {
			return time.Time{}, fmt.Errorf("build weekly rule: %w", err)
		}
		next := r.After(cur, false)
		if next.IsZero() {
			return time.Time{}, fmt.Errorf("no occurrence after %s", cur.Format(time.DateOnly))
		}
		return next, nil
	case FrequencyMonthly:
		y, mo, _ := cur.Date()
		return m.monthlyOnOrAfter(time.Date(y, mo+1, 1, 0, 0, 0, 0, time.UTC))
	default:
		return time.Time{}, fmt.Errorf("%w: frequency %q", ErrInvalidInput, m.Frequency)
	}
}

// monthlyOnOrAfter picks deduction_day in the month of from (or later),
// falling back to the month's last day when it is shorter.
func (m *Mandate) monthlyOnOrAfter(from time.Time) (time.Time, error) {
	day := m.DeductionDay
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: deduction_day %d", ErrInvalidInput, day)
	}
	lo := day
	if lo > 28 {
		lo = 28
	}
	days := make([]int, 0, day-lo+1)
	for d := lo; d <= day; d++ {
		days = append(days, d)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:       rrule.MONTHLY,
		Dtstart:    from,
		Bymonthday: days,
		Bysetpos:   []int{-1},
		Count:      1,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("build monthly rule: %w", err)
	}
	occ := r.All()
	if len(occ) == 0 {
		return time.Time{}, fmt.Errorf("no monthly occurrence from %s", from.Format(time.DateOnly))
	}
	return occ[0], nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
