// Package amortization builds fixed-payment repayment schedules in integer minor
// units. Rates are carried as basis points and converted with decimal arithmetic,
// never as percentage floats.
package amortization

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid amortization input")

// ratePrecision bounds the scale of intermediate (1+r)^n products.
const ratePrecision = 24

var monthsPerYearBps = decimal.NewFromInt(12 * 10_000)

type Entry struct {
	PaymentNumber      int       `json:"payment_number"`
	DueDate            time.Time `json:"due_date"`
	PrincipalComponent int64     `json:"principal_component"`
	InterestComponent  int64     `json:"interest_component"`
}

type Schedule struct {
	MonthlyPaymentMinor int64   `json:"monthly_payment_minor"`
	Entries             []Entry `json:"entries"`
}

func (s Schedule) TotalInterest() int64 {
	var sum int64
	for _, e := range s.Entries {
		sum += e.InterestComponent
	}
	return sum
}

// TotalDue is the sum of every installment (principal plus interest).
func (s Schedule) TotalDue() int64 {
	var sum int64
	for _, e := range s.Entries {
		sum += e.PrincipalComponent + e.InterestComponent
	}
	return sum
}

// MonthlyRate converts an annual rate in basis points to a monthly fraction.
func MonthlyRate(aprBps int) decimal.Decimal {
	return decimal.NewFromInt(int64(aprBps)).Div(monthsPerYearBps)
}

func Validate(principalMinor int64, aprBps int, termMonths int) error {
	switch {
	case principalMinor <= 0:
		return fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	case termMonths <= 0:
		return fmt.Errorf("%w: term must be at least one month", ErrInvalidInput)
	case aprBps < 0:
		return fmt.Errorf("%w: apr must not be negative", ErrInvalidInput)
	}
	return nil
}

// MonthlyPayment returns the fixed installment for the loan terms.
func MonthlyPayment(principalMinor int64, aprBps int, termMonths int) (int64, error) {
	if err := Validate(principalMinor, aprBps, termMonths); err != nil {
		return 0, err
	}
	r := MonthlyRate(aprBps)
	if r.IsZero() {
		// straight-line split, rounded up so the schedule never under-collects
		n := int64(termMonths)
		return (principalMinor + n - 1) / n, nil
	}
	p := decimal.NewFromInt(principalMinor)
	factor := powRounded(decimal.NewFromInt(1).Add(r), termMonths)
	payment := p.Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))
	rounded := payment.Round(0).IntPart()
	// tiny principals can round below a straight-line share
	if floor := (principalMinor + int64(termMonths) - 1) / int64(termMonths); rounded < floor {
		rounded = floor
	}
	// long high-rate terms can round down onto the first month's interest,
	// which would leave every installment but the last paying no principal
	if interest := p.Mul(r).Round(0).IntPart(); rounded <= interest {
		rounded = interest + 1
	}
	return rounded, nil
}

// ComputeSchedule produces the full installment set. Due dates fall on the same
// day of month as startDate, clamped to month end, starting one month after it.
func ComputeSchedule(principalMinor int64, aprBps int, termMonths int, startDate time.Time) (Schedule, error) {
	payment, err := MonthlyPayment(principalMinor, aprBps, termMonths)
	if err != nil {
		return Schedule{}, err
	}

	r := MonthlyRate(aprBps)
	start := DateOnly(startDate)
	remaining := principalMinor
	entries := make([]Entry, 0, termMonths)

	for k := 1; k <= termMonths; k++ {
		interest := decimal.NewFromInt(remaining).Mul(r).Round(0).IntPart()
		principal := payment - interest
		// hold back one unit for each later installment so none is left empty
		if reserve := remaining - int64(termMonths-k); reserve > 0 && principal > reserve {
			principal = reserve
		}
		if principal > remaining || k == termMonths {
			// last installment absorbs rounding so principal sums exactly
			principal = remaining
		}
		if principal < 0 {
			principal = 0
		}
		remaining -= principal

		entries = append(entries, Entry{
			PaymentNumber:      k,
			DueDate:            AddMonths(start, k),
			PrincipalComponent: principal,
			InterestComponent:  interest,
		})
	}

	return Schedule{MonthlyPaymentMinor: payment, Entries: entries}, nil
}

// FirstDueDate is the first installment date for a loan activated at activatedAt.
func FirstDueDate(activatedAt time.Time) time.Time {
	return AddMonths(DateOnly(activatedAt), 1)
}

// AddMonths moves t by n calendar months keeping the day of month where the
// target month has it, otherwise using the target month's last day.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

func powRounded(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(ratePrecision)
		}
		base = base.Mul(base).Round(ratePrecision)
		n >>= 1
	}
	return result
}
