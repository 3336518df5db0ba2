// Package creditscore computes a borrower's credit score from loan and
// repayment history. It is pure: callers load the inputs and persist the result.
package creditscore

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	Baseline = 650
	MinScore = 300
	MaxScore = 850

	DefaultCreditLimitMinor int64 = 100_000

	recentWindow = 90 * 24 * time.Hour
	hoursPerYear = 24 * 365.25
)

// Weights is the fixed category table returned with every score.
type Weights struct {
	PaymentHistory    int `json:"payment_history"`
	CreditUtilization int `json:"credit_utilization"`
	CreditAge         int `json:"credit_age"`
	CreditMix         int `json:"credit_mix"`
	NewInquiries      int `json:"new_inquiries"`
}

var FactorWeights = Weights{
	PaymentHistory:    35,
	CreditUtilization: 30,
	CreditAge:         15,
	CreditMix:         10,
	NewInquiries:      10,
}

var (
	tierTop  = decimal.RequireFromString("8.5")
	tierHigh = decimal.NewFromInt(6)
	tierMid  = decimal.NewFromInt(4)
	tierMix  = decimal.NewFromInt(3)
	tierLow  = decimal.NewFromInt(2)
	tierFive = decimal.NewFromInt(5)
)

type Profile struct {
	AccountCreatedAt time.Time
	CreditLimitMinor int64
}

type Installment struct {
	ScheduleID string
	DueDate    time.Time
}

type Repayment struct {
	ScheduleID string
	PaidAt     time.Time
}

type Loan struct {
	Active           bool
	PrincipalMinor   int64
	TotalRepaidMinor int64
	Purpose          string
	CreatedAt        time.Time
	Installments     []Installment
	Repayments       []Repayment
}

// Contributions are the realized points per factor. They are informational
// and never stored.
type Contributions struct {
	PaymentHistory    decimal.Decimal `json:"payment_history"`
	CreditUtilization decimal.Decimal `json:"credit_utilization"`
	CreditAge         decimal.Decimal `json:"credit_age"`
	CreditMix         decimal.Decimal `json:"credit_mix"`
	NewInquiries      decimal.Decimal `json:"new_inquiries"`
}

func (c Contributions) Sum() decimal.Decimal {
	return c.PaymentHistory.Add(c.CreditUtilization).Add(c.CreditAge).Add(c.CreditMix).Add(c.NewInquiries)
}

type Result struct {
	Score         int
	Factors       Weights
	Contributions Contributions
}

func Compute(p Profile, loans []Loan, now time.Time) Result {
	c := Contributions{
		PaymentHistory:    paymentHistory(loans),
		CreditUtilization: utilization(p, loans),
		CreditAge:         creditAge(p, now),
		CreditMix:         creditMix(loans),
		NewInquiries:      newInquiries(loans, now),
	}
	raw := decimal.NewFromInt(Baseline).Add(c.Sum()).Round(0).IntPart()
	return Result{
		Score:         clamp(int(raw)),
		Factors:       FactorWeights,
		Contributions: c,
	}
}

// OnTimeRate is on-time events over all events. Events without a linked
// installment count as not on time.
func OnTimeRate(loans []Loan) (decimal.Decimal, bool) {
	var total, onTime int64
	for _, l := range loans {
		due := make(map[string]time.Time, len(l.Installments))
		for _, in := range l.Installments {
			due[in.ScheduleID] = in.DueDate
		}
		for _, r := range l.Repayments {
			total++
			if r.ScheduleID == "" {
				continue
			}
			if d, ok := due[r.ScheduleID]; ok && !dateOf(r.PaidAt).After(dateOf(d)) {
				onTime++
			}
		}
	}
	if total == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(onTime).Div(decimal.NewFromInt(total)), true
}

func paymentHistory(loans []Loan) decimal.Decimal {
	rate, ok := OnTimeRate(loans)
	if !ok {
		return decimal.Zero
	}
	return rate.Mul(weight(FactorWeights.PaymentHistory)).Mul(tierTop)
}

func utilization(p Profile, loans []Loan) decimal.Decimal {
	limit := p.CreditLimitMinor
	if limit <= 0 {
		limit = DefaultCreditLimitMinor
	}
	var outstanding int64
	for _, l := range loans {
		if !l.Active {
			continue
		}
		if out := l.PrincipalMinor - l.TotalRepaidMinor; out > 0 {
			outstanding += out
		}
	}
	ratio := decimal.NewFromInt(outstanding).Div(decimal.NewFromInt(limit))
	w := weight(FactorWeights.CreditUtilization)
	switch {
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.30")):
		return w.Mul(tierTop)
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.50")):
		return w.Mul(tierHigh)
	case ratio.LessThanOrEqual(decimal.RequireFromString("0.70")):
		return w.Mul(tierMid)
	default:
		return w.Mul(tierLow)
	}
}

func creditAge(p Profile, now time.Time) decimal.Decimal {
	var years float64
	if !p.AccountCreatedAt.IsZero() && now.After(p.AccountCreatedAt) {
		years = now.Sub(p.AccountCreatedAt).Hours() / hoursPerYear
	}
	w := weight(FactorWeights.CreditAge)
	switch {
	case years >= 5:
		return w.Mul(tierTop)
	case years >= 3:
		return w.Mul(tierHigh)
	case years >= 1:
		return w.Mul(tierMid)
	default:
		return w.Mul(tierLow)
	}
}

func creditMix(loans []Loan) decimal.Decimal {
	purposes := map[string]struct{}{}
	for _, l := range loans {
		if l.Purpose != "" {
			purposes[l.Purpose] = struct{}{}
		}
	}
	w := weight(FactorWeights.CreditMix)
	switch n := len(purposes); {
	case n >= 3:
		return w.Mul(tierTop)
	case n >= 2:
		return w.Mul(tierHigh)
	default:
		return w.Mul(tierMix)
	}
}

func newInquiries(loans []Loan, now time.Time) decimal.Decimal {
	cutoff := now.Add(-recentWindow)
	recent := 0
	for _, l := range loans {
		if l.CreatedAt.After(cutoff) {
			recent++
		}
	}
	w := weight(FactorWeights.NewInquiries)
	switch {
	case recent > 3:
		return w.Mul(tierLow)
	case recent > 1:
		return w.Mul(tierFive)
	default:
		return w.Mul(tierTop)
	}
}

func weight(w int) decimal.Decimal { return decimal.NewFromInt(int64(w)) }

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
