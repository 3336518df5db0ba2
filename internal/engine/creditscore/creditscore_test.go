package creditscore

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestCompute_FreshBorrowerClampsToMax(t *testing.T) {
	res := Compute(Profile{AccountCreatedAt: now}, nil, now)

	assert.Equal(t, MaxScore, res.Score)
	assert.Equal(t, FactorWeights, res.Factors)
	assertDec(t, "0", res.Contributions.PaymentHistory)
	assertDec(t, "255", res.Contributions.CreditUtilization)
	assertDec(t, "30", res.Contributions.CreditAge)
	assertDec(t, "30", res.Contributions.CreditMix)
	assertDec(t, "85", res.Contributions.NewInquiries)
}

func TestCompute_LowestReachableScore(t *testing.T) {
	var loans []Loan
	for i := 0; i < 4; i++ {
		loans = append(loans, Loan{Active: true, PrincipalMinor: 30_000, Purpose: "business", CreatedAt: now.AddDate(0, 0, -i)})
	}
	res := Compute(Profile{AccountCreatedAt: now.AddDate(0, -2, 0)}, loans, now)

	assertDec(t, "140", res.Contributions.Sum())
	assert.Equal(t, 790, res.Score)
}

func TestPaymentHistory(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	loan := Loan{
		Installments: []Installment{{ScheduleID: "s1", DueDate: due}, {ScheduleID: "s2", DueDate: due.AddDate(0, 1, 0)}},
		Repayments: []Repayment{
			{ScheduleID: "s1", PaidAt: due.Add(15 * time.Hour)}, // same day counts
			{ScheduleID: "s2", PaidAt: due.AddDate(0, 1, 1)},    // a day late
		},
	}

	rate, ok := OnTimeRate([]Loan{loan})
	require.True(t, ok)
	assertDec(t, "0.5", rate)
	assertDec(t, "148.75", paymentHistory([]Loan{loan}))

	loan.Repayments = append(loan.Repayments, Repayment{PaidAt: due}) // unlinked
	rate, _ = OnTimeRate([]Loan{loan})
	assert.True(t, rate.LessThan(dec("0.5")))

	_, ok = OnTimeRate([]Loan{{}})
	assert.False(t, ok)
	assertDec(t, "0", paymentHistory(nil))
}

func TestPaymentHistory_Monotonic(t *testing.T) {
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	build := func(onTime, late int) []Loan {
		l := Loan{Installments: []Installment{{ScheduleID: "s", DueDate: due}}}
		for i := 0; i < onTime; i++ {
			l.Repayments = append(l.Repayments, Repayment{ScheduleID: "s", PaidAt: due.AddDate(0, 0, -1)})
		}
		for i := 0; i < late; i++ {
			l.Repayments = append(l.Repayments, Repayment{ScheduleID: "s", PaidAt: due.AddDate(0, 0, 3)})
		}
		return []Loan{l}
	}

	const total = 10
	prev := decimal.NewFromInt(-1)
	for onTime := 0; onTime <= total; onTime++ {
		got := paymentHistory(build(onTime, total-onTime))
		assert.Truef(t, got.GreaterThanOrEqual(prev), "on-time=%d decreased contribution", onTime)
		prev = got
	}
	assertDec(t, "297.5", prev)
}

func TestUtilizationTiers(t *testing.T) {
	tests := []struct {
		outstanding int64
		limit       int64
		want        string
	}{
		{0, 0, "255"},
		{30_000, 0, "255"},
		{30_001, 0, "180"},
		{50_000, 0, "180"},
		{70_000, 0, "120"},
		{70_001, 0, "60"},
		{70_001, 1_000_000, "255"},
	}
	for _, tt := range tests {
		loans := []Loan{
			{Active: true, PrincipalMinor: tt.outstanding + 500, TotalRepaidMinor: 500},
			{Active: false, PrincipalMinor: 900_000},
		}
		got := utilization(Profile{CreditLimitMinor: tt.limit}, loans)
		assert.Truef(t, got.Equal(dec(tt.want)), "outstanding=%d limit=%d: got %s want %s", tt.outstanding, tt.limit, got, tt.want)
	}
}

func TestCreditAgeTiers(t *testing.T) {
	tests := []struct {
		created time.Time
		want    string
	}{
		{now.AddDate(-6, 0, 0), "127.5"},
		{now.AddDate(-4, 0, 0), "90"},
		{now.AddDate(-1, 0, -1), "60"},
		{now.AddDate(0, -6, 0), "30"},
		{time.Time{}, "30"},
		{now.Add(time.Hour), "30"},
	}
	for _, tt := range tests {
		assertDec(t, tt.want, creditAge(Profile{AccountCreatedAt: tt.created}, now))
	}
}

func TestCreditMixTiers(t *testing.T) {
	assertDec(t, "30", creditMix(nil))
	assertDec(t, "30", creditMix([]Loan{{Purpose: "home"}, {Purpose: "home"}}))
	assertDec(t, "60", creditMix([]Loan{{Purpose: "home"}, {Purpose: "auto"}}))
	assertDec(t, "85", creditMix([]Loan{{Purpose: "home"}, {Purpose: "auto"}, {Purpose: "education"}}))
}

func TestNewInquiryTiers(t *testing.T) {
	recent := func(n int, old int) []Loan {
		var out []Loan
		for i := 0; i < n; i++ {
			out = append(out, Loan{CreatedAt: now.AddDate(0, 0, -10)})
		}
		for i := 0; i < old; i++ {
			out = append(out, Loan{CreatedAt: now.AddDate(0, 0, -120)})
		}
		return out
	}
	assertDec(t, "85", newInquiries(recent(1, 5), now))
	assertDec(t, "50", newInquiries(recent(2, 0), now))
	assertDec(t, "50", newInquiries(recent(3, 0), now))
	assertDec(t, "20", newInquiries(recent(4, 0), now))
}

func TestCompute_AlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	purposes := []string{"home", "auto", "business", "education", ""}

	for i := 0; i < 500; i++ {
		var loans []Loan
		for j := 0; j < rng.Intn(8); j++ {
			due := now.AddDate(0, -rng.Intn(24), 0)
			l := Loan{
				Active:           rng.Intn(2) == 0,
				PrincipalMinor:   rng.Int63n(500_000) + 1,
				TotalRepaidMinor: rng.Int63n(600_000),
				Purpose:          purposes[rng.Intn(len(purposes))],
				CreatedAt:        now.AddDate(0, 0, -rng.Intn(1000)),
				Installments:     []Installment{{ScheduleID: "x", DueDate: due}},
			}
			for k := 0; k < rng.Intn(6); k++ {
				l.Repayments = append(l.Repayments, Repayment{ScheduleID: "x", PaidAt: due.AddDate(0, 0, rng.Intn(20)-10)})
			}
			loans = append(loans, l)
		}
		p := Profile{
			AccountCreatedAt: now.AddDate(-rng.Intn(10), 0, 0),
			CreditLimitMinor: rng.Int63n(300_000),
		}

		res := Compute(p, loans, now)
		require.GreaterOrEqual(t, res.Score, MinScore)
		require.LessOrEqual(t, res.Score, MaxScore)
		require.Equal(t, FactorWeights, res.Factors)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, MinScore, clamp(12))
	assert.Equal(t, MaxScore, clamp(1200))
	assert.Equal(t, 700, clamp(700))
}
