package amortization

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func sumPrincipal(s Schedule) int64 {
	var sum int64
	for _, e := range s.Entries {
		sum += e.PrincipalComponent
	}
	return sum
}

func TestComputeSchedule_Scenario(t *testing.T) {
	s, err := ComputeSchedule(120_000, 1500, 12, date(2024, 1, 10))
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	if s.MonthlyPaymentMinor != 10831 {
		t.Fatalf("monthly payment = %d, want 10831", s.MonthlyPaymentMinor)
	}
	if len(s.Entries) != 12 {
		t.Fatalf("entries = %d", len(s.Entries))
	}
	first := s.Entries[0]
	if first.InterestComponent != 1500 || first.PrincipalComponent != 9331 {
		t.Fatalf("first entry = %+v", first)
	}
	if !first.DueDate.Equal(date(2024, 2, 10)) {
		t.Fatalf("first due = %s", first.DueDate)
	}
	if got := sumPrincipal(s); got != 120_000 {
		t.Fatalf("sum principal = %d", got)
	}
	for i, e := range s.Entries {
		if e.PaymentNumber != i+1 {
			t.Fatalf("entry %d has payment number %d", i, e.PaymentNumber)
		}
	}
	if s.TotalDue() != 120_000+s.TotalInterest() {
		t.Fatalf("total due mismatch")
	}
}

func TestComputeSchedule_PrincipalSumsAndCoverage(t *testing.T) {
	cases := []struct {
		p    int64
		apr  int
		term int
	}{
		{1, 0, 1},
		{1, 2500, 12},
		{99_999, 1999, 7},
		{500_000, 1200, 360},
		{1_000_000, 1, 60},
		{12_345, 10_000, 24},
		{7, 0, 3},
		{250_000, 799, 1},
	}
	for _, c := range cases {
		s, err := ComputeSchedule(c.p, c.apr, c.term, date(2024, 5, 31))
		if err != nil {
			t.Fatalf("%+v: %v", c, err)
		}
		if got := sumPrincipal(s); got != c.p {
			t.Errorf("%+v: principal sum %d", c, got)
		}
		if s.MonthlyPaymentMinor*int64(c.term) < c.p {
			t.Errorf("%+v: payment*term %d < principal", c, s.MonthlyPaymentMinor*int64(c.term))
		}
		for _, e := range s.Entries {
			if e.PrincipalComponent < 0 || e.InterestComponent < 0 {
				t.Errorf("%+v: negative component in %+v", c, e)
			}
		}
	}
}

func TestComputeSchedule_ZeroAPR(t *testing.T) {
	s, err := ComputeSchedule(1000, 0, 3, date(2024, 1, 1))
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	if s.MonthlyPaymentMinor != 334 {
		t.Fatalf("payment = %d, want ceil(1000/3)=334", s.MonthlyPaymentMinor)
	}
	want := []int64{334, 334, 332}
	for i, e := range s.Entries {
		if e.InterestComponent != 0 {
			t.Fatalf("entry %d has interest %d", i, e.InterestComponent)
		}
		if e.PrincipalComponent != want[i] {
			t.Fatalf("entry %d principal = %d, want %d", i, e.PrincipalComponent, want[i])
		}
	}
}

func TestComputeSchedule_SingleMonth(t *testing.T) {
	s, err := ComputeSchedule(100_000, 1200, 1, date(2024, 1, 1))
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	if len(s.Entries) != 1 {
		t.Fatalf("entries = %d", len(s.Entries))
	}
	e := s.Entries[0]
	if e.PrincipalComponent != 100_000 || e.InterestComponent != 1000 {
		t.Fatalf("entry = %+v", e)
	}
	if s.MonthlyPaymentMinor != 101_000 {
		t.Fatalf("payment = %d", s.MonthlyPaymentMinor)
	}
}

func TestComputeSchedule_LongHighRateStillAmortizes(t *testing.T) {
	// 100,000 at 30% over 30 years rounds to exactly the first month's interest
	s, err := ComputeSchedule(100_000, 3000, 360, date(2024, 1, 1))
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	if s.MonthlyPaymentMinor != 2501 {
		t.Fatalf("payment = %d, want 2501", s.MonthlyPaymentMinor)
	}
	for _, e := range s.Entries {
		if e.PrincipalComponent <= 0 {
			t.Fatalf("entry %d pays no principal: %+v", e.PaymentNumber, e)
		}
	}
	if got := sumPrincipal(s); got != 100_000 {
		t.Fatalf("sum principal = %d", got)
	}
}

func TestComputeSchedule_InvalidInput(t *testing.T) {
	cases := []struct {
		p    int64
		apr  int
		term int
	}{
		{0, 100, 12},
		{-5, 100, 12},
		{100, 100, 0},
		{100, 100, -1},
		{100, -1, 12},
	}
	for _, c := range cases {
		if _, err := ComputeSchedule(c.p, c.apr, c.term, date(2024, 1, 1)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%+v: want ErrInvalidInput, got %v", c, err)
		}
	}
}

func TestDueDatesClampToMonthEnd(t *testing.T) {
	s, err := ComputeSchedule(3000, 0, 3, date(2024, 1, 31))
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	want := []time.Time{date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30)}
	for i, e := range s.Entries {
		if !e.DueDate.Equal(want[i]) {
			t.Errorf("due[%d] = %s, want %s", i, e.DueDate.Format(time.DateOnly), want[i].Format(time.DateOnly))
		}
	}
}

func TestFirstDueDate(t *testing.T) {
	activated := time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC)
	if got := FirstDueDate(activated); !got.Equal(date(2024, 4, 30)) {
		t.Fatalf("FirstDueDate = %s", got)
	}
}

func TestMonthlyRate(t *testing.T) {
	if got := MonthlyRate(1500).String(); got != "0.0125" {
		t.Fatalf("MonthlyRate(1500) = %s", got)
	}
	if !MonthlyRate(0).IsZero() {
		t.Fatal("zero apr must give zero rate")
	}
}
