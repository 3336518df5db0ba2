package deduction

import "testing"

func TestSplitFee(t *testing.T) {
	tests := []struct {
		gross, fee, lender int64
	}{
		{10000, 200, 9800},
		{10831, 217, 10614},
		{25, 1, 24}, // 0.5 rounds up
		{24, 0, 24}, // 0.48 rounds down
		{75, 2, 73}, // 1.5 rounds up
		{0, 0, 0},
	}
	for _, tt := range tests {
		fee, lender := SplitFee(tt.gross)
		if fee != tt.fee || lender != tt.lender {
			t.Errorf("SplitFee(%d) = (%d,%d), want (%d,%d)", tt.gross, fee, lender, tt.fee, tt.lender)
		}
		if fee+lender != tt.gross {
			t.Errorf("SplitFee(%d) does not add up", tt.gross)
		}
	}
}

func TestRetryable(t *testing.T) {
	d := &ScheduledDeduction{AttemptCount: 2, MaxAttempts: 3}
	if !d.Retryable() {
		t.Fatal("attempt 2 of 3 should be retryable")
	}
	d.AttemptCount = 3
	if d.Retryable() {
		t.Fatal("attempt 3 of 3 must be terminal")
	}
	d = &ScheduledDeduction{AttemptCount: 3}
	if d.Retryable() {
		t.Fatal("zero max attempts falls back to default 3")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for s, want := range map[Status]bool{
		StatusScheduled:  false,
		StatusProcessing: false,
		StatusFailed:     false,
		StatusCompleted:  true,
		StatusCancelled:  true,
	} {
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

func TestNextChargeKey(t *testing.T) {
	tests := []struct {
		name string
		row  ScheduledDeduction
		want string
	}{
		{"first attempt", ScheduledDeduction{DeductionID: "D1"}, "D1"},
		{"after one decline", ScheduledDeduction{DeductionID: "D1", AttemptCount: 1}, "D1-2"},
		{"pending key is repeated", ScheduledDeduction{DeductionID: "D1", AttemptCount: 1, ChargeKey: "D1"}, "D1"},
	}
	for _, tt := range tests {
		if got := tt.row.NextChargeKey(); got != tt.want {
			t.Errorf("%s: NextChargeKey() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
