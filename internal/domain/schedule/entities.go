package schedule

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("schedule entry not found")

// Entry is one installment of a loan's repayment schedule.
type Entry struct {
	ID                 uint64     `gorm:"primaryKey;column:id" json:"-"`
	ScheduleID         string     `gorm:"size:32;uniqueIndex:ux_schedule_schedule_id" json:"schedule_id"`
	LoanID             string     `gorm:"size:32;uniqueIndex:ux_schedule_loan_payment,priority:1" json:"loan_id"`
	PaymentNumber      int        `gorm:"uniqueIndex:ux_schedule_loan_payment,priority:2" json:"payment_number"`
	DueDate            time.Time  `json:"due_date"`
	PrincipalComponent int64      `json:"principal_component"`
	InterestComponent  int64      `json:"interest_component"`
	Paid               bool       `gorm:"not null;default:false" json:"paid"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "repayment_schedules" }

func (e *Entry) AmountDue() int64 { return e.PrincipalComponent + e.InterestComponent }

// Total sums every installment in the set.
func Total(entries []Entry) int64 {
	var sum int64
	for _, e := range entries {
		sum += e.AmountDue()
	}
	return sum
}
