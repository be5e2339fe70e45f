package models

import "time"

// FeeStatus captures the payment state of a fee.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusOverdue FeeStatus = "overdue"
	FeeStatusPaid    FeeStatus = "paid"
)

// Fee is a charge billed to one student. PaidOn is set iff Status is paid.
type Fee struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	SchoolID  string     `json:"school_id"`
	Title     string     `json:"title"`
	Month     string     `json:"month"`
	Amount    float64    `json:"amount"`
	DueDate   time.Time  `json:"due_date"`
	Status    FeeStatus  `json:"status"`
	PaidOn    *time.Time `json:"paid_on,omitempty"`
}

// Clone returns a deep copy of the fee.
func (f Fee) Clone() Fee {
	clone := f
	if f.PaidOn != nil {
		paidOn := *f.PaidOn
		clone.PaidOn = &paidOn
	}
	return clone
}
