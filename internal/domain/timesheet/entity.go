package timesheet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
)

// Entry is one line of hours worked
type Entry struct {
	Date     string          `json:"date"`
	Hours    decimal.Decimal `json:"hours"`
	Activity string          `json:"activity"`
}

// Timesheet entity
type Timesheet struct {
	ID          string
	RequesterID string
	Period      string // YYYY-MM
	Entries     []Entry
	TotalHours  decimal.Decimal

	Status    string
	Approvers []approval.ApproverSnapshot

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	RequesterName *string
}

// ApprovalRequest returns the part of the timesheet the approval engine owns
func (t Timesheet) ApprovalRequest() approval.Request {
	return approval.Request{
		ID:          t.ID,
		Kind:        approval.KindTimesheet,
		RequesterID: t.RequesterID,
		Status:      t.Status,
		Approvers:   t.Approvers,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// SumHours adds up the hours of every entry
func SumHours(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Hours)
	}
	return total
}
