package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
)

type LeaveType string

const (
	LeaveTypeAnnual        LeaveType = "annual"
	LeaveTypeSick          LeaveType = "sick"
	LeaveTypeCompassionate LeaveType = "compassionate"
	LeaveTypeMaternity     LeaveType = "maternity"
	LeaveTypePaternity     LeaveType = "paternity"
	LeaveTypeStudy         LeaveType = "study"
	LeaveTypeUnpaid        LeaveType = "unpaid"
)

func AllLeaveTypes() []LeaveType {
	return []LeaveType{
		LeaveTypeAnnual,
		LeaveTypeSick,
		LeaveTypeCompassionate,
		LeaveTypeMaternity,
		LeaveTypePaternity,
		LeaveTypeStudy,
		LeaveTypeUnpaid,
	}
}

func (t LeaveType) IsValid() bool {
	for _, known := range AllLeaveTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// LeaveRequest entity
type LeaveRequest struct {
	ID          string
	RequesterID string
	LeaveType   LeaveType

	StartDate time.Time
	EndDate   time.Time
	TotalDays int
	Reason    string

	Status    string
	Approvers []approval.ApproverSnapshot

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relationships (for responses)
	RequesterName *string
}

// ApprovalRequest returns the part of the leave the approval engine owns
func (r LeaveRequest) ApprovalRequest() approval.Request {
	return approval.Request{
		ID:          r.ID,
		Kind:        approval.KindLeave,
		RequesterID: r.RequesterID,
		Status:      r.Status,
		Approvers:   r.Approvers,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// CountWorkingDays counts Monday to Friday days in [start, end]
func CountWorkingDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}
