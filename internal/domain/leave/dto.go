package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/validator"
)

const maxReasonLength = 1000

type SubmitLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`

	// parsed by Validate
	start time.Time
	end   time.Time
}

func (r *SubmitLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if !LeaveType(r.LeaveType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type is not a known leave type",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(r.Reason) > maxReasonLength {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.start, r.end = start, end
	return nil
}

// Dates returns the parsed range. Only meaningful after Validate succeeded.
func (r *SubmitLeaveRequest) Dates() (time.Time, time.Time) {
	return r.start, r.end
}

type LeaveRequestResponse struct {
	ID            string                      `json:"id"`
	RequesterID   string                      `json:"requester_id"`
	RequesterName *string                     `json:"requester_name,omitempty"`
	LeaveType     LeaveType                   `json:"leave_type"`
	StartDate     string                      `json:"start_date"`
	EndDate       string                      `json:"end_date"`
	TotalDays     int                         `json:"total_days"`
	Reason        string                      `json:"reason"`
	Status        string                      `json:"status"`
	Approvers     []approval.ApproverSnapshot `json:"approvers"`
	SubmittedAt   time.Time                   `json:"submitted_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func NewLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	approvers := r.Approvers
	if approvers == nil {
		approvers = []approval.ApproverSnapshot{}
	}
	return LeaveRequestResponse{
		ID:            r.ID,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		LeaveType:     r.LeaveType,
		StartDate:     r.StartDate.Format("2006-01-02"),
		EndDate:       r.EndDate.Format("2006-01-02"),
		TotalDays:     r.TotalDays,
		Reason:        r.Reason,
		Status:        r.Status,
		Approvers:     approvers,
		SubmittedAt:   r.SubmittedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type LeaveListingResponse struct {
	Pending              []LeaveRequestResponse `json:"pending"`
	AwaitingNextApprover []LeaveRequestResponse `json:"awaiting_next_approver"`
	FullyApproved        []LeaveRequestResponse `json:"fully_approved"`
	Rejected             []LeaveRequestResponse `json:"rejected"`
}
