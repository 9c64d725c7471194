package timesheet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/validator"
)

var maxDailyHours = decimal.NewFromInt(24)

type SubmitTimesheetRequest struct {
	Period  string  `json:"period"`
	Entries []Entry `json:"entries"`
}

func (r *SubmitTimesheetRequest) Validate() error {
	var errs validator.ValidationErrors

	period, periodOK := validator.IsValidPeriod(r.Period)
	if !periodOK {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "period must be in YYYY-MM format",
		})
	}

	if len(r.Entries) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "entries",
			Message: "entries must contain at least one day",
		})
	}

	daily := make(map[string]decimal.Decimal)
	for i, e := range r.Entries {
		field := fmt.Sprintf("entries[%d]", i)

		date, ok := validator.IsValidDate(e.Date)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".date",
				Message: "date must be in YYYY-MM-DD format",
			})
		} else if periodOK && (date.Year() != period.Year() || date.Month() != period.Month()) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".date",
				Message: "date must fall inside the period",
			})
		}

		if !e.Hours.IsPositive() {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".hours",
				Message: "hours must be greater than zero",
			})
		}
		if validator.IsEmpty(e.Activity) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".activity",
				Message: "activity is required",
			})
		}

		if ok {
			daily[e.Date] = daily[e.Date].Add(e.Hours)
			if daily[e.Date].GreaterThan(maxDailyHours) {
				errs = append(errs, validator.ValidationError{
					Field:   field + ".hours",
					Message: "hours for a single day must not exceed 24",
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TimesheetResponse struct {
	ID            string                      `json:"id"`
	RequesterID   string                      `json:"requester_id"`
	RequesterName *string                     `json:"requester_name,omitempty"`
	Period        string                      `json:"period"`
	Entries       []Entry                     `json:"entries"`
	TotalHours    decimal.Decimal             `json:"total_hours"`
	Status        string                      `json:"status"`
	Approvers     []approval.ApproverSnapshot `json:"approvers"`
	SubmittedAt   time.Time                   `json:"submitted_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func NewTimesheetResponse(t Timesheet) TimesheetResponse {
	approvers := t.Approvers
	if approvers == nil {
		approvers = []approval.ApproverSnapshot{}
	}
	return TimesheetResponse{
		ID:            t.ID,
		RequesterID:   t.RequesterID,
		RequesterName: t.RequesterName,
		Period:        t.Period,
		Entries:       t.Entries,
		TotalHours:    t.TotalHours,
		Status:        t.Status,
		Approvers:     approvers,
		SubmittedAt:   t.SubmittedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

type TimesheetListingResponse struct {
	Pending              []TimesheetResponse `json:"pending"`
	AwaitingNextApprover []TimesheetResponse `json:"awaiting_next_approver"`
	FullyApproved        []TimesheetResponse `json:"fully_approved"`
	Rejected             []TimesheetResponse `json:"rejected"`
}
