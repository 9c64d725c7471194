package timesheet

import (
	"context"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
)

type TimesheetService interface {
	Submit(ctx context.Context, requesterID string, req SubmitTimesheetRequest) (TimesheetResponse, error)
	Approve(ctx context.Context, timesheetID, approverID string) (approval.ActionResult, error)
	Deny(ctx context.Context, timesheetID, approverID, reason string) (approval.ActionResult, error)
	GetApprovalFlow(ctx context.Context, timesheetID, callerID string) ([]approval.EntryResponse, error)
	ListForRole(ctx context.Context, callerID string) (TimesheetListingResponse, error)
	GetByID(ctx context.Context, timesheetID, callerID string) (TimesheetResponse, error)
}
