package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
)

type LeaveService interface {
	Submit(ctx context.Context, requesterID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, requestID, approverID string) (approval.ActionResult, error)
	Deny(ctx context.Context, requestID, approverID, reason string) (approval.ActionResult, error)
	GetApprovalFlow(ctx context.Context, requestID, callerID string) ([]approval.EntryResponse, error)
	ListForRole(ctx context.Context, callerID string) (LeaveListingResponse, error)
	GetByID(ctx context.Context, requestID, callerID string) (LeaveRequestResponse, error)
}
