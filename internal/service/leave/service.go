package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
)

type LeaveServiceImpl struct {
	leave.LeaveRequestRepository
	users  directory.Repository
	engine approval.Engine
	now    func() time.Time
}

func NewLeaveService(leaveRequestRepository leave.LeaveRequestRepository, users directory.Repository, engine approval.Engine) leave.LeaveService {
	return &LeaveServiceImpl{
		LeaveRequestRepository: leaveRequestRepository,
		users:                  users,
		engine:                 engine,
		now:                    time.Now,
	}
}

// Submit implements leave.LeaveService.
func (l *LeaveServiceImpl) Submit(ctx context.Context, requesterID string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	requester, err := l.users.GetByID(ctx, requesterID)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to get requester: %w", err)
	}

	start, end := req.Dates()
	days := leave.CountWorkingDays(start, end)
	if days == 0 {
		return leave.LeaveRequestResponse{}, leave.ErrNoWorkingDays
	}

	now := l.now().UTC()
	created, err := l.LeaveRequestRepository.Create(ctx, leave.LeaveRequest{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RequesterID: requester.ID,
		LeaveType:   leave.LeaveType(req.LeaveType),
		StartDate:   start,
		EndDate:     end,
		TotalDays:   days,
		Reason:      req.Reason,
		Status:      approval.LeavePolicy.Render(approval.Pending()),
		Approvers:   []approval.ApproverSnapshot{},
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	created.RequesterName = &requester.Name

	l.engine.AnnounceSubmission(ctx, created.ApprovalRequest())

	return leave.NewLeaveRequestResponse(created), nil
}

// Approve implements leave.LeaveService.
func (l *LeaveServiceImpl) Approve(ctx context.Context, requestID, approverID string) (approval.ActionResult, error) {
	return l.engine.RecordAction(ctx, approval.RecordActionRequest{
		Kind:       approval.KindLeave,
		RequestID:  requestID,
		ApproverID: approverID,
		Action:     approval.ActionApprove,
	})
}

// Deny implements leave.LeaveService.
func (l *LeaveServiceImpl) Deny(ctx context.Context, requestID, approverID, reason string) (approval.ActionResult, error) {
	return l.engine.RecordAction(ctx, approval.RecordActionRequest{
		Kind:       approval.KindLeave,
		RequestID:  requestID,
		ApproverID: approverID,
		Action:     approval.ActionDeny,
		Reason:     reason,
	})
}

// GetApprovalFlow implements leave.LeaveService.
func (l *LeaveServiceImpl) GetApprovalFlow(ctx context.Context, requestID, callerID string) ([]approval.EntryResponse, error) {
	if err := l.authorize(ctx, requestID, callerID); err != nil {
		return nil, err
	}
	entries, err := l.engine.ApprovalFlow(ctx, approval.KindLeave, requestID)
	if err != nil {
		return nil, err
	}
	out := make([]approval.EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = approval.NewEntryResponse(e)
	}
	return out, nil
}

// ListForRole implements leave.LeaveService.
func (l *LeaveServiceImpl) ListForRole(ctx context.Context, callerID string) (leave.LeaveListingResponse, error) {
	listing, err := l.engine.ListForRole(ctx, approval.KindLeave, callerID)
	if err != nil {
		return leave.LeaveListingResponse{}, err
	}

	requests, err := l.LeaveRequestRepository.GetByIDs(ctx, listing.IDs())
	if err != nil {
		return leave.LeaveListingResponse{}, fmt.Errorf("failed to load leave requests: %w", err)
	}
	byID := make(map[string]leave.LeaveRequest, len(requests))
	for _, r := range requests {
		byID[r.ID] = r
	}

	project := func(part []approval.Request) []leave.LeaveRequestResponse {
		out := make([]leave.LeaveRequestResponse, 0, len(part))
		for _, ar := range part {
			if r, ok := byID[ar.ID]; ok {
				out = append(out, leave.NewLeaveRequestResponse(r))
			}
		}
		return out
	}

	return leave.LeaveListingResponse{
		Pending:              project(listing.Pending),
		AwaitingNextApprover: project(listing.AwaitingNextApprover),
		FullyApproved:        project(listing.FullyApproved),
		Rejected:             project(listing.Rejected),
	}, nil
}

// GetByID implements leave.LeaveService.
func (l *LeaveServiceImpl) GetByID(ctx context.Context, requestID, callerID string) (leave.LeaveRequestResponse, error) {
	if err := l.authorize(ctx, requestID, callerID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := l.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, leave.ErrLeaveRequestNotFound) {
			return leave.LeaveRequestResponse{}, err
		}
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to get leave request: %w", err)
	}

	return leave.NewLeaveRequestResponse(request), nil
}

// authorize applies the engine's read rule to a leave request
func (l *LeaveServiceImpl) authorize(ctx context.Context, requestID, callerID string) error {
	err := l.engine.Authorize(ctx, approval.KindLeave, requestID, callerID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, approval.ErrForbidden):
		return leave.ErrForbidden
	case errors.Is(err, approval.ErrRequestNotFound):
		return leave.ErrLeaveRequestNotFound
	}
	return fmt.Errorf("failed to authorize leave request read: %w", err)
}
