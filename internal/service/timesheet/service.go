package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/lock"
)

type TimesheetServiceImpl struct {
	timesheet.TimesheetRepository
	users  directory.Repository
	engine approval.Engine
	// periods serializes submissions per requester and period
	periods *lock.Keyed
	now     func() time.Time
}

func NewTimesheetService(repo timesheet.TimesheetRepository, users directory.Repository, engine approval.Engine) timesheet.TimesheetService {
	return &TimesheetServiceImpl{
		TimesheetRepository: repo,
		users:               users,
		engine:              engine,
		periods:             lock.NewKeyed(),
		now:                 time.Now,
	}
}

// Submit implements timesheet.TimesheetService. A requester may hold only one
// open or approved timesheet per period; a denied one can be resubmitted.
func (s *TimesheetServiceImpl) Submit(ctx context.Context, requesterID string, req timesheet.SubmitTimesheetRequest) (timesheet.TimesheetResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return timesheet.TimesheetResponse{}, fmt.Errorf("failed to get requester: %w", err)
	}

	unlock, err := s.periods.Lock(ctx, requester.ID+"/"+req.Period)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	defer unlock()

	existing, err := s.TimesheetRepository.GetByRequesterAndPeriod(ctx, requester.ID, req.Period)
	if err != nil {
		return timesheet.TimesheetResponse{}, fmt.Errorf("failed to check existing timesheets: %w", err)
	}
	for _, ts := range existing {
		status, err := approval.TimesheetPolicy.Parse(ts.Status)
		if err != nil || status.Kind != approval.StatusRejected {
			return timesheet.TimesheetResponse{}, timesheet.ErrTimesheetAlreadySubmitted
		}
	}

	now := s.now().UTC()
	created, err := s.TimesheetRepository.Create(ctx, timesheet.Timesheet{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RequesterID: requester.ID,
		Period:      req.Period,
		Entries:     req.Entries,
		TotalHours:  timesheet.SumHours(req.Entries),
		Status:      approval.TimesheetPolicy.Render(approval.Pending()),
		Approvers:   []approval.ApproverSnapshot{},
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, timesheet.ErrTimesheetAlreadySubmitted) {
			return timesheet.TimesheetResponse{}, err
		}
		return timesheet.TimesheetResponse{}, fmt.Errorf("failed to create timesheet: %w", err)
	}
	created.RequesterName = &requester.Name

	s.engine.AnnounceSubmission(ctx, created.ApprovalRequest())

	return timesheet.NewTimesheetResponse(created), nil
}

// Approve implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) Approve(ctx context.Context, timesheetID, approverID string) (approval.ActionResult, error) {
	return s.engine.RecordAction(ctx, approval.RecordActionRequest{
		Kind:       approval.KindTimesheet,
		RequestID:  timesheetID,
		ApproverID: approverID,
		Action:     approval.ActionApprove,
	})
}

// Deny implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) Deny(ctx context.Context, timesheetID, approverID, reason string) (approval.ActionResult, error) {
	return s.engine.RecordAction(ctx, approval.RecordActionRequest{
		Kind:       approval.KindTimesheet,
		RequestID:  timesheetID,
		ApproverID: approverID,
		Action:     approval.ActionDeny,
		Reason:     reason,
	})
}

// GetApprovalFlow implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetApprovalFlow(ctx context.Context, timesheetID, callerID string) ([]approval.EntryResponse, error) {
	if err := s.authorize(ctx, timesheetID, callerID); err != nil {
		return nil, err
	}
	entries, err := s.engine.ApprovalFlow(ctx, approval.KindTimesheet, timesheetID)
	if err != nil {
		return nil, err
	}
	out := make([]approval.EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = approval.NewEntryResponse(e)
	}
	return out, nil
}

// ListForRole implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) ListForRole(ctx context.Context, callerID string) (timesheet.TimesheetListingResponse, error) {
	listing, err := s.engine.ListForRole(ctx, approval.KindTimesheet, callerID)
	if err != nil {
		return timesheet.TimesheetListingResponse{}, err
	}

	sheets, err := s.TimesheetRepository.GetByIDs(ctx, listing.IDs())
	if err != nil {
		return timesheet.TimesheetListingResponse{}, fmt.Errorf("failed to load timesheets: %w", err)
	}
	byID := make(map[string]timesheet.Timesheet, len(sheets))
	for _, ts := range sheets {
		byID[ts.ID] = ts
	}

	project := func(part []approval.Request) []timesheet.TimesheetResponse {
		out := make([]timesheet.TimesheetResponse, 0, len(part))
		for _, ar := range part {
			if ts, ok := byID[ar.ID]; ok {
				out = append(out, timesheet.NewTimesheetResponse(ts))
			}
		}
		return out
	}

	return timesheet.TimesheetListingResponse{
		Pending:              project(listing.Pending),
		AwaitingNextApprover: project(listing.AwaitingNextApprover),
		FullyApproved:        project(listing.FullyApproved),
		Rejected:             project(listing.Rejected),
	}, nil
}

// GetByID implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetByID(ctx context.Context, timesheetID, callerID string) (timesheet.TimesheetResponse, error) {
	if err := s.authorize(ctx, timesheetID, callerID); err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	ts, err := s.TimesheetRepository.GetByID(ctx, timesheetID)
	if err != nil {
		if errors.Is(err, timesheet.ErrTimesheetNotFound) {
			return timesheet.TimesheetResponse{}, err
		}
		return timesheet.TimesheetResponse{}, fmt.Errorf("failed to get timesheet: %w", err)
	}

	return timesheet.NewTimesheetResponse(ts), nil
}

func (s *TimesheetServiceImpl) authorize(ctx context.Context, timesheetID, callerID string) error {
	err := s.engine.Authorize(ctx, approval.KindTimesheet, timesheetID, callerID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, approval.ErrForbidden):
		return timesheet.ErrForbidden
	case errors.Is(err, approval.ErrRequestNotFound):
		return timesheet.ErrTimesheetNotFound
	}
	return fmt.Errorf("failed to authorize timesheet read: %w", err)
}
