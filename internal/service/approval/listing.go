package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

// ScopeFor returns the listing filter for caller
func ScopeFor(caller directory.User, groupOf func(location string) []string) (approval.Scope, error) {
	switch caller.Role {
	case directory.RoleStaff:
		return approval.Scope{RequesterID: caller.ID}, nil
	case directory.RoleIncharge:
		return approval.Scope{RequesterReportsTo: caller.Name}, nil
	case directory.RolePO:
		return approval.Scope{InchargeReportsTo: caller.Name}, nil
	case directory.RoleHR:
		return approval.Scope{RequesterLocations: groupOf(caller.Location)}, nil
	case directory.RolePADM:
		return approval.Scope{ApprovedRole: directory.RoleHR}, nil
	}
	return approval.Scope{}, fmt.Errorf("no listing scope for role %q", caller.Role)
}

// ListForRole partitions the requests visible to callerID by status
func (e *engine) ListForRole(ctx context.Context, kind approval.RequestKind, callerID string) (approval.RoleListing, error) {
	policy, err := approval.PolicyFor(kind)
	if err != nil {
		return approval.RoleListing{}, err
	}

	caller, err := e.users.GetByID(ctx, callerID)
	if err != nil {
		return approval.RoleListing{}, fmt.Errorf("load caller: %w", err)
	}

	scope, err := ScopeFor(caller, e.routes.Group)
	if err != nil {
		return approval.RoleListing{}, err
	}

	requests, err := e.requests.ListScoped(ctx, kind, scope)
	if err != nil {
		return approval.RoleListing{}, fmt.Errorf("list requests: %w", err)
	}

	return partition(requests, policy, e.logger.Warn), nil
}

// Authorize lets the requester and every ledger participant read a request.
// HR may also read what the resolver routes to them. Anyone else needs the
// request inside their listing scope.
func (e *engine) Authorize(ctx context.Context, kind approval.RequestKind, requestID, callerID string) error {
	if !kind.IsValid() {
		return approval.ErrUnknownRequestKind
	}

	request, err := e.requests.GetByID(ctx, kind, requestID)
	if err != nil {
		return err
	}
	if request.RequesterID == callerID {
		return nil
	}

	caller, err := e.users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return approval.ErrForbidden
		}
		return fmt.Errorf("load caller: %w", err)
	}

	entries, err := e.ledger.ListByRequest(ctx, kind, requestID)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	for _, entry := range entries {
		if entry.ApproverID == caller.ID {
			return nil
		}
	}

	if caller.Role == directory.RoleHR {
		requester, err := e.users.GetByID(ctx, request.RequesterID)
		if err == nil && e.routes.InGroup(requester.Location, caller.Location) {
			return nil
		}
	}

	scope, err := ScopeFor(caller, e.routes.Group)
	if err != nil {
		return approval.ErrForbidden
	}
	ok, err := e.requests.InScope(ctx, kind, requestID, scope)
	if err != nil {
		return err
	}
	if !ok {
		e.logger.Debug("Request read refused", "kind", kind, "request_id", requestID, "caller_id", caller.ID, "caller_role", caller.Role)
		return approval.ErrForbidden
	}
	return nil
}

func partition(requests []approval.Request, policy approval.Policy, warn func(msg string, args ...any)) approval.RoleListing {
	listing := approval.RoleListing{
		Pending:              []approval.Request{},
		AwaitingNextApprover: []approval.Request{},
		FullyApproved:        []approval.Request{},
		Rejected:             []approval.Request{},
	}
	for _, r := range requests {
		status, err := policy.Parse(r.Status)
		if err != nil {
			warn("Skipping request with unreadable status", "kind", r.Kind, "request_id", r.ID, "status", r.Status)
			continue
		}
		switch status.Kind {
		case approval.StatusPending:
			listing.Pending = append(listing.Pending, r)
		case approval.StatusInProgress:
			listing.AwaitingNextApprover = append(listing.AwaitingNextApprover, r)
		case approval.StatusFullyApproved:
			listing.FullyApproved = append(listing.FullyApproved, r)
		case approval.StatusRejected:
			listing.Rejected = append(listing.Rejected, r)
		}
	}
	return listing
}
