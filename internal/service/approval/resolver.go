package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/routing"
)

// Resolver finds the users expected to act after a given approver. It only
// reads the directory and the routing table.
type Resolver struct {
	users  directory.Repository
	routes *routing.Table
	logger *slog.Logger
}

func NewResolver(users directory.Repository, routes *routing.Table, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{users: users, routes: routes, logger: logger.With("component", "resolver")}
}

// NextApprovers returns the role after actor in policy and the users holding
// it. ok is false when actor was the last role.
func (r *Resolver) NextApprovers(ctx context.Context, policy approval.Policy, actor, requester directory.User) (next directory.Role, users []directory.User, ok bool, err error) {
	next, ok = policy.Next(actor.Role)
	if !ok {
		return "", nil, false, nil
	}
	users, err = r.candidates(ctx, next, actor, requester)
	if err != nil {
		return next, nil, true, err
	}
	if len(users) == 0 {
		r.logger.Warn("No next approver found",
			"kind", policy.Kind, "acting_role", actor.Role, "next_role", next,
			"actor_id", actor.ID, "requester_id", requester.ID)
	}
	return next, users, true, nil
}

// FirstApprovers returns the users who act first on a new request
func (r *Resolver) FirstApprovers(ctx context.Context, policy approval.Policy, requester directory.User) (directory.Role, []directory.User, error) {
	first := policy.First()
	users, err := r.candidates(ctx, first, requester, requester)
	if err != nil {
		return first, nil, err
	}
	if len(users) == 0 {
		r.logger.Warn("No first approver found",
			"kind", policy.Kind, "role", first, "requester_id", requester.ID, "reports_to", requester.ReportsTo)
	}
	return first, users, nil
}

// candidates applies the lookup rule of role. previous is whoever acted
// right before, the requester for the first step.
func (r *Resolver) candidates(ctx context.Context, role directory.Role, previous, requester directory.User) ([]directory.User, error) {
	var (
		users []directory.User
		err   error
	)

	switch role {
	case directory.RoleIncharge, directory.RolePO:
		// name link: the previous person's manager
		if previous.ReportsTo == "" {
			return nil, nil
		}
		users, err = r.users.ListByRoleAndName(ctx, role, previous.ReportsTo)
		if err == nil && len(users) > 1 {
			// names are not unique; every match is notified and the
			// ledger records whoever acts first
			ids := make([]string, len(users))
			for i, u := range users {
				ids[i] = u.ID
			}
			r.logger.Warn("Reports-to name matches several approvers",
				"role", role, "name", previous.ReportsTo, "count", len(users),
				"user_ids", ids, "previous_id", previous.ID)
		}
	case directory.RoleHR:
		locations := r.routes.Group(requester.Location)
		if len(locations) == 0 {
			return nil, nil
		}
		users, err = r.users.ListByRoleInLocations(ctx, role, locations)
	case directory.RolePADM:
		users, err = r.users.ListByRole(ctx, role)
	default:
		return nil, fmt.Errorf("no approver rule for role %s", role)
	}

	if err != nil {
		return nil, fmt.Errorf("resolve %s approvers: %w", role, err)
	}
	return users, nil
}
