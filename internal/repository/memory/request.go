package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

type requestRepository struct {
	store *Store
}

func NewRequestRepository(store *Store) approval.RequestRepository {
	return &requestRepository{store: store}
}

// lookup must be called with the store lock held
func (r *requestRepository) lookup(kind approval.RequestKind, id string) (approval.Request, bool) {
	switch kind {
	case approval.KindLeave:
		l, ok := r.store.leaves[id]
		if !ok {
			return approval.Request{}, false
		}
		req := l.ApprovalRequest()
		req.Approvers = copyApprovers(req.Approvers)
		return req, true
	case approval.KindTimesheet:
		t, ok := r.store.timesheets[id]
		if !ok {
			return approval.Request{}, false
		}
		req := t.ApprovalRequest()
		req.Approvers = copyApprovers(req.Approvers)
		return req, true
	}
	return approval.Request{}, false
}

func (r *requestRepository) GetByID(ctx context.Context, kind approval.RequestKind, id string) (approval.Request, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	req, ok := r.lookup(kind, id)
	if !ok {
		return approval.Request{}, approval.ErrRequestNotFound
	}
	return req, nil
}

func (r *requestRepository) GetForUpdate(ctx context.Context, kind approval.RequestKind, id string) (approval.Request, error) {
	return r.GetByID(ctx, kind, id)
}

func (r *requestRepository) UpdateState(ctx context.Context, kind approval.RequestKind, id string, status string, approvers []approval.ApproverSnapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	switch kind {
	case approval.KindLeave:
		l, ok := r.store.leaves[id]
		if !ok {
			return approval.ErrRequestNotFound
		}
		l.Status, l.Approvers, l.UpdatedAt = status, copyApprovers(approvers), now
		r.store.leaves[id] = l
	case approval.KindTimesheet:
		t, ok := r.store.timesheets[id]
		if !ok {
			return approval.ErrRequestNotFound
		}
		t.Status, t.Approvers, t.UpdatedAt = status, copyApprovers(approvers), now
		r.store.timesheets[id] = t
	default:
		return approval.ErrUnknownRequestKind
	}
	return nil
}

func (r *requestRepository) ListScoped(ctx context.Context, kind approval.RequestKind, scope approval.Scope) ([]approval.Request, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var all []approval.Request
	switch kind {
	case approval.KindLeave:
		for _, l := range r.store.leaves {
			all = append(all, l.ApprovalRequest())
		}
	case approval.KindTimesheet:
		for _, t := range r.store.timesheets {
			all = append(all, t.ApprovalRequest())
		}
	default:
		return nil, approval.ErrUnknownRequestKind
	}

	var out []approval.Request
	for _, req := range all {
		if r.inScope(kind, req, scope) {
			req.Approvers = copyApprovers(req.Approvers)
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *requestRepository) InScope(ctx context.Context, kind approval.RequestKind, id string, scope approval.Scope) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	req, ok := r.lookup(kind, id)
	if !ok {
		return false, approval.ErrRequestNotFound
	}
	return r.inScope(kind, req, scope), nil
}

// inScope must be called with the store lock held
func (r *requestRepository) inScope(kind approval.RequestKind, req approval.Request, scope approval.Scope) bool {
	requester := r.store.users[req.RequesterID]
	switch {
	case scope.RequesterID != "":
		return req.RequesterID == scope.RequesterID
	case scope.RequesterReportsTo != "":
		return requester.ReportsToName(scope.RequesterReportsTo)
	case scope.InchargeReportsTo != "":
		for _, e := range r.store.entries {
			if e.RequestKind != kind || e.RequestID != req.ID {
				continue
			}
			if e.ApproverRole == directory.RoleIncharge && e.Status == approval.EntryApproved &&
				r.store.users[e.ApproverID].ReportsToName(scope.InchargeReportsTo) {
				return true
			}
		}
		return false
	case len(scope.RequesterLocations) > 0:
		for _, l := range scope.RequesterLocations {
			if requester.Location == l {
				return true
			}
		}
		return false
	case scope.ApprovedRole != "":
		for _, e := range r.store.entries {
			if e.RequestKind == kind && e.RequestID == req.ID &&
				e.ApproverRole == scope.ApprovedRole && e.Status == approval.EntryApproved {
				return true
			}
		}
		return false
	}
	return false
}
