package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
)

type leaveRequestRepository struct {
	store *Store
}

func NewLeaveRequestRepository(store *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepository{store: store}
}

func (r *leaveRequestRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	request.Approvers = copyApprovers(request.Approvers)
	r.store.leaves[request.ID] = request
	return request, nil
}

func (r *leaveRequestRepository) withName(l leave.LeaveRequest) leave.LeaveRequest {
	if u, ok := r.store.users[l.RequesterID]; ok {
		name := u.Name
		l.RequesterName = &name
	}
	l.Approvers = copyApprovers(l.Approvers)
	return l
}

func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.leaves[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return r.withName(l), nil
}

func (r *leaveRequestRepository) GetByIDs(ctx context.Context, ids []string) ([]leave.LeaveRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]leave.LeaveRequest, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.store.leaves[id]; ok {
			out = append(out, r.withName(l))
		}
	}
	return out, nil
}
