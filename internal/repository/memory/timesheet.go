package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/timesheet"
)

type timesheetRepository struct {
	store *Store
}

func NewTimesheetRepository(store *Store) timesheet.TimesheetRepository {
	return &timesheetRepository{store: store}
}

func (r *timesheetRepository) Create(ctx context.Context, ts timesheet.Timesheet) (timesheet.Timesheet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ts.Approvers = copyApprovers(ts.Approvers)
	ts.Entries = append([]timesheet.Entry(nil), ts.Entries...)
	r.store.timesheets[ts.ID] = ts
	return ts, nil
}

func (r *timesheetRepository) withName(ts timesheet.Timesheet) timesheet.Timesheet {
	if u, ok := r.store.users[ts.RequesterID]; ok {
		name := u.Name
		ts.RequesterName = &name
	}
	ts.Approvers = copyApprovers(ts.Approvers)
	ts.Entries = append([]timesheet.Entry(nil), ts.Entries...)
	return ts
}

func (r *timesheetRepository) GetByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ts, ok := r.store.timesheets[id]
	if !ok {
		return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
	}
	return r.withName(ts), nil
}

func (r *timesheetRepository) GetByIDs(ctx context.Context, ids []string) ([]timesheet.Timesheet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]timesheet.Timesheet, 0, len(ids))
	for _, id := range ids {
		if ts, ok := r.store.timesheets[id]; ok {
			out = append(out, r.withName(ts))
		}
	}
	return out, nil
}

func (r *timesheetRepository) GetByRequesterAndPeriod(ctx context.Context, requesterID, period string) ([]timesheet.Timesheet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []timesheet.Timesheet
	for _, ts := range r.store.timesheets {
		if ts.RequesterID == requesterID && ts.Period == period {
			out = append(out, r.withName(ts))
		}
	}
	return out, nil
}
