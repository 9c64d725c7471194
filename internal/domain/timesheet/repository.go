package timesheet

import "context"

// TimesheetRepository - interface for timesheets table
type TimesheetRepository interface {
	Create(ctx context.Context, ts Timesheet) (Timesheet, error)
	GetByID(ctx context.Context, id string) (Timesheet, error)
	GetByIDs(ctx context.Context, ids []string) ([]Timesheet, error)
	GetByRequesterAndPeriod(ctx context.Context, requesterID, period string) ([]Timesheet, error)
}
