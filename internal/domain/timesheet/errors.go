package timesheet

import "errors"

var (
	ErrTimesheetNotFound         = errors.New("timesheet not found")
	ErrTimesheetAlreadySubmitted = errors.New("a timesheet for this period is already open or approved")
	ErrForbidden                 = errors.New("not allowed to view this timesheet")
)
