package leave

import "errors"

var (
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrNoWorkingDays        = errors.New("leave range contains no working days")
	ErrForbidden            = errors.New("not allowed to view this leave request")
)
