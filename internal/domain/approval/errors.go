package approval

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

var (
	ErrRequestNotFound     = errors.New("request not found")
	ErrApproverNotFound    = errors.New("approver not found")
	ErrInvalidApproverRole = errors.New("approver role is not part of the approval sequence")
	ErrOutOfOrder          = errors.New("approval out of order")
	ErrMissingReason       = errors.New("reason is required when denying a request")
	ErrRequestClosed       = errors.New("request is already fully approved or denied")
	ErrAlreadyApproved     = errors.New("role has already approved this request")
	ErrUnknownRequestKind  = errors.New("unknown request kind")
	ErrInvalidStatus       = errors.New("unrecognized status value")
	ErrInvalidAction       = errors.New("invalid approval action")
	ErrForbidden           = errors.New("caller may not view this request")
)

// OutOfOrderError names the role that still has to approve before the
// acting role may.
type OutOfOrderError struct {
	ActingRole  directory.Role
	PendingRole directory.Role
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("approval out of order: %s cannot approve while waiting on %s", e.ActingRole, e.PendingRole)
}

func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}
