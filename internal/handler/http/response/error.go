package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/validator"
)

// domainError is how one sentinel is reported to clients
type domainError struct {
	target  error
	status  int
	code    string
	message string
}

// domainErrors is matched in order with errors.Is
var domainErrors = []domainError{
	// Approval
	{approval.ErrRequestNotFound, http.StatusNotFound, "REQUEST_NOT_FOUND", "Request not found"},
	{approval.ErrApproverNotFound, http.StatusNotFound, "APPROVER_NOT_FOUND", "Approver not found"},
	{approval.ErrInvalidApproverRole, http.StatusForbidden, "ROLE_NOT_IN_SEQUENCE", "Your role is not part of the approval sequence"},
	{approval.ErrForbidden, http.StatusForbidden, "REQUEST_FORBIDDEN", "Not allowed to view this request"},
	{approval.ErrRequestClosed, http.StatusConflict, "REQUEST_CLOSED", "Request is already fully approved or denied"},
	{approval.ErrAlreadyApproved, http.StatusConflict, "ALREADY_APPROVED", "Your role has already approved this request"},
	{approval.ErrUnknownRequestKind, http.StatusBadRequest, "UNKNOWN_REQUEST_KIND", "Unknown request kind"},

	// Directory
	{directory.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},

	// Leave
	{leave.ErrLeaveRequestNotFound, http.StatusNotFound, "LEAVE_NOT_FOUND", "Leave request not found"},
	{leave.ErrForbidden, http.StatusForbidden, "LEAVE_FORBIDDEN", "Not allowed to view this leave request"},

	// Timesheet
	{timesheet.ErrTimesheetNotFound, http.StatusNotFound, "TIMESHEET_NOT_FOUND", "Timesheet not found"},
	{timesheet.ErrTimesheetAlreadySubmitted, http.StatusConflict, "TIMESHEET_PERIOD_TAKEN", "A timesheet for this period is already open or approved"},
	{timesheet.ErrForbidden, http.StatusForbidden, "TIMESHEET_FORBIDDEN", "Not allowed to view this timesheet"},

	// Notification
	{notification.ErrNotificationNotFound, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found"},
	{notification.ErrInvalidNotificationType, http.StatusBadRequest, "INVALID_NOTIFICATION_TYPE", "Invalid notification type"},
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var outOfOrder *approval.OutOfOrderError
	if errors.As(err, &outOfOrder) {
		Fail(w, http.StatusConflict, "OUT_OF_ORDER", outOfOrder.Error(), map[string]string{
			"acting_role":  string(outOfOrder.ActingRole),
			"pending_role": string(outOfOrder.PendingRole),
		})
		return
	}

	// Field-level failures surface as validation errors
	switch {
	case errors.Is(err, approval.ErrMissingReason):
		ValidationError(w, map[string]string{"reason": "reason is required when denying a request"})
		return
	case errors.Is(err, leave.ErrNoWorkingDays):
		ValidationError(w, map[string]string{"end_date": "leave range contains no working days"})
		return
	case errors.Is(err, approval.ErrOutOfOrder):
		Fail(w, http.StatusConflict, "OUT_OF_ORDER", err.Error(), nil)
		return
	}

	for _, de := range domainErrors {
		if errors.Is(err, de.target) {
			Fail(w, de.status, de.code, de.message, nil)
			return
		}
	}

	slog.Error("Unhandled error", "error", err)
	InternalServerError(w, "An unexpected error occurred")
}
