package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/response"
)

type TimesheetHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Deny(w http.ResponseWriter, r *http.Request)
	Flow(w http.ResponseWriter, r *http.Request)
}

type TimesheetHandlerImpl struct {
	timesheetService timesheet.TimesheetService
}

func NewTimesheetHandler(timesheetService timesheet.TimesheetService) TimesheetHandler {
	return &TimesheetHandlerImpl{timesheetService: timesheetService}
}

// Submit implements TimesheetHandler.
func (t *TimesheetHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req timesheet.SubmitTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit timesheet decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := t.timesheetService.Submit(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Timesheet submitted successfully", created)
}

// List implements TimesheetHandler.
func (t *TimesheetHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	listing, err := t.timesheetService.ListForRole(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, listing)
}

// Get implements TimesheetHandler.
func (t *TimesheetHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	timesheetID, ok := idParam(w, r, timesheet.ErrTimesheetNotFound)
	if !ok {
		return
	}

	ts, err := t.timesheetService.GetByID(r.Context(), timesheetID, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, ts)
}

// Approve implements TimesheetHandler.
func (t *TimesheetHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	timesheetID, ok := idParam(w, r, timesheet.ErrTimesheetNotFound)
	if !ok {
		return
	}

	result, err := t.timesheetService.Approve(r.Context(), timesheetID, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet approved", result)
}

// Deny implements TimesheetHandler.
func (t *TimesheetHandlerImpl) Deny(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	timesheetID, ok := idParam(w, r, timesheet.ErrTimesheetNotFound)
	if !ok {
		return
	}

	var req approval.DenyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Deny timesheet decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := t.timesheetService.Deny(r.Context(), timesheetID, userID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timesheet denied", result)
}

// Flow implements TimesheetHandler.
func (t *TimesheetHandlerImpl) Flow(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	timesheetID, ok := idParam(w, r, timesheet.ErrTimesheetNotFound)
	if !ok {
		return
	}

	flow, err := t.timesheetService.GetApprovalFlow(r.Context(), timesheetID, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, flow)
}
