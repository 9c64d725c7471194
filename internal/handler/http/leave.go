package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/response"
)

type LeaveHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Deny(w http.ResponseWriter, r *http.Request)
	Flow(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// Submit implements LeaveHandler.
func (l *LeaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req leave.SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit leave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := l.leaveService.Submit(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", created)
}

// List implements LeaveHandler.
func (l *LeaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	listing, err := l.leaveService.ListForRole(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, listing)
}

// Get implements LeaveHandler.
func (l *LeaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	requestID, ok := idParam(w, r, leave.ErrLeaveRequestNotFound)
	if !ok {
		return
	}

	lr, err := l.leaveService.GetByID(r.Context(), requestID, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, lr)
}

// Approve implements LeaveHandler.
func (l *LeaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	requestID, ok := idParam(w, r, leave.ErrLeaveRequestNotFound)
	if !ok {
		return
	}

	result, err := l.leaveService.Approve(r.Context(), requestID, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved", result)
}

// Deny implements LeaveHandler.
func (l *LeaveHandlerImpl) Deny(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	requestID, ok := idParam(w, r, leave.ErrLeaveRequestNotFound)
	if !ok {
		return
	}

	var req approval.DenyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Deny leave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := l.leaveService.Deny(r.Context(), requestID, userID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request denied", result)
}

// Flow implements LeaveHandler.
func (l *LeaveHandlerImpl) Flow(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	requestID, ok := idParam(w, r, leave.ErrLeaveRequestNotFound)
	if !ok {
		return
	}

	flow, err := l.leaveService.GetApprovalFlow(r.Context(), requestID, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, flow)
}
