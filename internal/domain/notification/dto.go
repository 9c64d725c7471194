package notification

import (
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/validator"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ============= Request DTOs =============

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	RequestKind string
	RequestID   string
	Data        map[string]interface{}
}

func (r *CreateNotificationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RecipientID) {
		errs = append(errs, validator.ValidationError{
			Field:   "recipient_id",
			Message: "recipient_id is required",
		})
	}
	if !r.Type.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is not a known notification type",
		})
	}
	if validator.IsEmpty(r.Title) {
		errs = append(errs, validator.ValidationError{
			Field:   "title",
			Message: "title is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ListFilter narrows a user's notification listing. RequestKind and
// RequestID select the notifications about one leave request or timesheet.
type ListFilter struct {
	Page        int
	PageSize    int
	UnreadOnly  bool
	Type        NotificationType
	RequestKind string
	RequestID   string
}

// Normalize clamps paging to the supported window
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		f.PageSize = DefaultPageSize
	}
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Type != "" && !f.Type.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is not a known notification type",
		})
	}
	errs = append(errs, validateRequestRef(f.RequestKind, f.RequestID, false)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateRequestRef checks a request_kind/request_id pair. A request_id
// without its kind is ambiguous between leave requests and timesheets.
func validateRequestRef(kind, id string, required bool) validator.ValidationErrors {
	var errs validator.ValidationErrors
	switch {
	case kind == "" && id == "":
		if required {
			errs = append(errs, validator.ValidationError{
				Field:   "request_kind",
				Message: "request_kind is required",
			})
		}
	case kind == "":
		errs = append(errs, validator.ValidationError{
			Field:   "request_kind",
			Message: "request_kind is required when request_id is set",
		})
	case !approval.RequestKind(kind).IsValid():
		errs = append(errs, validator.ValidationError{
			Field:   "request_kind",
			Message: "request_kind must be leave or timesheet",
		})
	}
	if required && kind != "" && validator.IsEmpty(id) {
		errs = append(errs, validator.ValidationError{
			Field:   "request_id",
			Message: "request_id is required",
		})
	}
	return errs
}

// MarkAsReadRequest marks notifications read either by id or by the request
// they are about
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
	RequestKind     string   `json:"request_kind,omitempty"`
	RequestID       string   `json:"request_id,omitempty"`
}

// ByRequest reports whether the request targets one leave request or
// timesheet rather than explicit ids
func (r *MarkAsReadRequest) ByRequest() bool {
	return r.RequestKind != "" || r.RequestID != ""
}

func (r *MarkAsReadRequest) Validate() error {
	if r.ByRequest() {
		if len(r.NotificationIDs) > 0 {
			return validator.ValidationErrors{{
				Field:   "notification_ids",
				Message: "notification_ids cannot be combined with request_kind and request_id",
			}}
		}
		if errs := validateRequestRef(r.RequestKind, r.RequestID, true); len(errs) > 0 {
			return errs
		}
		return nil
	}
	if len(r.NotificationIDs) == 0 {
		return validator.ValidationErrors{{
			Field:   "notification_ids",
			Message: "notification_ids must contain at least one id",
		}}
	}
	return nil
}

// ============= Response DTOs =============

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID          string                 `json:"id"`
	Type        NotificationType       `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	RequestKind string                 `json:"request_kind,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
	Link        string                 `json:"link,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	IsRead      bool                   `json:"is_read"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NotificationListResponse represents a paginated list of notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
	RequestKind   string                 `json:"request_kind,omitempty"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// UnreadCountResponse represents unread count response
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// SSETokenResponse represents the SSE token response
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ============= SSE Event =============

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}

// ToResponse converts a Notification entity to NotificationResponse
func ToResponse(n *Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		RequestKind: n.RequestKind,
		RequestID:   n.RequestID,
		Link:        RequestPath(n.RequestKind, n.RequestID),
		Data:        n.Data,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

// RequestPath is the API path of the request a notification is about, or
// empty when it is not about one.
func RequestPath(kind, id string) string {
	if id == "" {
		return ""
	}
	switch approval.RequestKind(kind) {
	case approval.KindLeave:
		return "/api/v1/leaves/" + id
	case approval.KindTimesheet:
		return "/api/v1/timesheets/" + id
	}
	return ""
}
