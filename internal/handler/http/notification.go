package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/validator"
)

// NotificationHandler serves the approval notifications of the caller and
// their live stream
type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	UnreadCount(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
	keepalive    time.Duration
}

func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
		keepalive:    30 * time.Second,
	}
}

// parseListFilter reads the listing query string. Malformed paging is
// reported instead of falling back to defaults.
func parseListFilter(r *http.Request) (notification.ListFilter, error) {
	q := r.URL.Query()
	filter := notification.ListFilter{
		Type:        notification.NotificationType(q.Get("type")),
		RequestKind: q.Get("request_kind"),
		RequestID:   q.Get("request_id"),
	}

	var errs validator.ValidationErrors
	positive := func(key string, into *int) {
		raw := q.Get(key)
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			errs = append(errs, validator.ValidationError{Field: key, Message: key + " must be a positive integer"})
			return
		}
		*into = v
	}
	positive("page", &filter.Page)
	positive("page_size", &filter.PageSize)

	if raw := q.Get("unread_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "unread_only", Message: "unread_only must be true or false"})
		}
		filter.UnreadOnly = v
	}

	if len(errs) > 0 {
		return filter, errs
	}
	return filter, filter.Validate()
}

// List returns one page of the caller's notifications. request_kind and
// request_id narrow it to a single leave request or timesheet.
func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.notifService.GetNotifications(r.Context(), userID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, response.NewMeta(result.Page, result.PageSize, int64(result.Total)))
}

func (h *notificationHandlerImpl) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	count, err := h.notifService.GetUnreadCount(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, notification.UnreadCountResponse{UnreadCount: count})
}

// MarkAsRead accepts either notification_ids or a request_kind/request_id
// pair naming the request whose notifications were seen.
func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req notification.MarkAsReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.notifService.MarkAsRead(r.Context(), userID, req); err != nil {
		response.HandleError(w, err)
		return
	}

	msg := "Notifications marked as read"
	if req.ByRequest() {
		msg = fmt.Sprintf("Notifications for %s %s marked as read", req.RequestKind, req.RequestID)
	}
	response.SuccessWithMessage(w, msg, nil)
}

func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.notifService.MarkAllAsRead(r.Context(), userID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "All notifications marked as read", nil)
}

func (h *notificationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	notifID, ok := idParam(w, r, notification.ErrNotificationNotFound)
	if !ok {
		return
	}

	if err := h.notifService.Delete(r.Context(), userID, notifID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Notification deleted", nil)
}

// GetSSEToken issues the short-lived token the stream endpoint accepts
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, notification.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// streamHello opens every stream so clients can set their unread badge
// before the first push arrives
type streamHello struct {
	Status      string `json:"status"`
	UserID      string `json:"user_id"`
	UnreadCount int    `json:"unread_count"`
}

// Stream pushes approval notifications to the caller as server-sent
// events. EventSource cannot send headers, so the SSE token travels in the
// query string.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}
	userID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	unread, err := h.notifService.GetUnreadCount(r.Context(), userID)
	if err != nil {
		slog.Warn("Unread count unavailable for stream", "user_id", userID, "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.notifService.Subscribe(r.Context(), userID)
	defer cleanup()

	send := func(event string, payload interface{}) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("SSE payload encode failed", "event", event, "error", err)
			return true
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send("connected", streamHello{Status: "connected", UserID: userID, UnreadCount: unread}) {
		return
	}

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !send(event.Event, event.Data) {
				return
			}
		case now := <-keepalive.C:
			if !send("ping", map[string]int64{"timestamp": now.Unix()}) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
