package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeApprovalRequired NotificationType = "approval_required"
	TypeStepApproved     NotificationType = "request_step_approved"
	TypeFullyApproved    NotificationType = "request_fully_approved"
	TypeRejected         NotificationType = "request_rejected"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeApprovalRequired,
		TypeStepApproved,
		TypeFullyApproved,
		TypeRejected,
	}
}

// IsValid reports whether t is a known notification type
func (t NotificationType) IsValid() bool {
	for _, known := range AllNotificationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	RequestKind string
	RequestID   string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
