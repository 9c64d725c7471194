package notification

import (
	"context"
	"time"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error
	// GetByUserID returns one page of the user's notifications matching
	// filter, newest first, and the total number of matches.
	GetByUserID(ctx context.Context, userID string, filter ListFilter) ([]*Notification, int, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, ids []string, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	// MarkRequestAsRead marks every notification of userID about one
	// request as read and returns how many changed.
	MarkRequestAsRead(ctx context.Context, userID, requestKind, requestID string) (int64, error)
	Delete(ctx context.Context, id string, userID string) error
	// DeleteReadBefore removes read notifications older than before and
	// returns how many rows were removed.
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}
