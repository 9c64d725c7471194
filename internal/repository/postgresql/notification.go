package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, recipient_id, sender_id, type, title, message, request_kind, request_id, data, is_read, read_at, created_at`

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func notificationArgs(n *notification.Notification) ([]interface{}, error) {
	if n.ID == "" {
		n.ID = uuid.Must(uuid.NewV7()).String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var dataJSON []byte
	if n.Data != nil {
		var err error
		if dataJSON, err = json.Marshal(n.Data); err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
	}

	return []interface{}{
		n.ID,
		n.RecipientID,
		n.SenderID,
		string(n.Type),
		n.Title,
		n.Message,
		nullIfEmpty(n.RequestKind),
		nullIfEmpty(n.RequestID),
		dataJSON,
		n.IsRead,
		n.ReadAt,
		n.CreatedAt,
	}, nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n           notification.Notification
		notifType   string
		requestKind *string
		requestID   *string
		dataJSON    []byte
	)
	if err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.SenderID,
		&notifType,
		&n.Title,
		&n.Message,
		&requestKind,
		&requestID,
		&dataJSON,
		&n.IsRead,
		&n.ReadAt,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}

	n.Type = notification.NotificationType(notifType)
	if requestKind != nil {
		n.RequestKind = *requestKind
	}
	if requestID != nil {
		n.RequestID = *requestID
	}
	if dataJSON != nil {
		if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	q := GetQuerier(ctx, r.db)

	args, err := notificationArgs(n)
	if err != nil {
		return err
	}

	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateBatch creates multiple notifications with a single multi-row insert
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	const cols = 12
	valueStrings := make([]string, 0, len(notifications))
	valueArgs := make([]interface{}, 0, len(notifications)*cols)

	for i, n := range notifications {
		args, err := notificationArgs(n)
		if err != nil {
			return err
		}

		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		valueArgs = append(valueArgs, args...)
	}

	query := fmt.Sprintf(`INSERT INTO notifications (%s) VALUES %s`, notificationColumns, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}
	return nil
}

// notificationFilter builds the WHERE clause and arguments for a listing
func notificationFilter(userID string, f notification.ListFilter) (string, []interface{}) {
	conds := []string{"recipient_id = $1"}
	args := []interface{}{userID}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UnreadOnly {
		conds = append(conds, "is_read = false")
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.RequestKind != "" {
		add("request_kind = $%d", f.RequestKind)
	}
	if f.RequestID != "" {
		add("request_id = $%d", f.RequestID)
	}
	return strings.Join(conds, " AND "), args
}

// GetByUserID retrieves one filtered page of a user's notifications
func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, filter notification.ListFilter) ([]*notification.Notification, int, error) {
	if !isUUID(userID) || (filter.RequestID != "" && !isUUID(filter.RequestID)) {
		return []*notification.Notification{}, 0, nil
	}
	q := GetQuerier(ctx, r.db)

	whereClause, args := notificationFilter(userID, filter)

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, notificationColumns, whereClause, len(args)+1, len(args)+2)

	rows, err := q.Query(ctx, query, append(args, filter.PageSize, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, total, rows.Err()
}

// GetUnreadCount returns the count of unread notifications for a user
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`
	var count int
	if err := q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAsRead marks specific notifications as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	valid := ids[:0:0]
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	ids = valid

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND id = ANY($3::uuid[]) AND is_read = false
	`
	if _, err := q.Exec(ctx, query, time.Now(), userID, ids); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	return nil
}

// MarkRequestAsRead marks a user's notifications about one request as read
func (r *notificationRepository) MarkRequestAsRead(ctx context.Context, userID, requestKind, requestID string) (int64, error) {
	if !isUUID(requestID) {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND request_kind = $3 AND request_id = $4 AND is_read = false
	`
	tag, err := q.Exec(ctx, query, time.Now(), userID, requestKind, requestID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark request notifications as read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkAllAsRead marks all notifications as read for a user
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND is_read = false
	`

	if _, err := q.Exec(ctx, query, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return nil
}

// Delete deletes a notification
func (r *notificationRepository) Delete(ctx context.Context, id string, userID string) error {
	if !isUUID(id) {
		return notification.ErrNotificationNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`
	result, err := q.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if result.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}

	return nil
}

// DeleteReadBefore removes read notifications created before the cutoff
func (r *notificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	result, err := q.Exec(ctx, `DELETE FROM notifications WHERE is_read = true AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge read notifications: %w", err)
	}
	return result.RowsAffected(), nil
}
