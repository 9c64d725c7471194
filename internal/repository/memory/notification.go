package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
)

type notificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) notification.Repository {
	return &notificationRepository{store: store}
}

func clone(n *notification.Notification) *notification.Notification {
	c := *n
	return &c
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.store.notifications = append(r.store.notifications, clone(n))
	return nil
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, n := range notifications {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		r.store.notifications = append(r.store.notifications, clone(n))
	}
	return nil
}

func matches(n *notification.Notification, userID string, f notification.ListFilter) bool {
	switch {
	case n.RecipientID != userID:
		return false
	case f.UnreadOnly && n.IsRead:
		return false
	case f.Type != "" && n.Type != f.Type:
		return false
	case f.RequestKind != "" && n.RequestKind != f.RequestKind:
		return false
	case f.RequestID != "" && n.RequestID != f.RequestID:
		return false
	}
	return true
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, filter notification.ListFilter) ([]*notification.Notification, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*notification.Notification
	for _, n := range r.store.notifications {
		if matches(n, userID, filter) {
			matched = append(matched, clone(n))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	page, pageSize := filter.Page, filter.PageSize
	start := (page - 1) * pageSize
	if start >= total {
		return []*notification.Notification{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, n := range r.store.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	now := time.Now()
	for _, n := range r.store.notifications {
		if _, ok := want[n.ID]; ok && n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *notificationRepository) MarkRequestAsRead(ctx context.Context, userID, requestKind, requestID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var changed int64
	now := time.Now()
	for _, n := range r.store.notifications {
		if n.RecipientID == userID && n.RequestKind == requestKind && n.RequestID == requestID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			changed++
		}
	}
	return changed, nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	for _, n := range r.store.notifications {
		if n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, n := range r.store.notifications {
		if n.ID == id && n.RecipientID == userID {
			r.store.notifications = append(r.store.notifications[:i], r.store.notifications[i+1:]...)
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.notifications[:0]
	var removed int64
	for _, n := range r.store.notifications {
		if n.IsRead && n.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	r.store.notifications = kept
	return removed, nil
}
