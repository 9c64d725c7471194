package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 2 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	config Config
	logger *slog.Logger

	queue   chan notification.CreateNotificationRequest
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(repo notification.Repository, hub *sse.Hub, cfg Config, logger *slog.Logger) notification.Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		logger: logger.With("component", "notification"),
		queue:  make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info("Notification workers started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)

	return s
}

func newNotification(req notification.CreateNotificationRequest) *notification.Notification {
	return &notification.Notification{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		RequestKind: req.RequestKind,
		RequestID:   req.RequestID,
		Data:        req.Data,
		CreatedAt:   time.Now(),
	}
}

// worker drains the queue into batched inserts
func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, req := range batch {
			notifications[i] = newNotification(req)
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			s.logger.Error("Failed to batch insert notifications", "worker", id, "count", len(notifications), "error", err)
		} else {
			s.logger.Debug("Inserted notifications", "worker", id, "count", len(notifications))
			s.push(notifications...)
		}

		batch = batch[:0]
	}

	for {
		select {
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// drain whatever is still buffered before exiting
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *service) push(notifications ...*notification.Notification) {
	if s.hub == nil {
		return
	}
	for _, n := range notifications {
		s.hub.Publish(n.RecipientID, sse.Event{
			Event: "notification",
			Data:  notification.ToResponse(n),
		})
	}
}

// QueueNotification queues a notification for async processing
func (s *service) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if s.stopped.Load() {
		return s.directInsert(ctx, req)
	}

	select {
	case s.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.logger.Warn("Notification queue full, inserting directly", "recipient_id", req.RecipientID)
		return s.directInsert(ctx, req)
	}
}

// QueueBulkNotification queues every request, logging the ones that fail
func (s *service) QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error {
	failed := 0
	for _, req := range reqs {
		if err := s.QueueNotification(ctx, req); err != nil {
			failed++
			s.logger.Error("Failed to queue notification", "recipient_id", req.RecipientID, "type", req.Type, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d notifications could not be queued", failed, len(reqs))
	}
	return nil
}

// directInsert bypasses the queue
func (s *service) directInsert(ctx context.Context, req notification.CreateNotificationRequest) error {
	n := newNotification(req)
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	s.push(n)
	return nil
}

// GetNotifications retrieves one filtered page of a user's notifications
func (s *service) GetNotifications(ctx context.Context, userID string, filter notification.ListFilter) (*notification.NotificationListResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter.Normalize()

	notifications, total, err := s.repo.GetByUserID(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = notification.ToResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          filter.Page,
		PageSize:      filter.PageSize,
		RequestKind:   filter.RequestKind,
		RequestID:     filter.RequestID,
	}, nil
}

func (s *service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.ByRequest() {
		n, err := s.repo.MarkRequestAsRead(ctx, userID, req.RequestKind, req.RequestID)
		if err != nil {
			return fmt.Errorf("mark request notifications read: %w", err)
		}
		s.logger.Debug("Request notifications marked read",
			"user_id", userID, "request_kind", req.RequestKind, "request_id", req.RequestID, "count", n)
		return nil
	}
	return s.repo.MarkAsRead(ctx, req.NotificationIDs, userID)
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string, notificationID string) error {
	return s.repo.Delete(ctx, notificationID, userID)
}

// PurgeRead removes read notifications older than olderThan
func (s *service) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	removed, err := s.repo.DeleteReadBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("purge read notifications: %w", err)
	}
	if removed > 0 {
		s.logger.Info("Purged read notifications", "count", removed, "older_than", olderThan)
	}
	return removed, nil
}

// Subscribe creates an SSE subscription for a user
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.NotificationResponse)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop flushes queued notifications and waits for the workers to exit
func (s *service) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
		s.wg.Wait()
		s.logger.Info("Notification workers stopped")
	})
}
