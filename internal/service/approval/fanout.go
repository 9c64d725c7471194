package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/tracing"
)

type DispatcherConfig struct {
	Workers      int
	QueueSize    int
	EmailEnabled bool
	// LinkBase prefixes request links in e-mails, e.g. https://hr.example.com
	LinkBase       string
	HandlerTimeout time.Duration
}

// Notice is one message for one recipient
type Notice struct {
	Recipient directory.User
	Type      notification.NotificationType
	Title     string
	Message   string
}

// Dispatcher consumes approval events and turns them into notifications.
// Delivery is best-effort: every failure is logged and dropped.
type Dispatcher struct {
	resolver *Resolver
	users    directory.Repository
	notifier notification.Service
	mailer   email.EmailService
	cfg      DispatcherConfig
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	events chan approval.Event
	wg     sync.WaitGroup
}

func NewDispatcher(resolver *Resolver, users directory.Repository, notifier notification.Service, mailer email.EmailService, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		resolver: resolver,
		users:    users,
		notifier: notifier,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger.With("component", "fanout"),
		events:   make(chan approval.Event, cfg.QueueSize),
	}
}

// Start launches the worker goroutines
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("Fan-out dispatcher started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for ev := range d.events {
		d.handleDetached(ev)
	}
	d.logger.Debug("Fan-out worker exiting", "worker", id)
}

func (d *Dispatcher) handleDetached(ev approval.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.HandlerTimeout)
	defer cancel()
	if err := d.Handle(ctx, ev); err != nil {
		d.logger.Error("Fan-out failed", "event", ev.Type, "kind", ev.Kind, "request_id", ev.RequestID, "error", err)
	}
}

// Publish enqueues ev without blocking. A full queue falls back to a fresh
// goroutine; after Stop the event is handled inline.
func (d *Dispatcher) Publish(_ context.Context, ev approval.Event) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.handleDetached(ev)
		return
	}
	defer d.mu.RUnlock()

	select {
	case d.events <- ev:
		return
	default:
		d.logger.Warn("Fan-out queue full, handling event directly", "event", ev.Type, "request_id", ev.RequestID)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.handleDetached(ev)
	}()
}

// Stop drains queued events and waits for in-flight handlers
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Fan-out dispatcher stopped")
}

// Handle plans and delivers the notices of one event
func (d *Dispatcher) Handle(ctx context.Context, ev approval.Event) (err error) {
	ctx, span := tracing.Start(ctx, "approval.fanout",
		attribute.String("event", string(ev.Type)),
		attribute.String("request.kind", string(ev.Kind)),
		attribute.String("request.id", ev.RequestID),
	)
	defer func() { tracing.End(span, err) }()

	notices, err := d.Plan(ctx, ev)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("recipients", len(notices)))
	d.deliver(ctx, ev, notices)
	return nil
}

// Plan works out who hears about ev and what they are told
func (d *Dispatcher) Plan(ctx context.Context, ev approval.Event) ([]Notice, error) {
	policy, err := approval.PolicyFor(ev.Kind)
	if err != nil {
		return nil, err
	}

	requester, err := d.users.GetByID(ctx, ev.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("load requester: %w", err)
	}

	label := kindLabel(ev.Kind)
	var notices []Notice

	switch ev.Type {
	case approval.EventSubmitted:
		role, approvers, err := d.resolver.FirstApprovers(ctx, policy, requester)
		if err != nil {
			return nil, err
		}
		for _, u := range approvers {
			notices = append(notices, Notice{
				Recipient: u,
				Type:      notification.TypeApprovalRequired,
				Title:     fmt.Sprintf("%s request awaiting your approval", label),
				Message:   fmt.Sprintf("%s submitted a %s request awaiting your approval as %s.", requester.Name, strings.ToLower(label), role),
			})
		}

	case approval.EventRoleApproved:
		if ev.Entry == nil {
			return nil, errors.New("role approved event without entry")
		}
		notices = append(notices, Notice{
			Recipient: requester,
			Type:      notification.TypeStepApproved,
			Title:     fmt.Sprintf("%s request approved by %s", label, ev.Entry.ApproverRole),
			Message:   fmt.Sprintf("Your %s request was approved by %s (%s).", strings.ToLower(label), ev.Entry.ApproverRole, ev.Entry.ApproverName),
		})

		actor, err := d.users.GetByID(ctx, ev.Entry.ApproverID)
		if err != nil {
			return nil, fmt.Errorf("load acting approver: %w", err)
		}
		// the ledger role wins over whatever the directory says now
		actor.Role = ev.Entry.ApproverRole
		next, approvers, ok, err := d.resolver.NextApprovers(ctx, policy, actor, requester)
		if err != nil {
			d.logger.Error("Next approver resolution failed", "request_id", ev.RequestID, "error", err)
		}
		if ok {
			for _, u := range approvers {
				notices = append(notices, Notice{
					Recipient: u,
					Type:      notification.TypeApprovalRequired,
					Title:     fmt.Sprintf("%s request awaiting your approval", label),
					Message:   fmt.Sprintf("%s's %s request was approved by %s and is awaiting your approval as %s.", requester.Name, strings.ToLower(label), ev.Entry.ApproverRole, next),
				})
			}
		}

	case approval.EventFullyApproved:
		notices = append(notices, Notice{
			Recipient: requester,
			Type:      notification.TypeFullyApproved,
			Title:     fmt.Sprintf("%s request fully approved", label),
			Message:   fmt.Sprintf("Your %s request has been fully approved.", strings.ToLower(label)),
		})
		participants, err := d.participants(ctx, ev.Ledger, "")
		if err != nil {
			return nil, err
		}
		for _, u := range participants {
			notices = append(notices, Notice{
				Recipient: u,
				Type:      notification.TypeFullyApproved,
				Title:     fmt.Sprintf("%s request fully approved", label),
				Message:   fmt.Sprintf("%s's %s request you acted on has been fully approved.", requester.Name, strings.ToLower(label)),
			})
		}

	case approval.EventRejected:
		if ev.Entry == nil {
			return nil, errors.New("rejected event without entry")
		}
		reason := ""
		if ev.Entry.Reason != nil {
			reason = *ev.Entry.Reason
		}
		notices = append(notices, Notice{
			Recipient: requester,
			Type:      notification.TypeRejected,
			Title:     fmt.Sprintf("%s request denied", label),
			Message:   fmt.Sprintf("Your %s request was denied by %s (%s). Reason: %s", strings.ToLower(label), ev.Entry.ApproverName, ev.Entry.ApproverRole, reason),
		})
		participants, err := d.participants(ctx, ev.Ledger, ev.Entry.ApproverID)
		if err != nil {
			return nil, err
		}
		for _, u := range participants {
			notices = append(notices, Notice{
				Recipient: u,
				Type:      notification.TypeRejected,
				Title:     fmt.Sprintf("%s request denied", label),
				Message:   fmt.Sprintf("%s's %s request was denied by %s (%s).", requester.Name, strings.ToLower(label), ev.Entry.ApproverName, ev.Entry.ApproverRole),
			})
		}

	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}

	return dedupNotices(notices), nil
}

// participants loads every distinct approver in ledger except skipID
func (d *Dispatcher) participants(ctx context.Context, ledger []approval.Entry, skipID string) ([]directory.User, error) {
	seen := make(map[string]struct{}, len(ledger))
	ids := make([]string, 0, len(ledger))
	for _, e := range ledger {
		if e.ApproverID == skipID {
			continue
		}
		if _, ok := seen[e.ApproverID]; ok {
			continue
		}
		seen[e.ApproverID] = struct{}{}
		ids = append(ids, e.ApproverID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := d.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load ledger participants: %w", err)
	}
	return users, nil
}

// dedupNotices keeps the first notice per recipient
func dedupNotices(notices []Notice) []Notice {
	seen := make(map[string]struct{}, len(notices))
	out := notices[:0]
	for _, n := range notices {
		if _, ok := seen[n.Recipient.ID]; ok {
			continue
		}
		seen[n.Recipient.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, ev approval.Event, notices []Notice) {
	status := ev.Status
	for _, n := range notices {
		req := notification.CreateNotificationRequest{
			RecipientID: n.Recipient.ID,
			Type:        n.Type,
			Title:       n.Title,
			Message:     n.Message,
			RequestKind: string(ev.Kind),
			RequestID:   ev.RequestID,
			Data: map[string]interface{}{
				"status": status,
				"event":  string(ev.Type),
			},
		}
		if ev.Entry != nil {
			sender := ev.Entry.ApproverID
			req.SenderID = &sender
		}
		if err := d.notifier.QueueNotification(ctx, req); err != nil {
			d.logger.Error("Failed to queue notification",
				"recipient_id", n.Recipient.ID, "request_id", ev.RequestID, "type", n.Type, "error", err)
		}

		if !d.cfg.EmailEnabled || d.mailer == nil || n.Recipient.Email == "" {
			continue
		}
		notice := email.ApprovalNotice{
			RecipientName: n.Recipient.Name,
			Subject:       n.Title,
			Headline:      n.Title,
			Message:       n.Message,
			RequestKind:   kindLabel(ev.Kind),
			RequestID:     ev.RequestID,
			Status:        status,
			Link:          requestLink(d.cfg.LinkBase, ev.Kind, ev.RequestID),
		}
		if err := d.mailer.SendApprovalNotice(n.Recipient.Email, notice); err != nil {
			d.logger.Error("Failed to send approval email",
				"recipient_id", n.Recipient.ID, "request_id", ev.RequestID, "error", err)
		}
	}
}

func kindLabel(kind approval.RequestKind) string {
	switch kind {
	case approval.KindLeave:
		return "Leave"
	case approval.KindTimesheet:
		return "Timesheet"
	}
	return string(kind)
}

func requestLink(base string, kind approval.RequestKind, id string) string {
	if base == "" {
		return ""
	}
	path := "leaves"
	if kind == approval.KindTimesheet {
		path = "timesheets"
	}
	return strings.TrimRight(base, "/") + "/" + path + "/" + id
}
