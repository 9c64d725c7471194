package approval

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/routing"
	"github.com/cmlabs-hris/hris-approval-go/internal/repository/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingNotifier captures queued notifications
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.CreateNotificationRequest
}

func (n *recordingNotifier) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req)
	return nil
}

func (n *recordingNotifier) QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error {
	for _, r := range reqs {
		_ = n.QueueNotification(ctx, r)
	}
	return nil
}

func (n *recordingNotifier) GetNotifications(ctx context.Context, userID string, filter notification.ListFilter) (*notification.NotificationListResponse, error) {
	return &notification.NotificationListResponse{}, nil
}

func (n *recordingNotifier) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (n *recordingNotifier) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	return nil
}

func (n *recordingNotifier) MarkAllAsRead(ctx context.Context, userID string) error { return nil }

func (n *recordingNotifier) Delete(ctx context.Context, userID string, notificationID string) error {
	return nil
}

func (n *recordingNotifier) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (n *recordingNotifier) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	ch := make(chan notification.SSEEvent)
	return ch, func() {}
}

func (n *recordingNotifier) Stop() {}

// take returns and clears everything queued so far
func (n *recordingNotifier) take() []notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.sent
	n.sent = nil
	return out
}

func recipients(sent []notification.CreateNotificationRequest, typ notification.NotificationType) []string {
	var ids []string
	for _, s := range sent {
		if typ == "" || s.Type == typ {
			ids = append(ids, s.RecipientID)
		}
	}
	return ids
}

// syncPublisher runs the fan-out inline so tests can assert on it directly
type syncPublisher struct {
	dispatcher *Dispatcher
	mu         sync.Mutex
	events     []approval.Event
}

func (p *syncPublisher) Publish(ctx context.Context, ev approval.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	if p.dispatcher != nil {
		_ = p.dispatcher.Handle(ctx, ev)
	}
}

type people struct {
	staff, incharge, po       directory.User
	hrKisumu, hrKakamega      directory.User
	hrVihiga, hrNairobi       directory.User
	padm, padm2               directory.User
	otherStaff, otherIncharge directory.User
}

type fixture struct {
	store     *memory.Store
	users     directory.Repository
	leaves    leave.LeaveRequestRepository
	requests  approval.RequestRepository
	ledger    approval.LedgerRepository
	routes    *routing.Table
	notifier  *recordingNotifier
	publisher *syncPublisher
	engine    approval.Engine
	p         people
}

func newUser(name string, role directory.Role, location, reportsTo string) directory.User {
	return directory.User{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Role:      role,
		Title:     string(role),
		Location:  location,
		ReportsTo: reportsTo,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	p := people{
		staff:         newUser("Wanjiru Njeri", directory.RoleStaff, "Kisumu", "Otieno Ouma"),
		incharge:      newUser("Otieno Ouma", directory.RoleIncharge, "Kisumu", "Achieng Odhiambo"),
		po:            newUser("Achieng Odhiambo", directory.RolePO, "Kisumu", ""),
		hrKisumu:      newUser("Nekesa Wafula", directory.RoleHR, "Kisumu", ""),
		hrKakamega:    newUser("Mwangi Kariuki", directory.RoleHR, "Kakamega", ""),
		hrVihiga:      newUser("Hawi Adhiambo", directory.RoleHR, "Vihiga", ""),
		hrNairobi:     newUser("Kamau Njoroge", directory.RoleHR, "Nairobi", ""),
		padm:          newUser("Amina Hassan", directory.RolePADM, "Nairobi", ""),
		padm2:         newUser("Baraka Mutua", directory.RolePADM, "Nairobi", ""),
		otherStaff:    newUser("Juma Said", directory.RoleStaff, "Nairobi", "Wairimu Kamau"),
		otherIncharge: newUser("Wairimu Kamau", directory.RoleIncharge, "Nairobi", "Someone Else"),
	}
	for _, u := range []directory.User{
		p.staff, p.incharge, p.po, p.hrKisumu, p.hrKakamega, p.hrVihiga, p.hrNairobi,
		p.padm, p.padm2, p.otherStaff, p.otherIncharge,
	} {
		store.PutUser(u)
	}

	routes := routing.NewTable(map[string][]string{
		"Kisumu":  {"Kakamega", "Vihiga"},
		"Nairobi": {"Kiambu"},
	})

	users := memory.NewUserRepository(store)
	notifier := &recordingNotifier{}
	resolver := NewResolver(users, routes, discardLogger())
	dispatcher := NewDispatcher(resolver, users, notifier, nil, DispatcherConfig{}, discardLogger())
	publisher := &syncPublisher{dispatcher: dispatcher}

	f := &fixture{
		store:     store,
		users:     users,
		leaves:    memory.NewLeaveRequestRepository(store),
		requests:  memory.NewRequestRepository(store),
		ledger:    memory.NewLedgerRepository(store),
		routes:    routes,
		notifier:  notifier,
		publisher: publisher,
		p:         p,
	}
	f.engine = NewEngine(EngineDeps{
		Requests:  f.requests,
		Ledger:    f.ledger,
		Users:     users,
		Tx:        memory.NewTxManager(),
		Publisher: publisher,
		Routes:    routes,
		Logger:    discardLogger(),
	})
	return f
}

// submitLeave stores a fresh leave request for requester
func (f *fixture) submitLeave(t *testing.T, requester directory.User) string {
	t.Helper()
	now := time.Now().UTC()
	lr, err := f.leaves.Create(context.Background(), leave.LeaveRequest{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RequesterID: requester.ID,
		LeaveType:   leave.LeaveTypeAnnual,
		StartDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		TotalDays:   5,
		Reason:      "family visit",
		Status:      approval.LeavePolicy.InitialLabel,
		Approvers:   []approval.ApproverSnapshot{},
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	return lr.ID
}

func (f *fixture) approve(t *testing.T, requestID string, approver directory.User) approval.ActionResult {
	t.Helper()
	res, err := f.engine.RecordAction(context.Background(), approval.RecordActionRequest{
		Kind:       approval.KindLeave,
		RequestID:  requestID,
		ApproverID: approver.ID,
		Action:     approval.ActionApprove,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) act(requestID string, approver directory.User, action approval.Action, reason string) (approval.ActionResult, error) {
	return f.engine.RecordAction(context.Background(), approval.RecordActionRequest{
		Kind:       approval.KindLeave,
		RequestID:  requestID,
		ApproverID: approver.ID,
		Action:     action,
		Reason:     reason,
	})
}

func (f *fixture) status(t *testing.T, requestID string) string {
	t.Helper()
	req, err := f.requests.GetByID(context.Background(), approval.KindLeave, requestID)
	require.NoError(t, err)
	return req.Status
}
