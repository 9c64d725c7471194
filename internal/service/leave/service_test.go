package leave

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/routing"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-approval-go/internal/repository/memory"
	approvalsvc "github.com/cmlabs-hris/hris-approval-go/internal/service/approval"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []approval.Event
}

func (p *capturePublisher) Publish(ctx context.Context, ev approval.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

var (
	staff    = directory.User{ID: "u-staff", Name: "Wanjiru Njeri", Role: directory.RoleStaff, Location: "Kisumu", ReportsTo: "Otieno Ouma"}
	peer     = directory.User{ID: "u-peer", Name: "Juma Said", Role: directory.RoleStaff, Location: "Kisumu", ReportsTo: "Otieno Ouma"}
	incharge = directory.User{ID: "u-incharge", Name: "Otieno Ouma", Role: directory.RoleIncharge, Location: "Kisumu", ReportsTo: "Achieng Odhiambo"}
	po       = directory.User{ID: "u-po", Name: "Achieng Odhiambo", Role: directory.RolePO, Location: "Kisumu"}

	otherIncharge = directory.User{ID: "u-incharge-2", Name: "Mutua Kilonzo", Role: directory.RoleIncharge, Location: "Nairobi", ReportsTo: "Achieng Odhiambo"}
	hr            = directory.User{ID: "u-hr", Name: "Nekesa Wafula", Role: directory.RoleHR, Location: "Kisumu"}
	hrMombasa     = directory.User{ID: "u-hr-2", Name: "Halima Omar", Role: directory.RoleHR, Location: "Mombasa"}
)

func newTestService(t *testing.T) (leave.LeaveService, *capturePublisher) {
	t.Helper()
	store := memory.NewStore()
	for _, u := range []directory.User{staff, peer, incharge, po, otherIncharge, hr, hrMombasa} {
		store.PutUser(u)
	}
	users := memory.NewUserRepository(store)
	publisher := &capturePublisher{}
	engine := approvalsvc.NewEngine(approvalsvc.EngineDeps{
		Requests:  memory.NewRequestRepository(store),
		Ledger:    memory.NewLedgerRepository(store),
		Users:     users,
		Tx:        memory.NewTxManager(),
		Publisher: publisher,
		Routes:    routing.NewTable(nil),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	svc := NewLeaveService(memory.NewLeaveRequestRepository(store), users, engine)
	svc.(*LeaveServiceImpl).now = func() time.Time { return time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC) }
	return svc, publisher
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestService(t)

	resp, err := svc.Submit(ctx, staff.ID, leave.SubmitLeaveRequest{
		LeaveType: "annual",
		StartDate: "2026-03-05",
		EndDate:   "2026-03-10",
		Reason:    "family visit",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pending", resp.Status)
	assert.Equal(t, 4, resp.TotalDays)
	assert.Empty(t, resp.Approvers)
	require.NotNil(t, resp.RequesterName)
	assert.Equal(t, staff.Name, *resp.RequesterName)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, approval.EventSubmitted, publisher.events[0].Type)
	assert.Equal(t, resp.ID, publisher.events[0].RequestID)
}

func TestLeaveService_SubmitRejected(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestService(t)

	_, err := svc.Submit(ctx, staff.ID, leave.SubmitLeaveRequest{LeaveType: "sabbatical", StartDate: "2026-03-10", EndDate: "2026-03-05"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)

	_, err = svc.Submit(ctx, staff.ID, leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2026-03-07", EndDate: "2026-03-08", Reason: "weekend"})
	assert.ErrorIs(t, err, leave.ErrNoWorkingDays)

	_, err = svc.Submit(ctx, "ghost", leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2026-03-05", EndDate: "2026-03-05", Reason: "x"})
	assert.ErrorIs(t, err, directory.ErrUserNotFound)

	assert.Empty(t, publisher.events)
}

func TestLeaveService_ApproveDenyAndFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Submit(ctx, staff.ID, leave.SubmitLeaveRequest{LeaveType: "sick", StartDate: "2026-03-02", EndDate: "2026-03-03", Reason: "flu"})
	require.NoError(t, err)

	res, err := svc.Approve(ctx, created.ID, incharge.ID)
	require.NoError(t, err)
	assert.Equal(t, "Approved by: INCHARGE", res.Status)

	res, err = svc.Deny(ctx, created.ID, po.ID, "no cover")
	require.NoError(t, err)
	assert.Equal(t, "Denied by: Achieng Odhiambo for: [no cover]", res.Status)
	require.Len(t, res.Approvers, 2)

	flow, err := svc.GetApprovalFlow(ctx, created.ID, staff.ID)
	require.NoError(t, err)
	require.Len(t, flow, 2)
	assert.Equal(t, directory.RoleIncharge, flow[0].ApproverRole)
	assert.Equal(t, approval.EntryDenied, flow[1].Status)
	require.NotNil(t, flow[1].Reason)
	assert.Equal(t, "no cover", *flow[1].Reason)

	got, err := svc.GetByID(ctx, created.ID, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Status, got.Status)
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Submit(ctx, staff.ID, leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2026-03-02", EndDate: "2026-03-02", Reason: "errand"})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, created.ID, peer.ID)
	assert.ErrorIs(t, err, leave.ErrForbidden)

	_, err = svc.GetByID(ctx, created.ID, incharge.ID)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, "missing", staff.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
}

func TestLeaveService_ListForRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a, err := svc.Submit(ctx, staff.ID, leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2026-03-02", EndDate: "2026-03-02", Reason: "a"})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, peer.ID, leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2026-03-03", EndDate: "2026-03-03", Reason: "b"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, b.ID, incharge.ID)
	require.NoError(t, err)

	mine, err := svc.ListForRole(ctx, staff.ID)
	require.NoError(t, err)
	require.Len(t, mine.Pending, 1)
	assert.Equal(t, a.ID, mine.Pending[0].ID)
	assert.Empty(t, mine.AwaitingNextApprover)
	assert.NotNil(t, mine.FullyApproved)

	team, err := svc.ListForRole(ctx, incharge.ID)
	require.NoError(t, err)
	assert.Len(t, team.Pending, 1)
	require.Len(t, team.AwaitingNextApprover, 1)
	assert.Equal(t, b.ID, team.AwaitingNextApprover[0].ID)

	poView, err := svc.ListForRole(ctx, po.ID)
	require.NoError(t, err)
	assert.Empty(t, poView.Pending)
	assert.Len(t, poView.AwaitingNextApprover, 1)
}

func TestLeaveService_ReadsFollowCallerScope(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	denied, err := svc.Submit(ctx, staff.ID, leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2026-03-02", EndDate: "2026-03-02", Reason: "errand"})
	require.NoError(t, err)
	_, err = svc.Deny(ctx, denied.ID, incharge.ID, "confidential reason")
	require.NoError(t, err)

	t.Run("another staff member sees neither the request nor its ledger", func(t *testing.T) {
		_, err := svc.GetByID(ctx, denied.ID, peer.ID)
		assert.ErrorIs(t, err, leave.ErrForbidden)

		flow, err := svc.GetApprovalFlow(ctx, denied.ID, peer.ID)
		assert.ErrorIs(t, err, leave.ErrForbidden)
		assert.Nil(t, flow)
	})

	t.Run("incharge of another team", func(t *testing.T) {
		_, err := svc.GetByID(ctx, denied.ID, otherIncharge.ID)
		assert.ErrorIs(t, err, leave.ErrForbidden)
		_, err = svc.GetApprovalFlow(ctx, denied.ID, otherIncharge.ID)
		assert.ErrorIs(t, err, leave.ErrForbidden)
	})

	t.Run("HR outside the requester's location group", func(t *testing.T) {
		_, err := svc.GetApprovalFlow(ctx, denied.ID, hrMombasa.ID)
		assert.ErrorIs(t, err, leave.ErrForbidden)
	})

	t.Run("unknown caller", func(t *testing.T) {
		_, err := svc.GetByID(ctx, denied.ID, "u-ghost")
		assert.ErrorIs(t, err, leave.ErrForbidden)
	})

	t.Run("requester, acting approver and local HR", func(t *testing.T) {
		for _, caller := range []directory.User{staff, incharge, hr} {
			flow, err := svc.GetApprovalFlow(ctx, denied.ID, caller.ID)
			require.NoError(t, err, caller.Name)
			require.Len(t, flow, 1)
			require.NotNil(t, flow[0].Reason)
			assert.Equal(t, "confidential reason", *flow[0].Reason)

			_, err = svc.GetByID(ctx, denied.ID, caller.ID)
			assert.NoError(t, err, caller.Name)
		}
	})

	t.Run("PO once the incharge has approved", func(t *testing.T) {
		open, err := svc.Submit(ctx, peer.ID, leave.SubmitLeaveRequest{LeaveType: "annual", StartDate: "2026-03-04", EndDate: "2026-03-04", Reason: "errand"})
		require.NoError(t, err)

		_, err = svc.GetByID(ctx, open.ID, po.ID)
		assert.ErrorIs(t, err, leave.ErrForbidden)

		_, err = svc.Approve(ctx, open.ID, incharge.ID)
		require.NoError(t, err)

		_, err = svc.GetByID(ctx, open.ID, po.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := svc.GetApprovalFlow(ctx, "missing", staff.ID)
		assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
	})
}
