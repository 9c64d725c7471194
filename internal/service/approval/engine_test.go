package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
)

func TestRecordAction_KisumuScenario(t *testing.T) {
	f := newFixture(t)
	p := f.p
	id := f.submitLeave(t, p.staff)

	res := f.approve(t, id, p.incharge)
	assert.Equal(t, "Approved by: INCHARGE", res.Status)
	sent := f.notifier.take()
	assert.Equal(t, []string{p.po.ID}, recipients(sent, notification.TypeApprovalRequired))
	assert.Equal(t, []string{p.staff.ID}, recipients(sent, notification.TypeStepApproved))

	res = f.approve(t, id, p.po)
	assert.Equal(t, "Approved by: PO", res.Status)
	sent = f.notifier.take()
	assert.ElementsMatch(t,
		[]string{p.hrKisumu.ID, p.hrKakamega.ID, p.hrVihiga.ID},
		recipients(sent, notification.TypeApprovalRequired))
	assert.NotContains(t, recipients(sent, ""), p.hrNairobi.ID)

	res = f.approve(t, id, p.hrKisumu)
	assert.Equal(t, "Approved by: HR", res.Status)
	sent = f.notifier.take()
	assert.ElementsMatch(t, []string{p.padm.ID, p.padm2.ID}, recipients(sent, notification.TypeApprovalRequired))

	res = f.approve(t, id, p.padm)
	assert.Equal(t, approval.LabelFullyApproved, res.Status)
	sent = f.notifier.take()
	assert.ElementsMatch(t,
		[]string{p.staff.ID, p.incharge.ID, p.po.ID, p.hrKisumu.ID, p.padm.ID},
		recipients(sent, notification.TypeFullyApproved))
	assert.Len(t, sent, 5)

	assert.Equal(t, approval.LabelFullyApproved, f.status(t, id))

	flow, err := f.engine.ApprovalFlow(context.Background(), approval.KindLeave, id)
	require.NoError(t, err)
	require.Len(t, flow, 4)
	roles := make([]directory.Role, 0, len(flow))
	for i, e := range flow {
		roles = append(roles, e.ApproverRole)
		if i > 0 {
			assert.True(t, e.CreatedAt.After(flow[i-1].CreatedAt), "ledger timestamps must increase")
		}
	}
	assert.Equal(t, []directory.Role{directory.RoleIncharge, directory.RolePO, directory.RoleHR, directory.RolePADM}, roles)

	req, err := f.requests.GetByID(context.Background(), approval.KindLeave, id)
	require.NoError(t, err)
	assert.Equal(t, approval.ProjectApprovers(flow), req.Approvers)
	assert.Equal(t, approval.LeavePolicy.Render(approval.DeriveStatus(flow, approval.LeavePolicy)), req.Status)
}

func TestRecordAction_OutOfOrderLeavesLedgerUnchanged(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)

	_, err := f.act(id, f.p.po, approval.ActionApprove, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, approval.ErrOutOfOrder)

	var ooo *approval.OutOfOrderError
	require.True(t, errors.As(err, &ooo))
	assert.Equal(t, directory.RolePO, ooo.ActingRole)
	assert.Equal(t, directory.RoleIncharge, ooo.PendingRole)

	entries, err := f.ledger.ListByRequest(context.Background(), approval.KindLeave, id)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "Pending", f.status(t, id))
	assert.Empty(t, f.notifier.take())

	f.approve(t, id, f.p.incharge)
	_, err = f.act(id, f.p.hrKisumu, approval.ActionApprove, "")
	require.True(t, errors.As(err, &ooo))
	assert.Equal(t, directory.RolePO, ooo.PendingRole)
}

func TestRecordAction_HRDenialScenario(t *testing.T) {
	f := newFixture(t)
	p := f.p
	id := f.submitLeave(t, p.staff)

	f.approve(t, id, p.incharge)
	f.approve(t, id, p.po)
	f.notifier.take()

	res, err := f.act(id, p.hrKisumu, approval.ActionDeny, "insufficient notice")
	require.NoError(t, err)
	assert.Equal(t, "Denied by: Nekesa Wafula for: [insufficient notice]", res.Status)

	sent := f.notifier.take()
	assert.ElementsMatch(t, []string{p.staff.ID, p.incharge.ID, p.po.ID}, recipients(sent, notification.TypeRejected))
	assert.NotContains(t, recipients(sent, ""), p.hrKisumu.ID)

	_, err = f.act(id, p.padm, approval.ActionApprove, "")
	assert.ErrorIs(t, err, approval.ErrRequestClosed)
	assert.Equal(t, "Denied by: Nekesa Wafula for: [insufficient notice]", f.status(t, id))

	flow, err := f.engine.ApprovalFlow(context.Background(), approval.KindLeave, id)
	require.NoError(t, err)
	assert.Len(t, flow, 3)
}

func TestRecordAction_DenyThenApproveIsClosed(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)

	_, err := f.act(id, f.p.incharge, approval.ActionDeny, "overlaps with audit week")
	require.NoError(t, err)

	_, err = f.act(id, f.p.incharge, approval.ActionApprove, "")
	assert.ErrorIs(t, err, approval.ErrRequestClosed)

	_, err = f.act(id, f.p.po, approval.ActionDeny, "another reason")
	assert.ErrorIs(t, err, approval.ErrRequestClosed)
}

func TestRecordAction_FullyApprovedIsClosed(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)
	for _, u := range []directory.User{f.p.incharge, f.p.po, f.p.hrKakamega, f.p.padm2} {
		f.approve(t, id, u)
	}

	_, err := f.act(id, f.p.padm, approval.ActionApprove, "")
	assert.ErrorIs(t, err, approval.ErrRequestClosed)
	_, err = f.act(id, f.p.hrKisumu, approval.ActionDeny, "late")
	assert.ErrorIs(t, err, approval.ErrRequestClosed)
}

func TestRecordAction_Rejections(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)

	tests := []struct {
		name    string
		req     approval.RecordActionRequest
		wantErr error
	}{
		{
			name:    "deny without reason",
			req:     approval.RecordActionRequest{Kind: approval.KindLeave, RequestID: id, ApproverID: f.p.incharge.ID, Action: approval.ActionDeny, Reason: "   "},
			wantErr: approval.ErrMissingReason,
		},
		{
			name:    "unknown approver",
			req:     approval.RecordActionRequest{Kind: approval.KindLeave, RequestID: id, ApproverID: "0192f0a0-0000-7000-8000-00000000dead", Action: approval.ActionApprove},
			wantErr: approval.ErrApproverNotFound,
		},
		{
			name:    "staff cannot approve",
			req:     approval.RecordActionRequest{Kind: approval.KindLeave, RequestID: id, ApproverID: f.p.otherStaff.ID, Action: approval.ActionApprove},
			wantErr: approval.ErrInvalidApproverRole,
		},
		{
			name:    "unknown request",
			req:     approval.RecordActionRequest{Kind: approval.KindLeave, RequestID: "0192f0a0-0000-7000-8000-00000000beef", ApproverID: f.p.incharge.ID, Action: approval.ActionApprove},
			wantErr: approval.ErrRequestNotFound,
		},
		{
			name:    "wrong kind for id",
			req:     approval.RecordActionRequest{Kind: approval.KindTimesheet, RequestID: id, ApproverID: f.p.incharge.ID, Action: approval.ActionApprove},
			wantErr: approval.ErrRequestNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.RecordAction(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	entries, err := f.ledger.ListByRequest(context.Background(), approval.KindLeave, id)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordAction_DuplicateApproval(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)

	f.approve(t, id, f.p.incharge)
	_, err := f.act(id, f.p.incharge, approval.ActionApprove, "")
	assert.ErrorIs(t, err, approval.ErrAlreadyApproved)
}

func TestRecordAction_ConcurrentDuplicateApproval(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		errs      []error
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.act(id, f.p.incharge, approval.ActionApprove, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			errs = append(errs, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range errs {
		assert.ErrorIs(t, err, approval.ErrAlreadyApproved)
	}

	entries, err := f.ledger.ListByRequest(context.Background(), approval.KindLeave, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "Approved by: INCHARGE", f.status(t, id))
}

func TestRecordAction_PublishesOneEventPerTransition(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)

	f.approve(t, id, f.p.incharge)
	_, _ = f.act(id, f.p.hrKisumu, approval.ActionApprove, "")
	_, err := f.act(id, f.p.po, approval.ActionDeny, "budget freeze")
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, approval.EventRoleApproved, f.publisher.events[0].Type)
	assert.Equal(t, approval.EventRejected, f.publisher.events[1].Type)
	assert.Len(t, f.publisher.events[1].Ledger, 2)
}

func TestApprovalFlow_UnknownRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ApprovalFlow(context.Background(), approval.KindLeave, "missing")
	assert.ErrorIs(t, err, approval.ErrRequestNotFound)

	_, err = f.engine.ApprovalFlow(context.Background(), approval.RequestKind("expense"), "missing")
	assert.ErrorIs(t, err, approval.ErrUnknownRequestKind)
}

func TestNextTimestamp_StrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e := &engine{now: func() time.Time { return fixed }}

	entries := []approval.Entry{{CreatedAt: fixed}}
	assert.Equal(t, fixed.Add(time.Microsecond), e.nextTimestamp(entries))

	entries = append(entries, approval.Entry{CreatedAt: fixed.Add(time.Second)})
	assert.Equal(t, fixed.Add(time.Second+time.Microsecond), e.nextTimestamp(entries))

	assert.Equal(t, fixed, e.nextTimestamp(nil))
}

func TestAnnounceSubmission_NotifiesFirstApprovers(t *testing.T) {
	f := newFixture(t)
	id := f.submitLeave(t, f.p.staff)
	req, err := f.requests.GetByID(context.Background(), approval.KindLeave, id)
	require.NoError(t, err)

	f.engine.AnnounceSubmission(context.Background(), req)

	sent := f.notifier.take()
	assert.Equal(t, []string{f.p.incharge.ID}, recipients(sent, notification.TypeApprovalRequired))
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, approval.EventSubmitted, f.publisher.events[0].Type)
}
