package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/routing"
)

func TestScopeFor(t *testing.T) {
	routes := routing.NewTable(map[string][]string{"Kisumu": {"Kakamega"}})
	caller := func(role directory.Role, location string) directory.User {
		return directory.User{ID: "u-1", Name: "Caller", Role: role, Location: location}
	}

	tests := []struct {
		name   string
		caller directory.User
		want   approval.Scope
	}{
		{"staff sees own", caller(directory.RoleStaff, "Kisumu"), approval.Scope{RequesterID: "u-1"}},
		{"incharge sees direct reports", caller(directory.RoleIncharge, "Kisumu"), approval.Scope{RequesterReportsTo: "Caller"}},
		{"po sees through incharge", caller(directory.RolePO, "Kisumu"), approval.Scope{InchargeReportsTo: "Caller"}},
		{"hr sees location group", caller(directory.RoleHR, "Kisumu"), approval.Scope{RequesterLocations: []string{"Kisumu", "Kakamega"}}},
		{"hr in unmapped location", caller(directory.RoleHR, "Kakamega"), approval.Scope{RequesterLocations: []string{"Kakamega"}}},
		{"padm sees hr approved", caller(directory.RolePADM, "Nairobi"), approval.Scope{ApprovedRole: directory.RoleHR}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScopeFor(tt.caller, routes.Group)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ScopeFor(caller(directory.Role("AUDITOR"), ""), routes.Group)
	assert.Error(t, err)
}

func TestListForRole(t *testing.T) {
	f := newFixture(t)
	p := f.p

	r1 := f.submitLeave(t, p.staff)
	r2 := f.submitLeave(t, p.staff)
	f.approve(t, r2, p.incharge)
	r3 := f.submitLeave(t, p.staff)
	for _, u := range []directory.User{p.incharge, p.po, p.hrKisumu, p.padm} {
		f.approve(t, r3, u)
	}
	r4 := f.submitLeave(t, p.staff)
	f.approve(t, r4, p.incharge)
	_, err := f.act(r4, p.po, approval.ActionDeny, "no cover available")
	require.NoError(t, err)
	other := f.submitLeave(t, p.otherStaff)

	list := func(caller directory.User) approval.RoleListing {
		t.Helper()
		l, err := f.engine.ListForRole(context.Background(), approval.KindLeave, caller.ID)
		require.NoError(t, err)
		return l
	}

	staff := list(p.staff)
	assert.ElementsMatch(t, []string{r1, r2, r3, r4}, staff.IDs())
	require.Len(t, staff.Pending, 1)
	assert.Equal(t, r1, staff.Pending[0].ID)
	require.Len(t, staff.AwaitingNextApprover, 1)
	assert.Equal(t, r2, staff.AwaitingNextApprover[0].ID)
	require.Len(t, staff.FullyApproved, 1)
	assert.Equal(t, r3, staff.FullyApproved[0].ID)
	require.Len(t, staff.Rejected, 1)
	assert.Equal(t, r4, staff.Rejected[0].ID)

	assert.ElementsMatch(t, []string{r1, r2, r3, r4}, list(p.incharge).IDs())
	assert.ElementsMatch(t, []string{other}, list(p.otherStaff).IDs())
	assert.ElementsMatch(t, []string{other}, list(p.otherIncharge).IDs())
	assert.ElementsMatch(t, []string{r2, r3, r4}, list(p.po).IDs())
	assert.ElementsMatch(t, []string{r1, r2, r3, r4}, list(p.hrKisumu).IDs())
	assert.Empty(t, list(p.hrKakamega).IDs())
	assert.ElementsMatch(t, []string{other}, list(p.hrNairobi).IDs())
	assert.ElementsMatch(t, []string{r3}, list(p.padm).IDs())

	_, err = f.engine.ListForRole(context.Background(), approval.KindLeave, "missing")
	assert.ErrorIs(t, err, directory.ErrUserNotFound)
}

func TestPartition_SkipsUnreadableStatus(t *testing.T) {
	var warned []string
	warn := func(msg string, args ...any) { warned = append(warned, msg) }

	got := partition([]approval.Request{
		{ID: "a", Status: "Ready"},
		{ID: "b", Status: "Rejected by: Old Name for: [late]"},
		{ID: "c", Status: "Approved by: CEO"},
		{ID: "d", Status: "Approved by: PO"},
	}, approval.TimesheetPolicy, warn)

	assert.Len(t, got.Pending, 1)
	assert.Len(t, got.Rejected, 1)
	assert.Len(t, got.AwaitingNextApprover, 1)
	assert.Empty(t, got.FullyApproved)
	assert.Len(t, warned, 1)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	p := f.p
	ctx := context.Background()

	id := f.submitLeave(t, p.staff)
	for _, u := range []directory.User{p.incharge, p.po, p.hrKisumu} {
		f.approve(t, id, u)
	}

	for _, u := range []directory.User{p.staff, p.incharge, p.po, p.hrKisumu, p.hrKakamega, p.padm, p.padm2} {
		assert.NoError(t, f.engine.Authorize(ctx, approval.KindLeave, id, u.ID), u.Name)
	}
	for _, u := range []directory.User{p.otherStaff, p.otherIncharge, p.hrNairobi} {
		assert.ErrorIs(t, f.engine.Authorize(ctx, approval.KindLeave, id, u.ID), approval.ErrForbidden, u.Name)
	}

	// a fresh request is not yet visible to the PO or PADM
	fresh := f.submitLeave(t, p.staff)
	assert.ErrorIs(t, f.engine.Authorize(ctx, approval.KindLeave, fresh, p.po.ID), approval.ErrForbidden)
	assert.ErrorIs(t, f.engine.Authorize(ctx, approval.KindLeave, fresh, p.padm.ID), approval.ErrForbidden)
	assert.NoError(t, f.engine.Authorize(ctx, approval.KindLeave, fresh, p.incharge.ID))

	assert.ErrorIs(t, f.engine.Authorize(ctx, approval.KindLeave, "missing", p.staff.ID), approval.ErrRequestNotFound)
	assert.ErrorIs(t, f.engine.Authorize(ctx, approval.RequestKind("expense"), id, p.staff.ID), approval.ErrUnknownRequestKind)
}
