package approval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

func entry(role directory.Role, name string, status EntryStatus, at time.Time, reason string) Entry {
	e := Entry{
		ID:           name + "-" + string(role),
		RequestKind:  KindLeave,
		RequestID:    "req-1",
		ApproverID:   name,
		ApproverRole: role,
		ApproverName: name,
		Status:       status,
		CreatedAt:    at,
	}
	if reason != "" {
		e.Reason = &reason
	}
	return e
}

func TestDeriveStatus(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	at := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Minute) }

	tests := []struct {
		name    string
		entries []Entry
		want    Status
	}{
		{"empty ledger", nil, Pending()},
		{
			"one approval",
			[]Entry{entry(directory.RoleIncharge, "Otieno", EntryApproved, at(0), "")},
			InProgress(directory.RoleIncharge),
		},
		{
			"latest approval wins regardless of slice order",
			[]Entry{
				entry(directory.RolePO, "Achieng", EntryApproved, at(1), ""),
				entry(directory.RoleIncharge, "Otieno", EntryApproved, at(0), ""),
			},
			InProgress(directory.RolePO),
		},
		{
			"every role approved",
			[]Entry{
				entry(directory.RoleIncharge, "Otieno", EntryApproved, at(0), ""),
				entry(directory.RolePO, "Achieng", EntryApproved, at(1), ""),
				entry(directory.RoleHR, "Nekesa", EntryApproved, at(2), ""),
				entry(directory.RolePADM, "Amina", EntryApproved, at(3), ""),
			},
			FullyApproved(),
		},
		{
			"first denial wins",
			[]Entry{
				entry(directory.RoleIncharge, "Otieno", EntryApproved, at(0), ""),
				entry(directory.RolePO, "Achieng", EntryDenied, at(1), "budget"),
				entry(directory.RoleHR, "Nekesa", EntryDenied, at(2), "late"),
			},
			Rejected("Achieng", "budget"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.entries, LeavePolicy))
		})
	}
}

func TestRenderAndParse(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		status Status
		want   string
	}{
		{"leave pending", LeavePolicy, Pending(), "Pending"},
		{"timesheet ready", TimesheetPolicy, Pending(), "Ready"},
		{"in progress", LeavePolicy, InProgress(directory.RoleHR), "Approved by: HR"},
		{"fully approved", TimesheetPolicy, FullyApproved(), "Fully Approved"},
		{"denied", LeavePolicy, Rejected("Nekesa Wafula", "insufficient notice"), "Denied by: Nekesa Wafula for: [insufficient notice]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered := tt.policy.Render(tt.status)
			assert.Equal(t, tt.want, rendered)

			parsed, err := tt.policy.Parse(rendered)
			require.NoError(t, err)
			assert.Equal(t, tt.status, parsed)
		})
	}
}

func TestParse_LegacyAndInvalid(t *testing.T) {
	got, err := TimesheetPolicy.Parse("Rejected by: Old Admin for: [missing entries]")
	require.NoError(t, err)
	assert.Equal(t, Rejected("Old Admin", "missing entries"), got)

	_, err = LeavePolicy.Parse("Rejected by: Old Admin for: [missing entries]")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, err = LeavePolicy.Parse("Denied by: A for: [reason with ] bracket]")
	require.NoError(t, err)
	assert.Equal(t, "reason with ] bracket", got.Reason)

	for _, raw := range []string{"", "Ready", "Approved by: CEO", "Denied by: nobody", "approved"} {
		_, err := LeavePolicy.Parse(raw)
		assert.True(t, errors.Is(err, ErrInvalidStatus), "expected %q to be rejected", raw)
	}
}

func TestProjectApprovers(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	entries := []Entry{
		entry(directory.RolePO, "Achieng", EntryDenied, t0.Add(time.Minute), "budget"),
		entry(directory.RoleIncharge, "Otieno", EntryApproved, t0, ""),
	}

	got := ProjectApprovers(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "Otieno", got[0].Name)
	assert.Equal(t, EntryApproved, got[0].Status)
	assert.Equal(t, directory.RolePO, got[1].Role)
	assert.Equal(t, EntryDenied, got[1].Status)

	assert.Empty(t, ProjectApprovers(nil))
	assert.NotNil(t, ProjectApprovers(nil))
}

func TestPolicyNavigation(t *testing.T) {
	next, ok := LeavePolicy.Next(directory.RoleIncharge)
	assert.True(t, ok)
	assert.Equal(t, directory.RolePO, next)

	_, ok = LeavePolicy.Next(directory.RolePADM)
	assert.False(t, ok)

	prev, ok := TimesheetPolicy.Previous(directory.RolePADM)
	assert.True(t, ok)
	assert.Equal(t, directory.RoleHR, prev)

	_, ok = TimesheetPolicy.Previous(directory.RoleIncharge)
	assert.False(t, ok)

	assert.False(t, LeavePolicy.Contains(directory.RoleStaff))
	assert.Equal(t, directory.RoleIncharge, LeavePolicy.First())

	_, err := PolicyFor("expense")
	assert.ErrorIs(t, err, ErrUnknownRequestKind)
}

func TestOutOfOrderError(t *testing.T) {
	var err error = &OutOfOrderError{ActingRole: directory.RoleHR, PendingRole: directory.RolePO}
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Contains(t, err.Error(), "waiting on PO")
}

func TestRecordActionRequestValidate(t *testing.T) {
	req := RecordActionRequest{Kind: "expense", Action: "escalate"}
	err := req.Validate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingReason)

	req = RecordActionRequest{Kind: KindLeave, RequestID: "r", ApproverID: "u", Action: ActionDeny, Reason: " \t"}
	assert.ErrorIs(t, req.Validate(), ErrMissingReason)

	req.Reason = "late"
	assert.NoError(t, req.Validate())
}
