package approval

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

func userIDs(users []directory.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestResolver_NextApprovers(t *testing.T) {
	f := newFixture(t)
	p := f.p
	r := NewResolver(f.users, f.routes, discardLogger())

	tests := []struct {
		name      string
		actor     directory.User
		requester directory.User
		wantRole  directory.Role
		wantIDs   []string
		wantOK    bool
	}{
		{
			name:      "incharge to po by reports-to name",
			actor:     p.incharge,
			requester: p.staff,
			wantRole:  directory.RolePO,
			wantIDs:   []string{p.po.ID},
			wantOK:    true,
		},
		{
			name:      "po to hr in the requester location group",
			actor:     p.po,
			requester: p.staff,
			wantRole:  directory.RoleHR,
			wantIDs:   []string{p.hrKisumu.ID, p.hrKakamega.ID, p.hrVihiga.ID},
			wantOK:    true,
		},
		{
			name:      "po to hr for a satellite location only covers itself",
			actor:     p.po,
			requester: newUser("Chebet Rono", directory.RoleStaff, "Kakamega", "Otieno Ouma"),
			wantRole:  directory.RoleHR,
			wantIDs:   []string{p.hrKakamega.ID},
			wantOK:    true,
		},
		{
			name:      "hr to every padm",
			actor:     p.hrKisumu,
			requester: p.staff,
			wantRole:  directory.RolePADM,
			wantIDs:   []string{p.padm.ID, p.padm2.ID},
			wantOK:    true,
		},
		{
			name:      "padm is last",
			actor:     p.padm,
			requester: p.staff,
			wantOK:    false,
		},
		{
			name:      "incharge whose manager is unknown",
			actor:     p.otherIncharge,
			requester: p.otherStaff,
			wantRole:  directory.RolePO,
			wantIDs:   []string{},
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, users, ok, err := r.NextApprovers(context.Background(), approval.LeavePolicy, tt.actor, tt.requester)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Empty(t, users)
				return
			}
			assert.Equal(t, tt.wantRole, next)
			assert.ElementsMatch(t, tt.wantIDs, userIDs(users))
		})
	}
}

func TestResolver_FirstApprovers(t *testing.T) {
	f := newFixture(t)
	r := NewResolver(f.users, f.routes, discardLogger())

	role, users, err := r.FirstApprovers(context.Background(), approval.TimesheetPolicy, f.p.staff)
	require.NoError(t, err)
	assert.Equal(t, directory.RoleIncharge, role)
	assert.Equal(t, []string{f.p.incharge.ID}, userIDs(users))

	orphan := newUser("Orphan", directory.RoleStaff, "Kisumu", "")
	_, users, err = r.FirstApprovers(context.Background(), approval.TimesheetPolicy, orphan)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestResolver_UnmappedLocationWithoutHR(t *testing.T) {
	f := newFixture(t)
	r := NewResolver(f.users, f.routes, discardLogger())

	requester := newUser("Halima Abdi", directory.RoleStaff, "Garissa", "Otieno Ouma")
	_, users, ok, err := r.NextApprovers(context.Background(), approval.LeavePolicy, f.p.po, requester)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, users)
}

func TestResolver_DuplicateReportsToNameWarns(t *testing.T) {
	f := newFixture(t)
	namesake := newUser(f.p.po.Name, directory.RolePO, "Nairobi", "")
	f.store.PutUser(namesake)

	var buf bytes.Buffer
	r := NewResolver(f.users, f.routes, slog.New(slog.NewJSONHandler(&buf, nil)))

	next, users, ok, err := r.NextApprovers(context.Background(), approval.LeavePolicy, f.p.incharge, f.p.staff)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, directory.RolePO, next)
	assert.ElementsMatch(t, []string{f.p.po.ID, namesake.ID}, userIDs(users))

	var warned map[string]interface{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		if line["msg"] == "Reports-to name matches several approvers" {
			warned = line
		}
	}
	require.NotNil(t, warned, "expected a duplicate-name warning")
	assert.Equal(t, "WARN", warned["level"])
	assert.Equal(t, f.p.po.Name, warned["name"])
	assert.Equal(t, float64(2), warned["count"])

	// a unique name stays quiet
	buf.Reset()
	_, _, err = r.FirstApprovers(context.Background(), approval.LeavePolicy, f.p.staff)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "several approvers")
}
