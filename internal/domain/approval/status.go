package approval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

type StatusKind int

const (
	StatusPending StatusKind = iota
	StatusInProgress
	StatusFullyApproved
	StatusRejected
)

func (k StatusKind) String() string {
	switch k {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusFullyApproved:
		return "fully_approved"
	case StatusRejected:
		return "rejected"
	}
	return "unknown"
}

const (
	LabelFullyApproved = "Fully Approved"
	approvedPrefix     = "Approved by: "
	reasonOpen         = " for: ["
	reasonClose        = "]"
)

// Status is the derived state of a request. Role is set for StatusInProgress,
// Actor and Reason for StatusRejected.
type Status struct {
	Kind   StatusKind
	Role   directory.Role
	Actor  string
	Reason string
}

func Pending() Status { return Status{Kind: StatusPending} }

func InProgress(role directory.Role) Status {
	return Status{Kind: StatusInProgress, Role: role}
}

func FullyApproved() Status { return Status{Kind: StatusFullyApproved} }

func Rejected(actor, reason string) Status {
	return Status{Kind: StatusRejected, Actor: actor, Reason: reason}
}

// IsTerminal reports whether no further action can change the status
func (s Status) IsTerminal() bool {
	return s.Kind == StatusFullyApproved || s.Kind == StatusRejected
}

// Render formats s the way it is stored on the request row
func (p Policy) Render(s Status) string {
	switch s.Kind {
	case StatusInProgress:
		return approvedPrefix + string(s.Role)
	case StatusFullyApproved:
		return LabelFullyApproved
	case StatusRejected:
		return p.DeniedPrefix + s.Actor + reasonOpen + s.Reason + reasonClose
	}
	return p.InitialLabel
}

// Parse reads a stored status string back into a Status
func (p Policy) Parse(raw string) (Status, error) {
	switch {
	case raw == p.InitialLabel:
		return Pending(), nil
	case raw == LabelFullyApproved:
		return FullyApproved(), nil
	case strings.HasPrefix(raw, approvedPrefix):
		role := directory.Role(strings.TrimPrefix(raw, approvedPrefix))
		if !p.Contains(role) {
			return Status{}, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
		}
		return InProgress(role), nil
	}

	prefixes := append([]string{p.DeniedPrefix}, p.LegacyDeniedPrefixes...)
	for _, prefix := range prefixes {
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		rest := strings.TrimPrefix(raw, prefix)
		idx := strings.Index(rest, reasonOpen)
		if idx < 0 || !strings.HasSuffix(rest, reasonClose) {
			return Status{}, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
		}
		actor := rest[:idx]
		reason := strings.TrimSuffix(rest[idx+len(reasonOpen):], reasonClose)
		return Rejected(actor, reason), nil
	}

	return Status{}, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// sortEntries returns a copy of entries ordered by creation time. Ties keep
// their insertion order.
func sortEntries(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// DeriveStatus computes the status of a request purely from its ledger.
// The first denial wins; otherwise the request is fully approved once every
// role of the policy has an approval, and in progress at the most recent
// approver's role before that.
func DeriveStatus(entries []Entry, p Policy) Status {
	if len(entries) == 0 {
		return Pending()
	}

	approved := make(map[directory.Role]bool, len(p.Roles))
	var lastRole directory.Role
	for _, e := range sortEntries(entries) {
		if e.Status == EntryDenied {
			reason := ""
			if e.Reason != nil {
				reason = *e.Reason
			}
			return Rejected(e.ApproverName, reason)
		}
		approved[e.ApproverRole] = true
		lastRole = e.ApproverRole
	}

	complete := true
	for _, role := range p.Roles {
		if !approved[role] {
			complete = false
			break
		}
	}
	if complete {
		return FullyApproved()
	}
	return InProgress(lastRole)
}

// ProjectApprovers builds the denormalized approvers list from the ledger
func ProjectApprovers(entries []Entry) []ApproverSnapshot {
	sorted := sortEntries(entries)
	out := make([]ApproverSnapshot, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, ApproverSnapshot{
			ApproverID: e.ApproverID,
			Name:       e.ApproverName,
			Role:       e.ApproverRole,
			Title:      e.ApproverTitle,
			Status:     e.Status,
			ActedAt:    e.CreatedAt,
		})
	}
	return out
}

// HasApproval reports whether the ledger holds an approval by role
func HasApproval(entries []Entry, role directory.Role) bool {
	for _, e := range entries {
		if e.ApproverRole == role && e.Status == EntryApproved {
			return true
		}
	}
	return false
}
