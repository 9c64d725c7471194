package approval

import (
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

// RequestKind identifies which table and policy a request belongs to
type RequestKind string

const (
	KindLeave     RequestKind = "leave"
	KindTimesheet RequestKind = "timesheet"
)

// IsValid reports whether k is a supported request kind
func (k RequestKind) IsValid() bool {
	return k == KindLeave || k == KindTimesheet
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
)

// EntryStatus is the outcome recorded on a ledger row
type EntryStatus string

const (
	EntryApproved EntryStatus = "Approved"
	EntryDenied   EntryStatus = "Denied"
)

// Entry is one immutable ledger row. Role, name and title are captured at
// the time of the action and never re-derived.
type Entry struct {
	ID            string
	RequestKind   RequestKind
	RequestID     string
	ApproverID    string
	ApproverRole  directory.Role
	ApproverName  string
	ApproverTitle string
	Status        EntryStatus
	Reason        *string
	CreatedAt     time.Time
}

// ApproverSnapshot is the denormalized projection of a ledger row stored on
// the request itself.
type ApproverSnapshot struct {
	ApproverID string         `json:"approver_id"`
	Name       string         `json:"name"`
	Role       directory.Role `json:"role"`
	Title      string         `json:"title,omitempty"`
	Status     EntryStatus    `json:"status"`
	ActedAt    time.Time      `json:"acted_at"`
}

// Request is the part of a leave or timesheet record the engine reads and
// writes. Payload fields live in the kind-specific domains.
type Request struct {
	ID          string
	Kind        RequestKind
	RequesterID string
	Status      string
	Approvers   []ApproverSnapshot
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Scope narrows a listing to the requests a caller may see. Exactly one
// field is expected to be set.
type Scope struct {
	RequesterID        string
	RequesterReportsTo string
	InchargeReportsTo  string
	RequesterLocations []string
	ApprovedRole       directory.Role
}
