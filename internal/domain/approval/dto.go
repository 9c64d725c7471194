package approval

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/validator"
)

type RecordActionRequest struct {
	Kind       RequestKind
	RequestID  string
	ApproverID string
	Action     Action
	Reason     string
}

func (r *RecordActionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Kind.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be leave or timesheet",
		})
	}
	if validator.IsEmpty(r.RequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "request_id",
			Message: "request_id is required",
		})
	}
	if validator.IsEmpty(r.ApproverID) {
		errs = append(errs, validator.ValidationError{
			Field:   "approver_id",
			Message: "approver_id is required",
		})
	}
	if r.Action != ActionApprove && r.Action != ActionDeny {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be approve or deny",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	if r.Action == ActionDeny && strings.TrimSpace(r.Reason) == "" {
		return ErrMissingReason
	}

	return nil
}

// DenyRequest is the body of a deny call
type DenyRequest struct {
	Reason string `json:"reason"`
}

type ActionResult struct {
	RequestID string             `json:"request_id"`
	Kind      RequestKind        `json:"kind"`
	Status    string             `json:"status"`
	Approvers []ApproverSnapshot `json:"approvers"`
}

type EntryResponse struct {
	ID            string         `json:"id"`
	ApproverID    string         `json:"approver_id"`
	ApproverName  string         `json:"approver_name"`
	ApproverRole  directory.Role `json:"approver_role"`
	ApproverTitle string         `json:"approver_title,omitempty"`
	Status        EntryStatus    `json:"status"`
	Reason        *string        `json:"reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func NewEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		ApproverID:    e.ApproverID,
		ApproverName:  e.ApproverName,
		ApproverRole:  e.ApproverRole,
		ApproverTitle: e.ApproverTitle,
		Status:        e.Status,
		Reason:        e.Reason,
		CreatedAt:     e.CreatedAt,
	}
}

// RoleListing partitions the requests visible to one caller by status
type RoleListing struct {
	Pending              []Request
	AwaitingNextApprover []Request
	FullyApproved        []Request
	Rejected             []Request
}

// IDs returns every request id in the listing
func (l RoleListing) IDs() []string {
	var ids []string
	for _, part := range [][]Request{l.Pending, l.AwaitingNextApprover, l.FullyApproved, l.Rejected} {
		for _, r := range part {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
