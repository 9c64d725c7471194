package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/routing"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/tracing"
)

type engine struct {
	requests  approval.RequestRepository
	ledger    approval.LedgerRepository
	users     directory.Repository
	tx        approval.TxManager
	publisher approval.EventPublisher
	routes    *routing.Table
	locks     *lock.Keyed
	logger    *slog.Logger
	now       func() time.Time
}

type EngineDeps struct {
	Requests  approval.RequestRepository
	Ledger    approval.LedgerRepository
	Users     directory.Repository
	Tx        approval.TxManager
	Publisher approval.EventPublisher
	Routes    *routing.Table
	Logger    *slog.Logger
}

// NewEngine wires the approval state machine
func NewEngine(deps EngineDeps) approval.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &engine{
		requests:  deps.Requests,
		ledger:    deps.Ledger,
		users:     deps.Users,
		tx:        deps.Tx,
		publisher: deps.Publisher,
		routes:    deps.Routes,
		locks:     lock.NewKeyed(),
		logger:    logger.With("component", "approval"),
		now:       time.Now,
	}
}

func lockKey(kind approval.RequestKind, id string) string {
	return string(kind) + "/" + id
}

// RecordAction appends one approve or deny entry and persists the status and
// approvers derived from the whole ledger, all under the request row lock.
func (e *engine) RecordAction(ctx context.Context, req approval.RecordActionRequest) (result approval.ActionResult, err error) {
	ctx, span := tracing.Start(ctx, "approval.RecordAction",
		attribute.String("request.kind", string(req.Kind)),
		attribute.String("request.id", req.RequestID),
		attribute.String("action", string(req.Action)),
	)
	defer func() { tracing.End(span, err) }()

	if err = req.Validate(); err != nil {
		return approval.ActionResult{}, err
	}

	policy, err := approval.PolicyFor(req.Kind)
	if err != nil {
		return approval.ActionResult{}, err
	}

	actor, err := e.users.GetByID(ctx, req.ApproverID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return approval.ActionResult{}, approval.ErrApproverNotFound
		}
		return approval.ActionResult{}, fmt.Errorf("load approver: %w", err)
	}
	if !policy.Contains(actor.Role) {
		return approval.ActionResult{}, approval.ErrInvalidApproverRole
	}

	unlock, err := e.locks.Lock(ctx, lockKey(req.Kind, req.RequestID))
	if err != nil {
		return approval.ActionResult{}, err
	}
	defer unlock()

	var event approval.Event
	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := e.requests.GetForUpdate(txCtx, req.Kind, req.RequestID)
		if err != nil {
			return err
		}

		entries, err := e.ledger.ListByRequest(txCtx, req.Kind, req.RequestID)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}

		if approval.DeriveStatus(entries, policy).IsTerminal() {
			return approval.ErrRequestClosed
		}

		entry := approval.Entry{
			ID:            uuid.Must(uuid.NewV7()).String(),
			RequestKind:   req.Kind,
			RequestID:     req.RequestID,
			ApproverID:    actor.ID,
			ApproverRole:  actor.Role,
			ApproverName:  actor.Name,
			ApproverTitle: actor.Title,
			CreatedAt:     e.nextTimestamp(entries),
		}

		switch req.Action {
		case approval.ActionApprove:
			if err := checkApproveOrder(entries, policy, actor.Role); err != nil {
				return err
			}
			entry.Status = approval.EntryApproved
		case approval.ActionDeny:
			reason := strings.TrimSpace(req.Reason)
			entry.Status = approval.EntryDenied
			entry.Reason = &reason
		}

		entry, err = e.ledger.Append(txCtx, entry)
		if err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		entries = append(entries, entry)

		status := approval.DeriveStatus(entries, policy)
		rendered := policy.Render(status)
		approvers := approval.ProjectApprovers(entries)
		if err := e.requests.UpdateState(txCtx, req.Kind, req.RequestID, rendered, approvers); err != nil {
			return fmt.Errorf("update request state: %w", err)
		}

		result = approval.ActionResult{
			RequestID: req.RequestID,
			Kind:      req.Kind,
			Status:    rendered,
			Approvers: approvers,
		}
		event = approval.Event{
			Type:        eventTypeFor(status),
			Kind:        req.Kind,
			RequestID:   req.RequestID,
			RequesterID: request.RequesterID,
			Status:      rendered,
			Entry:       &entry,
			Ledger:      entries,
			OccurredAt:  entry.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return approval.ActionResult{}, err
	}

	e.logger.Info("Approval action recorded",
		"kind", req.Kind, "request_id", req.RequestID, "action", req.Action,
		"approver_id", actor.ID, "approver_role", actor.Role, "status", result.Status)

	if e.publisher != nil {
		e.publisher.Publish(ctx, event)
	}
	return result, nil
}

// checkApproveOrder enforces the role sequence for an approval by role
func checkApproveOrder(entries []approval.Entry, policy approval.Policy, role directory.Role) error {
	if approval.HasApproval(entries, role) {
		return approval.ErrAlreadyApproved
	}
	prev, ok := policy.Previous(role)
	if !ok || approval.HasApproval(entries, prev) {
		return nil
	}
	return &approval.OutOfOrderError{ActingRole: role, PendingRole: pendingRole(entries, policy)}
}

// pendingRole is the first role of policy without an approval
func pendingRole(entries []approval.Entry, policy approval.Policy) directory.Role {
	for _, r := range policy.Roles {
		if !approval.HasApproval(entries, r) {
			return r
		}
	}
	return ""
}

func eventTypeFor(status approval.Status) approval.EventType {
	switch status.Kind {
	case approval.StatusFullyApproved:
		return approval.EventFullyApproved
	case approval.StatusRejected:
		return approval.EventRejected
	}
	return approval.EventRoleApproved
}

// nextTimestamp keeps ledger timestamps strictly increasing per request at
// the microsecond resolution the database stores.
func (e *engine) nextTimestamp(entries []approval.Entry) time.Time {
	ts := e.now().UTC().Truncate(time.Microsecond)
	for _, entry := range entries {
		if !ts.After(entry.CreatedAt) {
			ts = entry.CreatedAt.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
		}
	}
	return ts
}

// ApprovalFlow returns the ledger of a request oldest first
func (e *engine) ApprovalFlow(ctx context.Context, kind approval.RequestKind, requestID string) ([]approval.Entry, error) {
	if !kind.IsValid() {
		return nil, approval.ErrUnknownRequestKind
	}
	if _, err := e.requests.GetByID(ctx, kind, requestID); err != nil {
		return nil, err
	}
	entries, err := e.ledger.ListByRequest(ctx, kind, requestID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return entries, nil
}

// AnnounceSubmission starts the first-step fan-out of a new request
func (e *engine) AnnounceSubmission(ctx context.Context, req approval.Request) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(ctx, approval.Event{
		Type:        approval.EventSubmitted,
		Kind:        req.Kind,
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		Status:      req.Status,
		OccurredAt:  req.CreatedAt,
	})
}
