package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/database"
)

type ledgerRepositoryImpl struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) approval.LedgerRepository {
	return &ledgerRepositoryImpl{db: db}
}

// Append implements approval.LedgerRepository.
func (r *ledgerRepositoryImpl) Append(ctx context.Context, entry approval.Entry) (approval.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO approval_entries (id, request_kind, request_id, approver_id, approver_role, approver_name, approver_title, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := q.QueryRow(ctx, query,
		entry.ID,
		string(entry.RequestKind),
		entry.RequestID,
		entry.ApproverID,
		string(entry.ApproverRole),
		entry.ApproverName,
		entry.ApproverTitle,
		string(entry.Status),
		entry.Reason,
		entry.CreatedAt,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return approval.Entry{}, fmt.Errorf("failed to append approval entry: %w", err)
	}
	return entry, nil
}

// ListByRequest implements approval.LedgerRepository.
func (r *ledgerRepositoryImpl) ListByRequest(ctx context.Context, kind approval.RequestKind, requestID string) ([]approval.Entry, error) {
	if !isUUID(requestID) {
		return []approval.Entry{}, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_kind, request_id, approver_id, approver_role, approver_name, approver_title, status, reason, created_at
		FROM approval_entries
		WHERE request_kind = $1 AND request_id = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := q.Query(ctx, query, string(kind), requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval entries: %w", err)
	}
	defer rows.Close()

	var entries []approval.Entry
	for rows.Next() {
		var (
			e                    approval.Entry
			kindStr, role, state string
		)
		if err := rows.Scan(&e.ID, &kindStr, &e.RequestID, &e.ApproverID, &role, &e.ApproverName, &e.ApproverTitle, &state, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval entry: %w", err)
		}
		e.RequestKind = approval.RequestKind(kindStr)
		e.ApproverRole = directory.Role(role)
		e.Status = approval.EntryStatus(state)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
