package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// requestRepositoryImpl reads and writes the approval columns shared by
// leave_requests and timesheets.
type requestRepositoryImpl struct {
	db *database.DB
}

func NewRequestRepository(db *database.DB) approval.RequestRepository {
	return &requestRepositoryImpl{db: db}
}

// isUUID guards lookups against UUID columns. Postgres rejects a malformed
// id with 22P02 instead of returning no rows.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func tableFor(kind approval.RequestKind) (string, error) {
	switch kind {
	case approval.KindLeave:
		return "leave_requests", nil
	case approval.KindTimesheet:
		return "timesheets", nil
	}
	return "", approval.ErrUnknownRequestKind
}

func scanRequest(row pgx.Row, kind approval.RequestKind) (approval.Request, error) {
	req := approval.Request{Kind: kind}
	var approversJSON []byte
	if err := row.Scan(&req.ID, &req.RequesterID, &req.Status, &approversJSON, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return approval.Request{}, err
	}
	if err := decodeApprovers(approversJSON, &req.Approvers); err != nil {
		return approval.Request{}, err
	}
	return req, nil
}

func decodeApprovers(raw []byte, into *[]approval.ApproverSnapshot) error {
	if len(raw) == 0 {
		*into = []approval.ApproverSnapshot{}
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("failed to decode approvers: %w", err)
	}
	return nil
}

func encodeApprovers(approvers []approval.ApproverSnapshot) ([]byte, error) {
	if approvers == nil {
		approvers = []approval.ApproverSnapshot{}
	}
	return json.Marshal(approvers)
}

func (r *requestRepositoryImpl) get(ctx context.Context, kind approval.RequestKind, id string, lock bool) (approval.Request, error) {
	table, err := tableFor(kind)
	if err != nil {
		return approval.Request{}, err
	}
	if !isUUID(id) {
		return approval.Request{}, approval.ErrRequestNotFound
	}

	query := fmt.Sprintf(`SELECT id, requester_id, status, approvers, created_at, updated_at FROM %s WHERE id = $1`, table)
	if lock {
		query += ` FOR UPDATE`
	}

	q := GetQuerier(ctx, r.db)
	req, err := scanRequest(q.QueryRow(ctx, query, id), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.Request{}, approval.ErrRequestNotFound
		}
		return approval.Request{}, fmt.Errorf("failed to get %s request: %w", kind, err)
	}
	return req, nil
}

// GetByID implements approval.RequestRepository.
func (r *requestRepositoryImpl) GetByID(ctx context.Context, kind approval.RequestKind, id string) (approval.Request, error) {
	return r.get(ctx, kind, id, false)
}

// GetForUpdate implements approval.RequestRepository. It must run inside a
// transaction for the row lock to outlive the statement.
func (r *requestRepositoryImpl) GetForUpdate(ctx context.Context, kind approval.RequestKind, id string) (approval.Request, error) {
	return r.get(ctx, kind, id, true)
}

// UpdateState implements approval.RequestRepository.
func (r *requestRepositoryImpl) UpdateState(ctx context.Context, kind approval.RequestKind, id string, status string, approvers []approval.ApproverSnapshot) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if !isUUID(id) {
		return approval.ErrRequestNotFound
	}
	approversJSON, err := encodeApprovers(approvers)
	if err != nil {
		return err
	}

	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET status = $2, approvers = $3, updated_at = now() WHERE id = $1`, table),
		id, status, approversJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s request state: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return approval.ErrRequestNotFound
	}
	return nil
}

// ListScoped implements approval.RequestRepository.
func (r *requestRepositoryImpl) ListScoped(ctx context.Context, kind approval.RequestKind, scope approval.Scope) ([]approval.Request, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	where, args, err := scopeFilter(kind, scope)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.requester_id, r.status, r.approvers, r.created_at, r.updated_at
		FROM %s r
		INNER JOIN users u ON u.id = r.requester_id
		WHERE %s
		ORDER BY r.created_at DESC
	`, table, where)

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s requests: %w", kind, err)
	}
	defer rows.Close()

	var requests []approval.Request
	for rows.Next() {
		req, err := scanRequest(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s request: %w", kind, err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// InScope implements approval.RequestRepository.
func (r *requestRepositoryImpl) InScope(ctx context.Context, kind approval.RequestKind, id string, scope approval.Scope) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	if !isUUID(id) {
		return false, approval.ErrRequestNotFound
	}

	where, args, err := scopeFilter(kind, scope)
	if err != nil {
		return false, err
	}
	args = append(args, id)

	query := fmt.Sprintf(`
		SELECT
			EXISTS (SELECT 1 FROM %[1]s WHERE id = $%[2]d),
			EXISTS (
				SELECT 1 FROM %[1]s r
				INNER JOIN users u ON u.id = r.requester_id
				WHERE r.id = $%[2]d AND %[3]s
			)
	`, table, len(args), where)

	var found, matched bool
	q := GetQuerier(ctx, r.db)
	if err := q.QueryRow(ctx, query, args...).Scan(&found, &matched); err != nil {
		return false, fmt.Errorf("failed to check %s request scope: %w", kind, err)
	}
	if !found {
		return false, approval.ErrRequestNotFound
	}
	return matched, nil
}

// scopeFilter builds the WHERE clause for scope. The request table is
// aliased r and the requester row u.
func scopeFilter(kind approval.RequestKind, scope approval.Scope) (string, []interface{}, error) {
	switch {
	case scope.RequesterID != "":
		return `r.requester_id = $1`, []interface{}{scope.RequesterID}, nil
	case scope.RequesterReportsTo != "":
		return `u.reports_to = $1`, []interface{}{scope.RequesterReportsTo}, nil
	case scope.InchargeReportsTo != "":
		return strings.TrimSpace(`
			EXISTS (
				SELECT 1 FROM approval_entries ae
				INNER JOIN users a ON a.id = ae.approver_id
				WHERE ae.request_kind = $1 AND ae.request_id = r.id
				  AND ae.approver_role = $2 AND ae.status = $3
				  AND a.reports_to = $4
			)`), []interface{}{string(kind), string(directory.RoleIncharge), string(approval.EntryApproved), scope.InchargeReportsTo}, nil
	case len(scope.RequesterLocations) > 0:
		return `u.location = ANY($1)`, []interface{}{scope.RequesterLocations}, nil
	case scope.ApprovedRole != "":
		return strings.TrimSpace(`
			EXISTS (
				SELECT 1 FROM approval_entries ae
				WHERE ae.request_kind = $1 AND ae.request_id = r.id
				  AND ae.approver_role = $2 AND ae.status = $3
			)`), []interface{}{string(kind), string(scope.ApprovedRole), string(approval.EntryApproved)}, nil
	}
	return "", nil, errors.New("empty listing scope")
}
