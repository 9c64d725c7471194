package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestSelect = `
	SELECT lr.id, lr.requester_id, lr.leave_type, lr.start_date, lr.end_date, lr.total_days, lr.reason,
		   lr.status, lr.approvers, lr.submitted_at, lr.created_at, lr.updated_at, u.name
	FROM leave_requests lr
	INNER JOIN users u ON u.id = lr.requester_id
`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		lr            leave.LeaveRequest
		leaveType     string
		approversJSON []byte
		requesterName string
	)
	err := row.Scan(
		&lr.ID,
		&lr.RequesterID,
		&leaveType,
		&lr.StartDate,
		&lr.EndDate,
		&lr.TotalDays,
		&lr.Reason,
		&lr.Status,
		&approversJSON,
		&lr.SubmittedAt,
		&lr.CreatedAt,
		&lr.UpdatedAt,
		&requesterName,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	lr.LeaveType = leave.LeaveType(leaveType)
	lr.RequesterName = &requesterName
	if err := decodeApprovers(approversJSON, &lr.Approvers); err != nil {
		return leave.LeaveRequest{}, err
	}
	return lr, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	approversJSON, err := encodeApprovers(request.Approvers)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	query := `
		INSERT INTO leave_requests (id, requester_id, leave_type, start_date, end_date, total_days, reason, status, approvers, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = q.Exec(ctx, query,
		request.ID,
		request.RequesterID,
		string(request.LeaveType),
		request.StartDate,
		request.EndDate,
		request.TotalDays,
		request.Reason,
		request.Status,
		approversJSON,
		request.SubmittedAt,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	if !isUUID(id) {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	q := GetQuerier(ctx, r.db)
	lr, err := scanLeaveRequest(q.QueryRow(ctx, leaveRequestSelect+` WHERE lr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return lr, nil
}

// GetByIDs implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]leave.LeaveRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, leaveRequestSelect+` WHERE lr.id = ANY($1::uuid[]) ORDER BY lr.created_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	return requests, rows.Err()
}
