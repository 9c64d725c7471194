package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

type timesheetRepositoryImpl struct {
	db *database.DB
}

func NewTimesheetRepository(db *database.DB) timesheet.TimesheetRepository {
	return &timesheetRepositoryImpl{db: db}
}

const timesheetSelect = `
	SELECT t.id, t.requester_id, t.period, t.entries, t.total_hours::text, t.status, t.approvers,
		   t.submitted_at, t.created_at, t.updated_at, u.name
	FROM timesheets t
	INNER JOIN users u ON u.id = t.requester_id
`

func scanTimesheet(row pgx.Row) (timesheet.Timesheet, error) {
	var (
		ts            timesheet.Timesheet
		entriesJSON   []byte
		totalHours    string
		approversJSON []byte
		requesterName string
	)
	err := row.Scan(
		&ts.ID,
		&ts.RequesterID,
		&ts.Period,
		&entriesJSON,
		&totalHours,
		&ts.Status,
		&approversJSON,
		&ts.SubmittedAt,
		&ts.CreatedAt,
		&ts.UpdatedAt,
		&requesterName,
	)
	if err != nil {
		return timesheet.Timesheet{}, err
	}

	if err := json.Unmarshal(entriesJSON, &ts.Entries); err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("failed to decode timesheet entries: %w", err)
	}
	if ts.TotalHours, err = decimal.NewFromString(totalHours); err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("failed to parse total hours: %w", err)
	}
	if err := decodeApprovers(approversJSON, &ts.Approvers); err != nil {
		return timesheet.Timesheet{}, err
	}
	ts.RequesterName = &requesterName
	return ts, nil
}

func (r *timesheetRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	defer rows.Close()

	var sheets []timesheet.Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		sheets = append(sheets, ts)
	}
	return sheets, rows.Err()
}

// Create implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) Create(ctx context.Context, ts timesheet.Timesheet) (timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	entriesJSON, err := json.Marshal(ts.Entries)
	if err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("failed to encode timesheet entries: %w", err)
	}
	approversJSON, err := encodeApprovers(ts.Approvers)
	if err != nil {
		return timesheet.Timesheet{}, err
	}

	query := `
		INSERT INTO timesheets (id, requester_id, period, entries, total_hours, status, approvers, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)
	`
	_, err = q.Exec(ctx, query,
		ts.ID,
		ts.RequesterID,
		ts.Period,
		entriesJSON,
		ts.TotalHours.String(),
		ts.Status,
		approversJSON,
		ts.SubmittedAt,
		ts.CreatedAt,
		ts.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "uq_timesheets_open_period" {
			return timesheet.Timesheet{}, timesheet.ErrTimesheetAlreadySubmitted
		}
		return timesheet.Timesheet{}, fmt.Errorf("failed to create timesheet: %w", err)
	}
	return ts, nil
}

// GetByID implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	if !isUUID(id) {
		return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
	}
	q := GetQuerier(ctx, r.db)
	ts, err := scanTimesheet(q.QueryRow(ctx, timesheetSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
		}
		return timesheet.Timesheet{}, fmt.Errorf("failed to get timesheet: %w", err)
	}
	return ts, nil
}

// GetByIDs implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]timesheet.Timesheet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, timesheetSelect+` WHERE t.id = ANY($1::uuid[]) ORDER BY t.created_at DESC`, ids)
}

// GetByRequesterAndPeriod implements timesheet.TimesheetRepository.
func (r *timesheetRepositoryImpl) GetByRequesterAndPeriod(ctx context.Context, requesterID, period string) ([]timesheet.Timesheet, error) {
	return r.list(ctx, timesheetSelect+` WHERE t.requester_id = $1 AND t.period = $2 ORDER BY t.created_at DESC`, requesterID, period)
}
