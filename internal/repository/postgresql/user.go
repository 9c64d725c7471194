package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) directory.Repository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `id, name, email, role, title, location, reports_to, created_at, updated_at`

func scanUser(row pgx.Row) (directory.User, error) {
	var u directory.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.Title, &u.Location, &u.ReportsTo, &u.CreatedAt, &u.UpdatedAt)
	u.Role = directory.Role(role)
	return u, err
}

func (r *userRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]directory.User, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []directory.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID implements directory.Repository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (directory.User, error) {
	if !isUUID(id) {
		return directory.User{}, directory.ErrUserNotFound
	}
	q := GetQuerier(ctx, r.db)
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.User{}, directory.ErrUserNotFound
		}
		return directory.User{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return u, nil
}

// GetByIDs implements directory.Repository.
func (r *userRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]directory.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := r.list(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[]) ORDER BY name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// ListByRole implements directory.Repository.
func (r *userRepositoryImpl) ListByRole(ctx context.Context, role directory.Role) ([]directory.User, error) {
	users, err := r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s users: %w", role, err)
	}
	return users, nil
}

// ListByRoleAndName implements directory.Repository.
func (r *userRepositoryImpl) ListByRoleAndName(ctx context.Context, role directory.Role, name string) ([]directory.User, error) {
	users, err := r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 AND name = $2 ORDER BY id`, string(role), name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s users named %q: %w", role, name, err)
	}
	return users, nil
}

// ListByRoleInLocations implements directory.Repository.
func (r *userRepositoryImpl) ListByRoleInLocations(ctx context.Context, role directory.Role, locations []string) ([]directory.User, error) {
	if len(locations) == 0 {
		return nil, nil
	}
	users, err := r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 AND location = ANY($2) ORDER BY name`, string(role), locations)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s users by location: %w", role, err)
	}
	return users, nil
}

// UpsertUser inserts or refreshes a directory record. Only seeding and tests
// write users; the service itself treats the directory as read-only.
func UpsertUser(ctx context.Context, db *database.DB, u directory.User) error {
	q := GetQuerier(ctx, db)
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, name, email, role, title, location, reports_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role, title = EXCLUDED.title,
			location = EXCLUDED.location, reports_to = EXCLUDED.reports_to, updated_at = now()
	`, u.ID, u.Name, u.Email, string(u.Role), u.Title, u.Location, u.ReportsTo)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
