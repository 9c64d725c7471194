package directory

import "context"

// Repository is a read-only view over the users table
type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByIDs(ctx context.Context, ids []string) ([]User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	ListByRoleAndName(ctx context.Context, role Role, name string) ([]User, error)
	ListByRoleInLocations(ctx context.Context, role Role, locations []string) ([]User, error)
}
