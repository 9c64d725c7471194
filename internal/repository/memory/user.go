package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) directory.Repository {
	return &userRepository{store: store}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (directory.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return directory.User{}, directory.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]directory.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]directory.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepository) filter(keep func(directory.User) bool) []directory.User {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []directory.User
	for _, u := range r.store.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *userRepository) ListByRole(ctx context.Context, role directory.Role) ([]directory.User, error) {
	return r.filter(func(u directory.User) bool { return u.Role == role }), nil
}

func (r *userRepository) ListByRoleAndName(ctx context.Context, role directory.Role, name string) ([]directory.User, error) {
	return r.filter(func(u directory.User) bool { return u.Role == role && u.Name == name }), nil
}

func (r *userRepository) ListByRoleInLocations(ctx context.Context, role directory.Role, locations []string) ([]directory.User, error) {
	in := make(map[string]struct{}, len(locations))
	for _, l := range locations {
		in[l] = struct{}{}
	}
	return r.filter(func(u directory.User) bool {
		_, ok := in[u.Location]
		return u.Role == role && ok
	}), nil
}
