package memory

import (
	"context"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
)

type directoryImpl struct {
	store *Store
}

func NewUserDirectory(store *Store) user.Directory {
	return &directoryImpl{store: store}
}

func (d *directoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	var (
		found user.User
		ok    bool
	)
	d.store.read(ctx, func() {
		found, ok = d.store.users[id]
	})
	if !ok {
		return user.User{}, notFound(user.ErrUserNotFound, "user", id)
	}
	return found, nil
}

func (d *directoryImpl) GetByIDs(ctx context.Context, ids []string) (map[string]user.User, error) {
	out := make(map[string]user.User, len(ids))
	d.store.read(ctx, func() {
		for _, id := range ids {
			if u, ok := d.store.users[id]; ok {
				out[id] = u
			}
		}
	})
	return out, nil
}
