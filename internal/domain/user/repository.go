package user

import (
	"context"
)

// Directory is the read-only user lookup the timesheet engine depends on.
// User CRUD lives outside this service.
type Directory interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]User, error)
}
