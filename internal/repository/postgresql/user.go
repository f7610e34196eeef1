package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, supervisor_id, full_name, email, employee_code, position, project_site, created_at, updated_at`

type userDirectoryImpl struct {
	db *database.DB
}

func NewUserDirectory(db *database.DB) user.Directory {
	return &userDirectoryImpl{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.SupervisorID,
		&u.FullName,
		&u.Email,
		&u.EmployeeCode,
		&u.Position,
		&u.ProjectSite,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// GetByID implements user.Directory.
func (r *userDirectoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	if !isUUID(id) {
		return user.User{}, fmt.Errorf("%w: user %s", user.ErrUserNotFound, id)
	}
	q := GetQuerier(ctx, r.db)
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, fmt.Errorf("%w: user %s", user.ErrUserNotFound, id)
	}
	return u, err
}

// GetByIDs implements user.Directory. Unknown ids are left out of the result.
func (r *userDirectoryImpl) GetByIDs(ctx context.Context, ids []string) (map[string]user.User, error) {
	out := make(map[string]user.User, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return out, nil
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, valid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// isUUID guards lookups by client-supplied ids; postgres rejects malformed
// uuids with a syntax error rather than an empty result.
func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}
