package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const versionColumns = `id, user_id, year, month, version, previous_version_id, is_current, status,
	submitted_at, approver_id, approved_at, approval_comments, created_at, updated_at`

type versionRepositoryImpl struct {
	db *database.DB
}

func NewVersionRepository(db *database.DB) timesheet.VersionRepository {
	return &versionRepositoryImpl{db: db}
}

func scanVersion(row pgx.Row) (timesheet.Version, error) {
	var v timesheet.Version
	err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.Year,
		&v.Month,
		&v.Version,
		&v.PreviousVersionID,
		&v.IsCurrent,
		&v.Status,
		&v.SubmittedAt,
		&v.ApproverID,
		&v.ApprovedAt,
		&v.ApprovalComments,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	return v, err
}

func collectVersions(rows pgx.Rows) ([]timesheet.Version, error) {
	defer rows.Close()
	var versions []timesheet.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// LockPeriod implements timesheet.VersionRepository.
// The advisory lock is released when the surrounding transaction ends.
func (r *versionRepositoryImpl) LockPeriod(ctx context.Context, key timesheet.PeriodKey) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return fmt.Errorf("lock %s: no transaction in context", key.LockKey())
	}
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.LockKey())
	return err
}

// GetCurrent implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) GetCurrent(ctx context.Context, key timesheet.PeriodKey) (timesheet.Version, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + versionColumns + `
		FROM timesheet_versions
		WHERE user_id = $1 AND year = $2 AND month = $3 AND is_current
	`
	v, err := scanVersion(q.QueryRow(ctx, query, key.UserID, key.Year, key.Month))
	if errors.Is(err, pgx.ErrNoRows) {
		return timesheet.Version{}, timesheet.ErrVersionNotFound
	}
	return v, err
}

// GetByID implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.Version, error) {
	if !isUUID(id) {
		return timesheet.Version{}, fmt.Errorf("%w: version %s", timesheet.ErrVersionNotFound, id)
	}
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + versionColumns + ` FROM timesheet_versions WHERE id = $1`
	v, err := scanVersion(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return timesheet.Version{}, fmt.Errorf("%w: version %s", timesheet.ErrVersionNotFound, id)
	}
	return v, err
}

// ListByPeriod implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) ListByPeriod(ctx context.Context, key timesheet.PeriodKey) ([]timesheet.Version, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + versionColumns + `
		FROM timesheet_versions
		WHERE user_id = $1 AND year = $2 AND month = $3
		ORDER BY version ASC
	`
	rows, err := q.Query(ctx, query, key.UserID, key.Year, key.Month)
	if err != nil {
		return nil, err
	}
	return collectVersions(rows)
}

// ListByUser implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]timesheet.Version, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + versionColumns + `
		FROM timesheet_versions
		WHERE user_id = $1
		ORDER BY year DESC, month DESC, version DESC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectVersions(rows)
}

// ListCurrentByApprover implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) ListCurrentByApprover(ctx context.Context, approverID string, status timesheet.Status) ([]timesheet.Version, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + versionColumns + `
		FROM timesheet_versions
		WHERE approver_id = $1 AND status = $2 AND is_current
		ORDER BY submitted_at ASC NULLS LAST, id ASC
	`
	rows, err := q.Query(ctx, query, approverID, status)
	if err != nil {
		return nil, err
	}
	return collectVersions(rows)
}

// ListByApprover implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) ListByApprover(ctx context.Context, approverID string) ([]timesheet.Version, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + versionColumns + `
		FROM timesheet_versions
		WHERE approver_id = $1
		ORDER BY year DESC, month DESC, version DESC
	`
	rows, err := q.Query(ctx, query, approverID)
	if err != nil {
		return nil, err
	}
	return collectVersions(rows)
}

// CountApprovedBetween implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) CountApprovedBetween(ctx context.Context, approverID string, from, to time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT COUNT(*)
		FROM timesheet_versions
		WHERE approver_id = $1 AND status = 'approved' AND approved_at BETWEEN $2 AND $3
	`
	var count int
	if err := q.QueryRow(ctx, query, approverID, from, to).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Create implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) Create(ctx context.Context, version timesheet.Version) (timesheet.Version, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO timesheet_versions (
			id, user_id, year, month, version, previous_version_id, is_current, status,
			submitted_at, approver_id, approved_at, approval_comments, created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, NOW(), NOW()
		)
		RETURNING ` + versionColumns
	return scanVersion(q.QueryRow(ctx, query,
		version.UserID,
		version.Year,
		version.Month,
		version.Version,
		version.PreviousVersionID,
		version.IsCurrent,
		version.Status,
		version.SubmittedAt,
		version.ApproverID,
		version.ApprovedAt,
		version.ApprovalComments,
	))
}

// Update implements timesheet.VersionRepository.
func (r *versionRepositoryImpl) Update(ctx context.Context, version timesheet.Version) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE timesheet_versions
		SET is_current = $1, status = $2, submitted_at = $3, approver_id = $4,
			approved_at = $5, approval_comments = $6, updated_at = NOW()
		WHERE id = $7
	`
	commandTag, err := q.Exec(ctx, query,
		version.IsCurrent,
		version.Status,
		version.SubmittedAt,
		version.ApproverID,
		version.ApprovedAt,
		version.ApprovalComments,
		version.ID,
	)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: version %s", timesheet.ErrVersionNotFound, version.ID)
	}
	return nil
}
