package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type presetRepositoryImpl struct {
	db *database.DB
}

func NewPresetRepository(db *database.DB) timesheet.PresetRepository {
	return &presetRepositoryImpl{db: db}
}

func scanPreset(row pgx.Row) (timesheet.WorkingHoursPreset, error) {
	var (
		p          timesheet.WorkingHoursPreset
		start, end pgtype.Time
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &start, &end, &p.IsDefault, &p.CreatedAt); err != nil {
		return timesheet.WorkingHoursPreset{}, err
	}
	if t := fromPgTime(start); t != nil {
		p.StartTime = *t
	}
	if t := fromPgTime(end); t != nil {
		p.EndTime = *t
	}
	return p, nil
}

// ListByUser implements timesheet.PresetRepository.
func (r *presetRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]timesheet.WorkingHoursPreset, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, user_id, name, start_time, end_time, is_default, created_at
		FROM working_hours_presets
		WHERE user_id = $1
		ORDER BY is_default DESC, name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	presets := []timesheet.WorkingHoursPreset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// Create implements timesheet.PresetRepository.
func (r *presetRepositoryImpl) Create(ctx context.Context, preset timesheet.WorkingHoursPreset) (timesheet.WorkingHoursPreset, error) {
	q := GetQuerier(ctx, r.db)
	return scanPreset(q.QueryRow(ctx, `
		INSERT INTO working_hours_presets (id, user_id, name, start_time, end_time, is_default, created_at)
		VALUES (uuidv7(), $1, $2, $3, $4, $5, NOW())
		RETURNING id, user_id, name, start_time, end_time, is_default, created_at
	`, preset.UserID, preset.Name, toPgTime(&preset.StartTime), toPgTime(&preset.EndTime), preset.IsDefault))
}

// ClearDefault implements timesheet.PresetRepository.
func (r *presetRepositoryImpl) ClearDefault(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, r.db)
	_, err := q.Exec(ctx, `UPDATE working_hours_presets SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	return err
}

// Delete implements timesheet.PresetRepository.
func (r *presetRepositoryImpl) Delete(ctx context.Context, userID, id string) error {
	if !isUUID(id) {
		return fmt.Errorf("%w: preset %s", timesheet.ErrPresetNotFound, id)
	}
	q := GetQuerier(ctx, r.db)
	commandTag, err := q.Exec(ctx, `DELETE FROM working_hours_presets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: preset %s", timesheet.ErrPresetNotFound, id)
	}
	return nil
}
