package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const entryColumns = `id, user_id, entry_date, entry_type, start_time, end_time, half_day_period,
	date_earned, primary_document_day, is_primary_document, notes, created_at, updated_at`

type entryRepositoryImpl struct {
	db *database.DB
}

func NewEntryRepository(db *database.DB) timesheet.EntryRepository {
	return &entryRepositoryImpl{db: db}
}

func toPgTime(c *timesheet.ClockTime) pgtype.Time {
	if c == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: c.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) *timesheet.ClockTime {
	if !t.Valid {
		return nil
	}
	c := timesheet.ClockTime(t.Microseconds / int64(time.Second/time.Microsecond))
	return &c
}

func scanEntry(row pgx.Row) (timesheet.DayEntry, error) {
	var (
		e          timesheet.DayEntry
		start, end pgtype.Time
	)
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Date,
		&e.Type,
		&start,
		&end,
		&e.HalfDayPeriod,
		&e.DateEarned,
		&e.PrimaryDocumentDay,
		&e.IsPrimaryDocument,
		&e.Notes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	e.StartTime = fromPgTime(start)
	e.EndTime = fromPgTime(end)
	return e, err
}

// GetByID implements timesheet.EntryRepository.
func (r *entryRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.DayEntry, error) {
	if !isUUID(id) {
		return timesheet.DayEntry{}, fmt.Errorf("%w: entry %s", timesheet.ErrEntryNotFound, id)
	}
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + entryColumns + ` FROM day_entries WHERE id = $1`
	e, err := scanEntry(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return timesheet.DayEntry{}, fmt.Errorf("%w: entry %s", timesheet.ErrEntryNotFound, id)
	}
	return e, err
}

// GetByDate implements timesheet.EntryRepository.
func (r *entryRepositoryImpl) GetByDate(ctx context.Context, userID string, date time.Time) (timesheet.DayEntry, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + entryColumns + ` FROM day_entries WHERE user_id = $1 AND entry_date = $2`
	e, err := scanEntry(q.QueryRow(ctx, query, userID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return timesheet.DayEntry{}, fmt.Errorf("%w: entry on %s", timesheet.ErrEntryNotFound, date.Format("2006-01-02"))
	}
	return e, err
}

// ListByPeriod implements timesheet.EntryRepository.
func (r *entryRepositoryImpl) ListByPeriod(ctx context.Context, key timesheet.PeriodKey) ([]timesheet.DayEntry, error) {
	q := GetQuerier(ctx, r.db)
	from, to := key.Bounds()
	query := `SELECT ` + entryColumns + `
		FROM day_entries
		WHERE user_id = $1 AND entry_date >= $2 AND entry_date < $3
		ORDER BY entry_date ASC
	`
	rows, err := q.Query(ctx, query, key.UserID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []timesheet.DayEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByPeriod implements timesheet.EntryRepository.
func (r *entryRepositoryImpl) CountByPeriod(ctx context.Context, key timesheet.PeriodKey) (int, error) {
	q := GetQuerier(ctx, r.db)
	from, to := key.Bounds()
	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM day_entries
		WHERE user_id = $1 AND entry_date >= $2 AND entry_date < $3
	`, key.UserID, from, to).Scan(&count)
	return count, err
}

// Upsert implements timesheet.EntryRepository.
// The (user_id, entry_date) pair is unique, so a second save replaces the row.
func (r *entryRepositoryImpl) Upsert(ctx context.Context, entry timesheet.DayEntry) (timesheet.DayEntry, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO day_entries (
			id, user_id, entry_date, entry_type, start_time, end_time, half_day_period,
			date_earned, primary_document_day, is_primary_document, notes, created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, NOW(), NOW()
		)
		ON CONFLICT (user_id, entry_date) DO UPDATE SET
			entry_type = EXCLUDED.entry_type,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			half_day_period = EXCLUDED.half_day_period,
			date_earned = EXCLUDED.date_earned,
			primary_document_day = EXCLUDED.primary_document_day,
			is_primary_document = EXCLUDED.is_primary_document,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING ` + entryColumns
	return scanEntry(q.QueryRow(ctx, query,
		entry.UserID,
		entry.Date,
		entry.Type,
		toPgTime(entry.StartTime),
		toPgTime(entry.EndTime),
		entry.HalfDayPeriod,
		entry.DateEarned,
		entry.PrimaryDocumentDay,
		entry.IsPrimaryDocument,
		entry.Notes,
	))
}

// DeleteByDate implements timesheet.EntryRepository.
// Documents go with the entry through ON DELETE CASCADE.
func (r *entryRepositoryImpl) DeleteByDate(ctx context.Context, userID string, date time.Time) error {
	q := GetQuerier(ctx, r.db)
	commandTag, err := q.Exec(ctx, `DELETE FROM day_entries WHERE user_id = $1 AND entry_date = $2`, userID, date)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: entry on %s", timesheet.ErrEntryNotFound, date.Format("2006-01-02"))
	}
	return nil
}
