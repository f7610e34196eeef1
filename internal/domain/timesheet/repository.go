package timesheet

import (
	"context"
	"time"
)

// Transactor runs fn in a single unit of work. Repositories called with the
// ctx passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// VersionRepository - interface for timesheet_versions table
type VersionRepository interface {
	// LockPeriod serializes writers of one period until the surrounding transaction ends.
	LockPeriod(ctx context.Context, key PeriodKey) error
	GetCurrent(ctx context.Context, key PeriodKey) (Version, error)
	GetByID(ctx context.Context, id string) (Version, error)
	ListByPeriod(ctx context.Context, key PeriodKey) ([]Version, error)
	ListByUser(ctx context.Context, userID string) ([]Version, error)
	ListCurrentByApprover(ctx context.Context, approverID string, status Status) ([]Version, error)
	ListByApprover(ctx context.Context, approverID string) ([]Version, error)
	CountApprovedBetween(ctx context.Context, approverID string, from, to time.Time) (int, error)
	Create(ctx context.Context, version Version) (Version, error)
	Update(ctx context.Context, version Version) error
}

// EntryRepository - interface for day_entries table
type EntryRepository interface {
	GetByID(ctx context.Context, id string) (DayEntry, error)
	GetByDate(ctx context.Context, userID string, date time.Time) (DayEntry, error)
	ListByPeriod(ctx context.Context, key PeriodKey) ([]DayEntry, error)
	CountByPeriod(ctx context.Context, key PeriodKey) (int, error)
	Upsert(ctx context.Context, entry DayEntry) (DayEntry, error)
	DeleteByDate(ctx context.Context, userID string, date time.Time) error
}

// DocumentRepository - interface for entry_documents table
type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (Document, error)
	ListByEntries(ctx context.Context, entryIDs []string) (map[string][]Document, error)
	Create(ctx context.Context, doc Document) (Document, error)
	// DeleteByEntry removes the entry's documents and returns what was removed.
	DeleteByEntry(ctx context.Context, entryID string) ([]Document, error)
}

// PresetRepository - interface for working_hours_presets table
type PresetRepository interface {
	ListByUser(ctx context.Context, userID string) ([]WorkingHoursPreset, error)
	Create(ctx context.Context, preset WorkingHoursPreset) (WorkingHoursPreset, error)
	ClearDefault(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, id string) error
}
