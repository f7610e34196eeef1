package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
)

type entryRepositoryImpl struct {
	store *Store
}

func NewEntryRepository(store *Store) timesheet.EntryRepository {
	return &entryRepositoryImpl{store: store}
}

func (r *entryRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.DayEntry, error) {
	var (
		found timesheet.DayEntry
		ok    bool
	)
	r.store.read(ctx, func() {
		found, ok = r.store.entries[id]
	})
	if !ok {
		return timesheet.DayEntry{}, notFound(timesheet.ErrEntryNotFound, "entry", id)
	}
	return found, nil
}

// findByDate expects the store lock to be held.
func (r *entryRepositoryImpl) findByDate(userID string, date time.Time) (timesheet.DayEntry, bool) {
	day := dateKey(date)
	for _, e := range r.store.entries {
		if e.UserID == userID && dateKey(e.Date) == day {
			return e, true
		}
	}
	return timesheet.DayEntry{}, false
}

func (r *entryRepositoryImpl) GetByDate(ctx context.Context, userID string, date time.Time) (timesheet.DayEntry, error) {
	var (
		found timesheet.DayEntry
		ok    bool
	)
	r.store.read(ctx, func() {
		found, ok = r.findByDate(userID, date)
	})
	if !ok {
		return timesheet.DayEntry{}, notFound(timesheet.ErrEntryNotFound, "entry on", dateKey(date))
	}
	return found, nil
}

func (r *entryRepositoryImpl) ListByPeriod(ctx context.Context, key timesheet.PeriodKey) ([]timesheet.DayEntry, error) {
	out := []timesheet.DayEntry{}
	r.store.read(ctx, func() {
		for _, e := range r.store.entries {
			if e.UserID == key.UserID && key.Contains(e.Date) {
				out = append(out, e)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *entryRepositoryImpl) CountByPeriod(ctx context.Context, key timesheet.PeriodKey) (int, error) {
	entries, err := r.ListByPeriod(ctx, key)
	return len(entries), err
}

func (r *entryRepositoryImpl) Upsert(ctx context.Context, entry timesheet.DayEntry) (timesheet.DayEntry, error) {
	err := r.store.write(ctx, func() error {
		now := r.store.now()
		if existing, ok := r.findByDate(entry.UserID, entry.Date); ok {
			entry.ID = existing.ID
			entry.CreatedAt = existing.CreatedAt
		} else {
			entry.ID = newID()
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		entry.Documents = nil
		r.store.entries[entry.ID] = entry
		return nil
	})
	if err != nil {
		return timesheet.DayEntry{}, err
	}
	return entry, nil
}

func (r *entryRepositoryImpl) DeleteByDate(ctx context.Context, userID string, date time.Time) error {
	return r.store.write(ctx, func() error {
		existing, ok := r.findByDate(userID, date)
		if !ok {
			return notFound(timesheet.ErrEntryNotFound, "entry on", dateKey(date))
		}
		delete(r.store.entries, existing.ID)
		for id, doc := range r.store.documents {
			if doc.DayEntryID == existing.ID {
				delete(r.store.documents, id)
			}
		}
		return nil
	})
}
