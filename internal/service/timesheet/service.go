package timesheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/service/file"
)

type TimesheetServiceImpl struct {
	tx timesheet.Transactor
	periodReader
	presets timesheet.PresetRepository
	users   user.Directory
	files   file.FileService
	cache   *cache.Cache
	machine *StateMachine
	now     func() time.Time
}

func NewTimesheetService(
	tx timesheet.Transactor,
	versionRepository timesheet.VersionRepository,
	entryRepository timesheet.EntryRepository,
	documentRepository timesheet.DocumentRepository,
	presetRepository timesheet.PresetRepository,
	directory user.Directory,
	fileService file.FileService,
	summaryCache *cache.Cache,
) *TimesheetServiceImpl {
	return &TimesheetServiceImpl{
		tx: tx,
		periodReader: periodReader{
			versions:  versionRepository,
			entries:   entryRepository,
			documents: documentRepository,
		},
		presets: presetRepository,
		users:   directory,
		files:   fileService,
		cache:   summaryCache,
		machine: NewStateMachine(versionRepository, entryRepository),
		now:     time.Now,
	}
}

var _ timesheet.TimesheetService = (*TimesheetServiceImpl)(nil)

// GetPeriod implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetPeriod(ctx context.Context, userID string, year, month int) (timesheet.PeriodView, error) {
	key, err := periodKey(userID, year, month)
	if err != nil {
		return timesheet.PeriodView{}, err
	}

	var version timesheet.Version
	err = withPeriodLock(ctx, s.tx, s.versions, key, func(ctx context.Context) error {
		version, err = s.machine.GetOrCreateCurrent(ctx, key)
		return err
	})
	if err != nil {
		return timesheet.PeriodView{}, err
	}

	return s.view(ctx, version)
}

// GetStats implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetStats(ctx context.Context, userID string, year, month int) (timesheet.Stats, error) {
	key, err := periodKey(userID, year, month)
	if err != nil {
		return timesheet.Stats{}, err
	}
	entries, err := s.entries.ListByPeriod(ctx, key)
	if err != nil {
		return timesheet.Stats{}, fmt.Errorf("failed to list entries: %w", err)
	}
	return CalculateStats(entries), nil
}

// UpsertEntry implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) UpsertEntry(ctx context.Context, userID string, req timesheet.SaveEntryRequest) (timesheet.DayEntry, error) {
	validated, err := ValidateEntry(req)
	if err != nil {
		return timesheet.DayEntry{}, err
	}

	saved, err := s.saveEntries(ctx, userID, []ValidatedEntry{validated})
	if err != nil {
		return timesheet.DayEntry{}, err
	}
	return saved[0], nil
}

// SaveBulkEntries implements timesheet.TimesheetService.
// Every entry is validated before anything is written.
func (s *TimesheetServiceImpl) SaveBulkEntries(ctx context.Context, userID string, req timesheet.BulkSaveEntriesRequest) ([]timesheet.DayEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var errs validator.ValidationErrors
	validated := make([]ValidatedEntry, 0, len(req.Entries))
	seen := make(map[string]int, len(req.Entries))
	for i, entryReq := range req.Entries {
		v, err := ValidateEntry(entryReq)
		if err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return nil, err
			}
			for _, fe := range fieldErrs {
				errs.Add(fmt.Sprintf("entries[%d].%s", i, fe.Field), fe.Message)
			}
			continue
		}
		if first, dup := seen[entryReq.Date]; dup {
			errs.Add(fmt.Sprintf("entries[%d].date", i), fmt.Sprintf("date %s is already used by entries[%d]", entryReq.Date, first))
			continue
		}
		seen[entryReq.Date] = i
		validated = append(validated, v)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return s.saveEntries(ctx, userID, validated)
}

// saveEntries writes validated entries in one transaction. Each touched
// period is locked, checked for editability and withdrawn if pending.
func (s *TimesheetServiceImpl) saveEntries(ctx context.Context, userID string, batch []ValidatedEntry) ([]timesheet.DayEntry, error) {
	keys := distinctPeriods(userID, batch)

	var (
		saved     []timesheet.DayEntry
		uploaded  []string
		replaced  []string
		withdrawn bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, key := range keys {
			if err := s.versions.LockPeriod(ctx, key); err != nil {
				return fmt.Errorf("failed to lock period: %w", err)
			}
			version, err := s.machine.GetOrCreateCurrent(ctx, key)
			if err != nil {
				return err
			}
			if !CanEdit(&version.Status) {
				return timesheet.ErrNotEditable
			}
		}

		saved = make([]timesheet.DayEntry, 0, len(batch))
		for _, item := range batch {
			entry := item.Entry
			entry.UserID = userID

			existing, err := s.entries.GetByDate(ctx, userID, entry.Date)
			switch {
			case err == nil:
				entry.ID = existing.ID
				removed, err := s.documents.DeleteByEntry(ctx, existing.ID)
				if err != nil {
					return fmt.Errorf("failed to delete existing documents: %w", err)
				}
				for _, doc := range removed {
					replaced = append(replaced, doc.StoragePath)
				}
			case !errors.Is(err, timesheet.ErrEntryNotFound):
				return fmt.Errorf("failed to get entry: %w", err)
			}

			stored, err := s.entries.Upsert(ctx, entry)
			if err != nil {
				return fmt.Errorf("failed to save entry: %w", err)
			}

			for _, payload := range item.Documents {
				path, err := s.files.UploadEntryDocument(ctx, userID, stored.ID, payload.FileName, payload.ContentType, payload.Content)
				if err != nil {
					return err
				}
				uploaded = append(uploaded, path)

				doc, err := s.documents.Create(ctx, timesheet.Document{
					DayEntryID:  stored.ID,
					FileName:    payload.FileName,
					ContentType: payload.ContentType,
					Size:        int64(len(payload.Content)),
					StoragePath: path,
				})
				if err != nil {
					return fmt.Errorf("failed to save document: %w", err)
				}
				stored.Documents = append(stored.Documents, doc)
			}
			saved = append(saved, stored)
		}

		for _, key := range keys {
			changed, err := s.machine.WithdrawIfPending(ctx, key)
			if err != nil {
				return err
			}
			withdrawn = withdrawn || changed
		}
		return nil
	})
	if err != nil {
		s.removeFiles(ctx, uploaded)
		return nil, err
	}

	s.removeFiles(ctx, replaced)
	if withdrawn {
		s.invalidateSummaries(ctx)
	}

	slog.Info("timesheet entries saved", "user_id", userID, "count", len(saved))
	return saved, nil
}

// DeleteEntry implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) DeleteEntry(ctx context.Context, userID string, date string) error {
	day, ok := validator.IsValidDate(date)
	if !ok {
		return validator.ValidationErrors{{Field: "date", Message: fmt.Sprintf("Invalid date format: %s", date)}}
	}
	key := timesheet.PeriodOf(userID, day)

	var (
		removed   []string
		withdrawn bool
	)
	err := withPeriodLock(ctx, s.tx, s.versions, key, func(ctx context.Context) error {
		current, err := s.machine.Current(ctx, key)
		if err != nil {
			return err
		}
		var status *timesheet.Status
		if current != nil {
			status = &current.Status
		}
		if !CanEdit(status) {
			return timesheet.ErrNotEditable
		}

		existing, err := s.entries.GetByDate(ctx, userID, day)
		if err != nil {
			return err
		}
		docs, err := s.documents.DeleteByEntry(ctx, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
		for _, doc := range docs {
			removed = append(removed, doc.StoragePath)
		}
		if err := s.entries.DeleteByDate(ctx, userID, day); err != nil {
			return err
		}

		withdrawn, err = s.machine.WithdrawIfPending(ctx, key)
		return err
	})
	if err != nil {
		return err
	}

	s.removeFiles(ctx, removed)
	if withdrawn {
		s.invalidateSummaries(ctx)
	}
	slog.Info("timesheet entry deleted", "user_id", userID, "date", date)
	return nil
}

// SubmitPeriod implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) SubmitPeriod(ctx context.Context, userID string, year, month int) (timesheet.PeriodView, error) {
	key, err := periodKey(userID, year, month)
	if err != nil {
		return timesheet.PeriodView{}, err
	}

	actor, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return timesheet.PeriodView{}, fmt.Errorf("failed to get user: %w", err)
	}

	var version timesheet.Version
	err = withPeriodLock(ctx, s.tx, s.versions, key, func(ctx context.Context) error {
		version, err = s.machine.Submit(ctx, key, actor, s.now())
		return err
	})
	if err != nil {
		return timesheet.PeriodView{}, err
	}

	s.invalidateSummaries(ctx)
	return s.view(ctx, version)
}

// CheckEligibility implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) CheckEligibility(ctx context.Context, userID string, year, month int) (timesheet.Eligibility, error) {
	key, err := periodKey(userID, year, month)
	if err != nil {
		return timesheet.Eligibility{}, err
	}
	status, err := s.currentStatus(ctx, key)
	if err != nil {
		return timesheet.Eligibility{}, err
	}

	now := s.now()
	result := timesheet.Eligibility{
		CanSubmit:   CanSubmit(now, year, month),
		CanResubmit: CanResubmit(status, now, year, month),
	}
	result.CanPerformAction = result.CanSubmit || result.CanResubmit
	if !result.CanPerformAction {
		result.Message = DeadlineMessage(now, year, month)
	}
	return result, nil
}

// GetAvailableMonths implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetAvailableMonths(ctx context.Context, userID string) ([]timesheet.AvailableMonth, error) {
	today := s.now()

	current, err := s.availableMonth(ctx, userID, today, true)
	if err != nil {
		return nil, err
	}
	months := []timesheet.AvailableMonth{current}

	if today.Day() <= GraceDays {
		previous, err := s.availableMonth(ctx, userID, firstOfMonth(today).AddDate(0, -1, 0), false)
		if err != nil {
			return nil, err
		}
		// a submitted or approved previous month has nothing left to do
		if CanEdit(previous.Status) {
			months = append([]timesheet.AvailableMonth{previous}, months...)
		}
	}
	return months, nil
}

func (s *TimesheetServiceImpl) availableMonth(ctx context.Context, userID string, day time.Time, isCurrent bool) (timesheet.AvailableMonth, error) {
	key := timesheet.PeriodOf(userID, day)
	status, err := s.currentStatus(ctx, key)
	if err != nil {
		return timesheet.AvailableMonth{}, err
	}
	return timesheet.AvailableMonth{
		Year:           key.Year,
		Month:          key.Month,
		MonthName:      time.Month(key.Month).String(),
		IsCurrentMonth: isCurrent,
		Status:         status,
		IsSubmitted:    status != nil && *status != timesheet.StatusDraft,
	}, nil
}

// GetHistory implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetHistory(ctx context.Context, userID string) ([]timesheet.HistoryItem, error) {
	versions, err := s.versions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheet versions: %w", err)
	}

	stats := make(map[timesheet.PeriodKey]timesheet.Stats)
	items := make([]timesheet.HistoryItem, 0, len(versions))
	for _, v := range versions {
		if v.Status == timesheet.StatusDraft {
			continue
		}
		key := v.PeriodKey()
		st, ok := stats[key]
		if !ok {
			entries, err := s.entries.ListByPeriod(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to list entries: %w", err)
			}
			st = CalculateStats(entries)
			stats[key] = st
		}
		items = append(items, timesheet.HistoryItem{Version: v, Stats: st})
	}
	return items, nil
}

// ListPresets implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) ListPresets(ctx context.Context, userID string) ([]timesheet.WorkingHoursPreset, error) {
	return s.presets.ListByUser(ctx, userID)
}

// SavePreset implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) SavePreset(ctx context.Context, userID string, req timesheet.SavePresetRequest) (timesheet.WorkingHoursPreset, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WorkingHoursPreset{}, err
	}
	start, _ := timesheet.ParseClockTime(req.StartTime)
	end, _ := timesheet.ParseClockTime(req.EndTime)
	if err := ValidateShift(start, end); err != nil {
		return timesheet.WorkingHoursPreset{}, validator.ValidationErrors{{Field: "end_time", Message: err.Error()}}
	}

	var created timesheet.WorkingHoursPreset
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if req.IsDefault {
			if err := s.presets.ClearDefault(ctx, userID); err != nil {
				return fmt.Errorf("failed to clear default preset: %w", err)
			}
		}
		var err error
		created, err = s.presets.Create(ctx, timesheet.WorkingHoursPreset{
			UserID:    userID,
			Name:      req.Name,
			StartTime: start,
			EndTime:   end,
			IsDefault: req.IsDefault,
		})
		return err
	})
	if err != nil {
		return timesheet.WorkingHoursPreset{}, err
	}
	return created, nil
}

// DeletePreset implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) DeletePreset(ctx context.Context, userID, presetID string) error {
	return s.presets.Delete(ctx, userID, presetID)
}

// GetDocument implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetDocument(ctx context.Context, userID, documentID string) (timesheet.Document, io.ReadCloser, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return timesheet.Document{}, nil, err
	}
	entry, err := s.entries.GetByID(ctx, doc.DayEntryID)
	if err != nil {
		return timesheet.Document{}, nil, err
	}

	if entry.UserID != userID {
		current, err := s.machine.Current(ctx, entry.PeriodKey())
		if err != nil {
			return timesheet.Document{}, nil, err
		}
		if current == nil || !current.IsAssignedTo(userID) {
			return timesheet.Document{}, nil, timesheet.ErrUnauthorized
		}
	}

	rc, err := s.files.OpenFile(ctx, doc.StoragePath)
	if err != nil {
		return timesheet.Document{}, nil, fmt.Errorf("failed to open document: %w", err)
	}
	return doc, rc, nil
}

func (s *TimesheetServiceImpl) currentStatus(ctx context.Context, key timesheet.PeriodKey) (*timesheet.Status, error) {
	current, err := s.machine.Current(ctx, key)
	if err != nil || current == nil {
		return nil, err
	}
	return &current.Status, nil
}

func (s *TimesheetServiceImpl) removeFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.files.DeleteFile(ctx, p); err != nil {
			slog.Warn("failed to remove document file", "path", p, "error", err)
		}
	}
}

func (s *TimesheetServiceImpl) invalidateSummaries(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		slog.Warn("failed to invalidate approval summaries", "error", err)
	}
}

// periodReader assembles period views from the repositories.
type periodReader struct {
	versions  timesheet.VersionRepository
	entries   timesheet.EntryRepository
	documents timesheet.DocumentRepository
}

func (r periodReader) entriesWithDocuments(ctx context.Context, key timesheet.PeriodKey) ([]timesheet.DayEntry, error) {
	entries, err := r.entries.ListByPeriod(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	docs, err := r.documents.ListByEntries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	for i := range entries {
		entries[i].Documents = docs[entries[i].ID]
	}
	return entries, nil
}

func (r periodReader) view(ctx context.Context, version timesheet.Version) (timesheet.PeriodView, error) {
	entries, err := r.entriesWithDocuments(ctx, version.PeriodKey())
	if err != nil {
		return timesheet.PeriodView{}, err
	}
	return timesheet.PeriodView{
		Version: version,
		Entries: entries,
		Stats:   CalculateStats(entries),
	}, nil
}

// withPeriodLock runs fn in a transaction holding the period lock.
func withPeriodLock(ctx context.Context, tx timesheet.Transactor, versions timesheet.VersionRepository, key timesheet.PeriodKey, fn func(ctx context.Context) error) error {
	return tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := versions.LockPeriod(ctx, key); err != nil {
			return fmt.Errorf("failed to lock period: %w", err)
		}
		return fn(ctx)
	})
}

func periodKey(userID string, year, month int) (timesheet.PeriodKey, error) {
	var errs validator.ValidationErrors
	if year < 1 || year > 9999 {
		errs.Add("year", "year must be between 1 and 9999")
	}
	if month < 1 || month > 12 {
		errs.Add("month", "month must be between 1 and 12")
	}
	if err := errs.Err(); err != nil {
		return timesheet.PeriodKey{}, err
	}
	return timesheet.PeriodKey{UserID: userID, Year: year, Month: month}, nil
}

// distinctPeriods returns the periods touched by batch in chronological
// order, so concurrent writers lock them in the same sequence.
func distinctPeriods(userID string, batch []ValidatedEntry) []timesheet.PeriodKey {
	seen := make(map[timesheet.PeriodKey]bool)
	var keys []timesheet.PeriodKey
	for _, item := range batch {
		key := timesheet.PeriodOf(userID, item.Entry.Date)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Month < keys[j].Month
	})
	return keys
}
