package timesheet

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPeriod_CreatesDraftOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.GetPeriod(ctx, employeeID, 2025, 6)
	require.NoError(t, err)
	second, err := env.svc.GetPeriod(ctx, employeeID, 2025, 6)
	require.NoError(t, err)

	assert.Equal(t, first.Version.ID, second.Version.ID)
	assert.Equal(t, timesheet.StatusDraft, first.Version.Status)
	assert.Equal(t, 1, first.Version.Version)
	assert.True(t, first.Version.IsCurrent)
	assert.Empty(t, first.Entries)
	assert.Len(t, env.periodVersions(t, employeeID, 2025, 6), 1)
}

func TestGetPeriod_InvalidPeriod(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetPeriod(context.Background(), employeeID, 2025, 13)
	errs := fieldErrors(t, err)
	assert.Contains(t, errs, "month")

	_, err = env.svc.GetStats(context.Background(), employeeID, 0, 1)
	assert.Contains(t, fieldErrors(t, err), "year")
}

func TestUpsertEntry_ReplacesSameDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.UpsertEntry(ctx, employeeID, workReq("2025-06-02", "09:00", "17:00"))
	require.NoError(t, err)
	second, err := env.svc.UpsertEntry(ctx, employeeID, leaveReq("2025-06-02", timesheet.EntryTypeAnnualLeave))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	view, err := env.svc.GetPeriod(ctx, employeeID, 2025, 6)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, timesheet.EntryTypeAnnualLeave, view.Entries[0].Type)
	assert.Nil(t, view.Entries[0].StartTime)
	assert.Equal(t, 1, view.Stats.LeaveDays)
	assert.Zero(t, view.Stats.WorkingDays)
}

func TestUpsertEntry_InvalidRequestWritesNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UpsertEntry(context.Background(), employeeID, workReq("2025-06-02", "09:00", "09:15"))
	assert.Contains(t, fieldErrors(t, err), "end_time")
	assert.Empty(t, env.periodVersions(t, employeeID, 2025, 6))
}

func TestUpsertEntry_LockedOnceSubmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	version := env.submitted(t, employeeID, "2025-06-02")

	_, err := env.svc.UpsertEntry(ctx, employeeID, workReq("2025-06-03", "09:00", "17:00"))
	assert.ErrorIs(t, err, timesheet.ErrNotEditable)
	assert.ErrorIs(t, env.svc.DeleteEntry(ctx, employeeID, "2025-06-02"), timesheet.ErrNotEditable)

	_, err = env.approvals.Decide(ctx, version.ID, supervisorID, timesheet.StatusApproved, nil)
	require.NoError(t, err)

	_, err = env.svc.UpsertEntry(ctx, employeeID, workReq("2025-06-03", "09:00", "17:00"))
	assert.ErrorIs(t, err, timesheet.ErrNotEditable)

	// other months stay open
	_, err = env.svc.UpsertEntry(ctx, employeeID, workReq("2025-07-01", "09:00", "17:00"))
	assert.NoError(t, err)
}

func TestUpsertEntry_EditableAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	version := env.submitted(t, employeeID, "2025-06-02")
	note := "wrong hours"

	_, err := env.approvals.Decide(ctx, version.ID, supervisorID, timesheet.StatusRejected, &note)
	require.NoError(t, err)

	_, err = env.svc.UpsertEntry(ctx, employeeID, workReq("2025-06-02", "08:00", "16:00"))
	require.NoError(t, err)

	view, err := env.svc.GetPeriod(ctx, employeeID, 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, version.ID, view.Version.ID)
	assert.Equal(t, timesheet.StatusRejected, view.Version.Status)
}

func TestDocuments_AccessAndContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := leaveReq("2025-06-04", timesheet.EntryTypeMedicalLeave)
	req.SupportingDocuments = []timesheet.DocumentUpload{pdfUpload("mc.pdf")}
	entry, err := env.svc.UpsertEntry(ctx, employeeID, req)
	require.NoError(t, err)
	require.Len(t, entry.Documents, 1)
	doc := entry.Documents[0]
	assert.Equal(t, "mc.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Contains(t, doc.StoragePath, "timesheets/"+employeeID+"/"+entry.ID+"/")

	got, rc, err := env.svc.GetDocument(ctx, employeeID, doc.ID)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "%PDF-1.4 supporting document", string(content))

	// supervisor sees nothing until the period is routed to them
	_, _, err = env.svc.GetDocument(ctx, supervisorID, doc.ID)
	assert.ErrorIs(t, err, timesheet.ErrUnauthorized)

	_, err = env.svc.SubmitPeriod(ctx, employeeID, 2025, 6)
	require.NoError(t, err)

	_, rc, err = env.svc.GetDocument(ctx, supervisorID, doc.ID)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	_, _, err = env.svc.GetDocument(ctx, otherSupervisorID, doc.ID)
	assert.ErrorIs(t, err, timesheet.ErrUnauthorized)

	_, _, err = env.svc.GetDocument(ctx, employeeID, "missing")
	assert.ErrorIs(t, err, timesheet.ErrDocumentNotFound)
}

func TestDocuments_ReplacedFilesAreRemoved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := leaveReq("2025-06-04", timesheet.EntryTypeMedicalLeave)
	req.SupportingDocuments = []timesheet.DocumentUpload{pdfUpload("mc.pdf")}
	entry, err := env.svc.UpsertEntry(ctx, employeeID, req)
	require.NoError(t, err)
	oldPath := entry.Documents[0].StoragePath

	exists, err := env.blobs.Exists(ctx, oldPath)
	require.NoError(t, err)
	require.True(t, exists)

	replaced, err := env.svc.UpsertEntry(ctx, employeeID, leaveReq("2025-06-04", timesheet.EntryTypeMedicalLeave))
	require.NoError(t, err)
	assert.Empty(t, replaced.Documents)

	exists, err = env.blobs.Exists(ctx, oldPath)
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, err = env.svc.GetDocument(ctx, employeeID, entry.Documents[0].ID)
	assert.ErrorIs(t, err, timesheet.ErrDocumentNotFound)
}

func TestSaveBulkEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("saves across periods", func(t *testing.T) {
		env := newTestEnv(t)
		saved, err := env.svc.SaveBulkEntries(ctx, employeeID, timesheet.BulkSaveEntriesRequest{Entries: []timesheet.SaveEntryRequest{
			workReq("2025-06-02", "09:00", "17:00"),
			workReq("2025-05-30", "09:00", "17:00"),
			leaveReq("2025-06-03", timesheet.EntryTypeDayOff),
		}})
		require.NoError(t, err)
		assert.Len(t, saved, 3)

		assert.Len(t, env.periodVersions(t, employeeID, 2025, 5), 1)
		assert.Len(t, env.periodVersions(t, employeeID, 2025, 6), 1)

		stats, err := env.svc.GetStats(ctx, employeeID, 2025, 6)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalEntries)
	})

	t.Run("one invalid entry rejects the batch", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.SaveBulkEntries(ctx, employeeID, timesheet.BulkSaveEntriesRequest{Entries: []timesheet.SaveEntryRequest{
			workReq("2025-06-02", "09:00", "17:00"),
			{Date: "2025-06-03", Type: string(timesheet.EntryTypeWorkingHours)},
		}})
		errs := fieldErrors(t, err)
		assert.Contains(t, errs, "entries[1].start_time")
		assert.Contains(t, errs, "entries[1].end_time")
		assert.NotContains(t, errs, "entries[0].start_time")

		stats, err := env.svc.GetStats(ctx, employeeID, 2025, 6)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalEntries)
	})

	t.Run("duplicate dates", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.SaveBulkEntries(ctx, employeeID, timesheet.BulkSaveEntriesRequest{Entries: []timesheet.SaveEntryRequest{
			workReq("2025-06-02", "09:00", "17:00"),
			leaveReq("2025-06-02", timesheet.EntryTypeAnnualLeave),
		}})
		assert.Equal(t, "date 2025-06-02 is already used by entries[0]", fieldErrors(t, err)["entries[1].date"])
	})

	t.Run("empty batch", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.SaveBulkEntries(ctx, employeeID, timesheet.BulkSaveEntriesRequest{})
		assert.Contains(t, fieldErrors(t, err), "entries")
	})

	t.Run("locked period rolls back the whole batch", func(t *testing.T) {
		env := newTestEnv(t)
		env.submitted(t, employeeID, "2025-06-02")

		_, err := env.svc.SaveBulkEntries(ctx, employeeID, timesheet.BulkSaveEntriesRequest{Entries: []timesheet.SaveEntryRequest{
			workReq("2025-05-29", "09:00", "17:00"),
			workReq("2025-06-03", "09:00", "17:00"),
		}})
		assert.ErrorIs(t, err, timesheet.ErrNotEditable)

		assert.Empty(t, env.periodVersions(t, employeeID, 2025, 5))
		stats, err := env.svc.GetStats(ctx, employeeID, 2025, 5)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalEntries)
	})
}

func TestDeleteEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := leaveReq("2025-06-04", timesheet.EntryTypeMedicalLeave)
	req.SupportingDocuments = []timesheet.DocumentUpload{pdfUpload("mc.pdf")}
	entry, err := env.svc.UpsertEntry(ctx, employeeID, req)
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteEntry(ctx, employeeID, "2025-06-04"))

	stats, err := env.svc.GetStats(ctx, employeeID, 2025, 6)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)

	exists, err := env.blobs.Exists(ctx, entry.Documents[0].StoragePath)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, env.svc.DeleteEntry(ctx, employeeID, "2025-06-04"), timesheet.ErrEntryNotFound)
	assert.Contains(t, fieldErrors(t, env.svc.DeleteEntry(ctx, employeeID, "June 4")), "date")
}

func TestSubmitPeriod_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.SubmitPeriod(ctx, employeeID, 2025, 6)
		assert.ErrorIs(t, err, timesheet.ErrEmptyTimesheet)
	})

	t.Run("no supervisor", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.UpsertEntry(ctx, lonerID, workReq("2025-06-02", "09:00", "17:00"))
		require.NoError(t, err)

		_, err = env.svc.SubmitPeriod(ctx, lonerID, 2025, 6)
		assert.ErrorIs(t, err, timesheet.ErrNoSupervisor)

		view, err := env.svc.GetPeriod(ctx, lonerID, 2025, 6)
		require.NoError(t, err)
		assert.Equal(t, timesheet.StatusDraft, view.Version.Status)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.SubmitPeriod(ctx, "ghost", 2025, 6)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("already submitted", func(t *testing.T) {
		env := newTestEnv(t)
		env.submitted(t, employeeID, "2025-06-02")

		_, err := env.svc.SubmitPeriod(ctx, employeeID, 2025, 6)
		assert.ErrorIs(t, err, timesheet.ErrNotEligible)
	})

	t.Run("future month", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.UpsertEntry(ctx, employeeID, workReq("2025-07-01", "09:00", "17:00"))
		require.NoError(t, err)

		_, err = env.svc.SubmitPeriod(ctx, employeeID, 2025, 7)
		assert.ErrorIs(t, err, timesheet.ErrNotEligible)
	})
}

func TestSubmitPeriod_GraceWindow(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	_, err := env.svc.UpsertEntry(ctx, employeeID, workReq("2025-05-20", "09:00", "17:00"))
	require.NoError(t, err)

	env.setNow(time.Date(2025, time.June, 11, 0, 0, 1, 0, time.UTC))
	_, err = env.svc.SubmitPeriod(ctx, employeeID, 2025, 5)
	require.ErrorIs(t, err, timesheet.ErrNotEligible)
	assert.Contains(t, err.Error(), "within the first 10 days")

	env.setNow(time.Date(2025, time.June, 10, 23, 59, 0, 0, time.UTC))
	view, err := env.svc.SubmitPeriod(ctx, employeeID, 2025, 5)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusSubmitted, view.Version.Status)
	require.NotNil(t, view.Version.ApproverID)
	assert.Equal(t, supervisorID, *view.Version.ApproverID)
	require.NotNil(t, view.Version.SubmittedAt)
	assert.True(t, view.Version.SubmittedAt.Equal(time.Date(2025, time.June, 10, 23, 59, 0, 0, time.UTC)))
}

func TestSubmitPeriod_ConcurrentSubmitsCreateOneVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.UpsertEntry(ctx, employeeID, workReq("2025-06-02", "09:00", "17:00"))
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.SubmitPeriod(ctx, employeeID, 2025, 6)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	for _, err := range failures {
		assert.ErrorIs(t, err, timesheet.ErrNotEligible)
	}
	versions := env.periodVersions(t, employeeID, 2025, 6)
	require.Len(t, versions, 1)
	assert.Equal(t, timesheet.StatusSubmitted, versions[0].Status)
}

func TestResubmissionAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setNow(time.Date(2025, time.May, 28, 10, 0, 0, 0, time.UTC))
	first := env.submitted(t, employeeID, "2025-05-02")
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, timesheet.StatusSubmitted, first.Status)

	note := "missing doc"
	rejected, err := env.approvals.Decide(ctx, first.ID, supervisorID, timesheet.StatusRejected, &note)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, rejected.Status)

	env.setNow(time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC))
	_, err = env.svc.UpsertEntry(ctx, employeeID, workReq("2025-05-02", "08:00", "17:00"))
	require.NoError(t, err)

	eligibility, err := env.svc.CheckEligibility(ctx, employeeID, 2025, 5)
	require.NoError(t, err)
	assert.True(t, eligibility.CanResubmit)

	view, err := env.svc.SubmitPeriod(ctx, employeeID, 2025, 5)
	require.NoError(t, err)
	second := view.Version
	assert.Equal(t, 2, second.Version)
	assert.True(t, second.IsCurrent)
	assert.Equal(t, timesheet.StatusSubmitted, second.Status)
	require.NotNil(t, second.PreviousVersionID)
	assert.Equal(t, first.ID, *second.PreviousVersionID)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "08:00", view.Entries[0].StartTime.String())

	old, err := env.versions.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, old.Status)
	assert.False(t, old.IsCurrent)
	require.NotNil(t, old.ApprovalComments)
	assert.Equal(t, "missing doc", *old.ApprovalComments)

	history, err := env.svc.GetHistory(ctx, employeeID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].Version.ID)
	assert.Equal(t, first.ID, history[1].Version.ID)
}

func TestCheckEligibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.svc.CheckEligibility(ctx, employeeID, 2025, 5)
	require.NoError(t, err)
	assert.Equal(t, timesheet.Eligibility{CanSubmit: true, CanPerformAction: true}, got)

	env.setNow(time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC))
	got, err = env.svc.CheckEligibility(ctx, employeeID, 2025, 5)
	require.NoError(t, err)
	assert.False(t, got.CanSubmit)
	assert.False(t, got.CanResubmit)
	assert.False(t, got.CanPerformAction)
	assert.Equal(t, DeadlineMessage(time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC), 2025, 5), got.Message)

	_, err = env.svc.CheckEligibility(ctx, employeeID, 2025, 0)
	var errs validator.ValidationErrors
	assert.True(t, errors.As(err, &errs))
}

func TestGetAvailableMonths(t *testing.T) {
	ctx := context.Background()

	t.Run("grace window shows previous month first", func(t *testing.T) {
		env := newTestEnv(t)
		months, err := env.svc.GetAvailableMonths(ctx, employeeID)
		require.NoError(t, err)
		require.Len(t, months, 2)

		assert.Equal(t, 5, months[0].Month)
		assert.Equal(t, "May", months[0].MonthName)
		assert.False(t, months[0].IsCurrentMonth)
		assert.Nil(t, months[0].Status)

		assert.Equal(t, 6, months[1].Month)
		assert.True(t, months[1].IsCurrentMonth)
	})

	t.Run("after the window", func(t *testing.T) {
		env := newTestEnv(t)
		env.setNow(time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC))
		months, err := env.svc.GetAvailableMonths(ctx, employeeID)
		require.NoError(t, err)
		require.Len(t, months, 1)
		assert.Equal(t, 6, months[0].Month)
	})

	t.Run("submitted previous month is hidden", func(t *testing.T) {
		env := newTestEnv(t)
		env.submitted(t, employeeID, "2025-05-15")
		env.submitted(t, employeeID, "2025-06-02")

		months, err := env.svc.GetAvailableMonths(ctx, employeeID)
		require.NoError(t, err)
		require.Len(t, months, 1)
		assert.Equal(t, 6, months[0].Month)
		assert.True(t, months[0].IsSubmitted)
		require.NotNil(t, months[0].Status)
		assert.Equal(t, timesheet.StatusSubmitted, *months[0].Status)
	})

	t.Run("january includes december", func(t *testing.T) {
		env := newTestEnv(t)
		env.setNow(time.Date(2026, time.January, 3, 9, 0, 0, 0, time.UTC))
		months, err := env.svc.GetAvailableMonths(ctx, employeeID)
		require.NoError(t, err)
		require.Len(t, months, 2)
		assert.Equal(t, 2025, months[0].Year)
		assert.Equal(t, 12, months[0].Month)
		assert.Equal(t, 2026, months[1].Year)
	})
}

func TestGetHistory_SkipsDrafts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.GetPeriod(ctx, employeeID, 2025, 4)
	require.NoError(t, err)
	env.submitted(t, employeeID, "2025-06-02")

	history, err := env.svc.GetHistory(ctx, employeeID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 6, history[0].Version.Month)
	assert.Equal(t, 1, history[0].Stats.WorkingDays)
}

func TestPresets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	office, err := env.svc.SavePreset(ctx, employeeID, timesheet.SavePresetRequest{Name: "Office", StartTime: "09:00", EndTime: "18:00", IsDefault: true})
	require.NoError(t, err)
	night, err := env.svc.SavePreset(ctx, employeeID, timesheet.SavePresetRequest{Name: "Night", StartTime: "22:00", EndTime: "06:00", IsDefault: true})
	require.NoError(t, err)

	presets, err := env.svc.ListPresets(ctx, employeeID)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, night.ID, presets[0].ID)
	assert.True(t, presets[0].IsDefault)
	assert.Equal(t, office.ID, presets[1].ID)
	assert.False(t, presets[1].IsDefault)

	_, err = env.svc.SavePreset(ctx, employeeID, timesheet.SavePresetRequest{Name: "Blip", StartTime: "09:00", EndTime: "09:10"})
	assert.Equal(t, timesheet.ErrShiftTooShort.Error(), fieldErrors(t, err)["end_time"])

	_, err = env.svc.SavePreset(ctx, employeeID, timesheet.SavePresetRequest{Name: "Bad", StartTime: "nine", EndTime: "17:00"})
	assert.Contains(t, fieldErrors(t, err), "start_time")

	assert.ErrorIs(t, env.svc.DeletePreset(ctx, supervisorID, office.ID), timesheet.ErrPresetNotFound)
	require.NoError(t, env.svc.DeletePreset(ctx, employeeID, office.ID))

	presets, err = env.svc.ListPresets(ctx, employeeID)
	require.NoError(t, err)
	assert.Len(t, presets, 1)
}
