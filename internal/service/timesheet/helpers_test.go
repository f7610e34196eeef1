package timesheet

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/service/file"
	"github.com/stretchr/testify/require"
)

const (
	supervisorID      = "sup-1"
	otherSupervisorID = "sup-2"
	employeeID        = "emp-1"
	lonerID           = "loner"
)

type testEnv struct {
	store     *memory.Store
	blobs     *storage.LocalStorage
	versions  timesheet.VersionRepository
	entries   timesheet.EntryRepository
	svc       *TimesheetServiceImpl
	approvals *ApprovalServiceImpl
	machine   *StateMachine
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithCache(t, nil)
}

func newTestEnvWithCache(t *testing.T, summaryCache *cache.Cache) *testEnv {
	t.Helper()

	store := memory.NewStore()
	sup := supervisorID
	store.Seed([]user.User{
		{ID: supervisorID, FullName: "Siti Rahma", Email: "siti@example.com"},
		{ID: otherSupervisorID, FullName: "Budi Santoso", Email: "budi@example.com"},
		{ID: employeeID, FullName: "Andi Wijaya", Email: "andi@example.com", SupervisorID: &sup},
		{ID: lonerID, FullName: "Rina Lestari", Email: "rina@example.com"},
	})

	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	versions := memory.NewVersionRepository(store)
	entries := memory.NewEntryRepository(store)
	documents := memory.NewDocumentRepository(store)
	presets := memory.NewPresetRepository(store)
	directory := memory.NewUserDirectory(store)

	env := &testEnv{
		store:    store,
		blobs:    blobs,
		versions: versions,
		entries:  entries,
		svc: NewTimesheetService(store, versions, entries, documents, presets, directory,
			file.NewFileService(blobs), summaryCache),
		approvals: NewApprovalService(store, versions, entries, documents, directory, summaryCache),
		machine:   NewStateMachine(versions, entries),
	}
	env.setNow(time.Date(2025, time.June, 5, 9, 30, 0, 0, time.UTC))
	return env
}

func (e *testEnv) setNow(now time.Time) {
	e.svc.now = func() time.Time { return now }
	e.approvals.now = func() time.Time { return now }
}

func workReq(date, start, end string) timesheet.SaveEntryRequest {
	return timesheet.SaveEntryRequest{
		Date:      date,
		Type:      string(timesheet.EntryTypeWorkingHours),
		StartTime: &start,
		EndTime:   &end,
	}
}

func leaveReq(date string, entryType timesheet.EntryType) timesheet.SaveEntryRequest {
	return timesheet.SaveEntryRequest{Date: date, Type: string(entryType)}
}

// submitted puts one entry in the period and submits it.
func (e *testEnv) submitted(t *testing.T, userID, date string) timesheet.Version {
	t.Helper()
	ctx := context.Background()
	_, err := e.svc.UpsertEntry(ctx, userID, workReq(date, "09:00", "17:00"))
	require.NoError(t, err)

	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	view, err := e.svc.SubmitPeriod(ctx, userID, day.Year(), int(day.Month()))
	require.NoError(t, err)
	return view.Version
}

func (e *testEnv) periodVersions(t *testing.T, userID string, year, month int) []timesheet.Version {
	t.Helper()
	vs, err := e.versions.ListByPeriod(context.Background(), timesheet.PeriodKey{UserID: userID, Year: year, Month: month})
	require.NoError(t, err)
	return vs
}
