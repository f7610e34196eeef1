package timesheet

import (
	"context"
	"io"
)

type TimesheetService interface {
	GetPeriod(ctx context.Context, userID string, year, month int) (PeriodView, error)
	GetStats(ctx context.Context, userID string, year, month int) (Stats, error)
	UpsertEntry(ctx context.Context, userID string, req SaveEntryRequest) (DayEntry, error)
	SaveBulkEntries(ctx context.Context, userID string, req BulkSaveEntriesRequest) ([]DayEntry, error)
	DeleteEntry(ctx context.Context, userID string, date string) error
	SubmitPeriod(ctx context.Context, userID string, year, month int) (PeriodView, error)
	CheckEligibility(ctx context.Context, userID string, year, month int) (Eligibility, error)
	GetAvailableMonths(ctx context.Context, userID string) ([]AvailableMonth, error)
	GetHistory(ctx context.Context, userID string) ([]HistoryItem, error)

	ListPresets(ctx context.Context, userID string) ([]WorkingHoursPreset, error)
	SavePreset(ctx context.Context, userID string, req SavePresetRequest) (WorkingHoursPreset, error)
	DeletePreset(ctx context.Context, userID, presetID string) error

	// GetDocument opens a document for its owner or the assigned approver.
	GetDocument(ctx context.Context, userID, documentID string) (Document, io.ReadCloser, error)
}

type ApprovalService interface {
	ListPending(ctx context.Context, supervisorID string) ([]ApprovalItem, error)
	ListForApproval(ctx context.Context, supervisorID string, filter string) ([]ApprovalItem, error)
	GetForApproval(ctx context.Context, versionID, supervisorID string) (ApprovalDetail, error)
	Decide(ctx context.Context, versionID, supervisorID string, decision Status, comments *string) (Version, error)
	Summary(ctx context.Context, supervisorID string) (SupervisorSummary, error)
}
