package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
)

// StateMachine owns version transitions of a period. Callers run every method
// inside a transaction that already holds the period lock.
type StateMachine struct {
	versions timesheet.VersionRepository
	entries  timesheet.EntryRepository
}

func NewStateMachine(versions timesheet.VersionRepository, entries timesheet.EntryRepository) *StateMachine {
	return &StateMachine{versions: versions, entries: entries}
}

// Current returns the period's current version, or nil when the period has none.
func (m *StateMachine) Current(ctx context.Context, key timesheet.PeriodKey) (*timesheet.Version, error) {
	v, err := m.versions.GetCurrent(ctx, key)
	if errors.Is(err, timesheet.ErrVersionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	return &v, nil
}

// GetOrCreateCurrent returns the current version, starting the period at a draft version 1.
func (m *StateMachine) GetOrCreateCurrent(ctx context.Context, key timesheet.PeriodKey) (timesheet.Version, error) {
	current, err := m.Current(ctx, key)
	if err != nil {
		return timesheet.Version{}, err
	}
	if current != nil {
		return *current, nil
	}

	created, err := m.versions.Create(ctx, timesheet.Version{
		UserID:    key.UserID,
		Year:      key.Year,
		Month:     key.Month,
		Version:   1,
		IsCurrent: true,
		Status:    timesheet.StatusDraft,
	})
	if err != nil {
		return timesheet.Version{}, fmt.Errorf("failed to create timesheet version: %w", err)
	}
	slog.Debug("timesheet period opened", "user_id", key.UserID, "year", key.Year, "month", key.Month)
	return created, nil
}

// WithdrawIfPending moves a submitted current version back to draft. It
// reports whether a transition happened.
func (m *StateMachine) WithdrawIfPending(ctx context.Context, key timesheet.PeriodKey) (bool, error) {
	current, err := m.Current(ctx, key)
	if err != nil || current == nil {
		return false, err
	}
	if current.Status != timesheet.StatusSubmitted {
		return false, nil
	}

	current.Status = timesheet.StatusDraft
	current.SubmittedAt = nil
	if err := m.versions.Update(ctx, *current); err != nil {
		return false, fmt.Errorf("failed to withdraw timesheet: %w", err)
	}
	slog.Info("timesheet submission withdrawn", "version_id", current.ID, "user_id", key.UserID)
	return true, nil
}

// Submit routes the period to the actor's supervisor. A rejected period is
// resubmitted as a new version chained to the rejected one.
func (m *StateMachine) Submit(ctx context.Context, key timesheet.PeriodKey, actor user.User, now time.Time) (timesheet.Version, error) {
	current, err := m.Current(ctx, key)
	if err != nil {
		return timesheet.Version{}, err
	}

	var status *timesheet.Status
	if current != nil {
		status = &current.Status
	}

	canSubmit := CanSubmit(now, key.Year, key.Month)
	canResubmit := CanResubmit(status, now, key.Year, key.Month)
	if !canSubmit && !canResubmit {
		return timesheet.Version{}, fmt.Errorf("%w: %s", timesheet.ErrNotEligible, DeadlineMessage(now, key.Year, key.Month))
	}
	if !CanEdit(status) {
		return timesheet.Version{}, fmt.Errorf("%w: timesheet is already %s", timesheet.ErrNotEligible, *status)
	}

	count, err := m.entries.CountByPeriod(ctx, key)
	if err != nil {
		return timesheet.Version{}, fmt.Errorf("failed to count entries: %w", err)
	}
	if count == 0 {
		return timesheet.Version{}, timesheet.ErrEmptyTimesheet
	}

	if !actor.HasSupervisor() {
		return timesheet.Version{}, timesheet.ErrNoSupervisor
	}
	supervisorID := *actor.SupervisorID
	submittedAt := now

	if current != nil && current.Status == timesheet.StatusRejected {
		return m.resubmit(ctx, *current, supervisorID, submittedAt)
	}

	version, err := m.GetOrCreateCurrent(ctx, key)
	if err != nil {
		return timesheet.Version{}, err
	}
	version.Status = timesheet.StatusSubmitted
	version.SubmittedAt = &submittedAt
	version.ApproverID = &supervisorID
	version.ApprovedAt = nil
	version.ApprovalComments = nil
	if err := m.versions.Update(ctx, version); err != nil {
		return timesheet.Version{}, fmt.Errorf("failed to submit timesheet: %w", err)
	}

	slog.Info("timesheet submitted",
		"version_id", version.ID, "user_id", key.UserID, "year", key.Year, "month", key.Month,
		"version", version.Version, "approver_id", supervisorID)
	return version, nil
}

func (m *StateMachine) resubmit(ctx context.Context, rejected timesheet.Version, supervisorID string, submittedAt time.Time) (timesheet.Version, error) {
	rejected.IsCurrent = false
	if err := m.versions.Update(ctx, rejected); err != nil {
		return timesheet.Version{}, fmt.Errorf("failed to retire rejected version: %w", err)
	}

	previousID := rejected.ID
	next, err := m.versions.Create(ctx, timesheet.Version{
		UserID:            rejected.UserID,
		Year:              rejected.Year,
		Month:             rejected.Month,
		Version:           rejected.Version + 1,
		PreviousVersionID: &previousID,
		IsCurrent:         true,
		Status:            timesheet.StatusSubmitted,
		SubmittedAt:       &submittedAt,
		ApproverID:        &supervisorID,
	})
	if err != nil {
		return timesheet.Version{}, fmt.Errorf("failed to create resubmitted version: %w", err)
	}

	slog.Info("timesheet resubmitted",
		"version_id", next.ID, "previous_version_id", previousID, "user_id", next.UserID,
		"year", next.Year, "month", next.Month, "version", next.Version, "approver_id", supervisorID)
	return next, nil
}
