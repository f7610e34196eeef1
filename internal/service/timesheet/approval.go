package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

type ApprovalServiceImpl struct {
	tx timesheet.Transactor
	periodReader
	users user.Directory
	cache *cache.Cache
	now   func() time.Time
}

func NewApprovalService(
	tx timesheet.Transactor,
	versionRepository timesheet.VersionRepository,
	entryRepository timesheet.EntryRepository,
	documentRepository timesheet.DocumentRepository,
	directory user.Directory,
	summaryCache *cache.Cache,
) *ApprovalServiceImpl {
	return &ApprovalServiceImpl{
		tx: tx,
		periodReader: periodReader{
			versions:  versionRepository,
			entries:   entryRepository,
			documents: documentRepository,
		},
		users: directory,
		cache: summaryCache,
		now:   time.Now,
	}
}

var _ timesheet.ApprovalService = (*ApprovalServiceImpl)(nil)

// ListPending implements timesheet.ApprovalService.
// Oldest submissions come first.
func (s *ApprovalServiceImpl) ListPending(ctx context.Context, supervisorID string) ([]timesheet.ApprovalItem, error) {
	versions, err := s.versions.ListCurrentByApprover(ctx, supervisorID, timesheet.StatusSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending timesheets: %w", err)
	}
	slog.Debug("pending timesheets listed", "supervisor_id", supervisorID, "count", len(versions))
	return s.items(ctx, versions)
}

// ListForApproval implements timesheet.ApprovalService.
// "all" returns every version ever routed to the supervisor, including
// superseded ones; a concrete status matches current versions only.
func (s *ApprovalServiceImpl) ListForApproval(ctx context.Context, supervisorID string, filter string) ([]timesheet.ApprovalItem, error) {
	switch timesheet.ApprovalFilter(filter) {
	case "", timesheet.ApprovalFilterAll:
		versions, err := s.versions.ListByApprover(ctx, supervisorID)
		if err != nil {
			return nil, fmt.Errorf("failed to list timesheets: %w", err)
		}
		routed := versions[:0]
		for _, v := range versions {
			// withdrawn submissions keep their approver but are back with the employee
			if v.Status != timesheet.StatusDraft {
				routed = append(routed, v)
			}
		}
		return s.items(ctx, routed)
	case timesheet.ApprovalFilterPending:
		return s.ListPending(ctx, supervisorID)
	}

	status, ok := timesheet.ParseStatus(filter)
	if !ok || status == timesheet.StatusDraft {
		return nil, validator.ValidationErrors{{
			Field:   "status",
			Message: "status must be one of: all, pending, submitted, approved, rejected",
		}}
	}
	versions, err := s.versions.ListCurrentByApprover(ctx, supervisorID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	return s.items(ctx, versions)
}

// GetForApproval implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) GetForApproval(ctx context.Context, versionID, supervisorID string) (timesheet.ApprovalDetail, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return timesheet.ApprovalDetail{}, err
	}
	if !version.IsAssignedTo(supervisorID) {
		return timesheet.ApprovalDetail{}, timesheet.ErrUnauthorized
	}

	view, err := s.view(ctx, version)
	if err != nil {
		return timesheet.ApprovalDetail{}, err
	}
	employee, err := s.users.GetByID(ctx, version.UserID)
	if err != nil {
		return timesheet.ApprovalDetail{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return timesheet.ApprovalDetail{PeriodView: view, Employee: employee}, nil
}

// Decide implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) Decide(ctx context.Context, versionID, supervisorID string, decision timesheet.Status, comments *string) (timesheet.Version, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return timesheet.Version{}, err
	}
	if decision != timesheet.StatusApproved && decision != timesheet.StatusRejected {
		return timesheet.Version{}, validator.ValidationErrors{{
			Field:   "status",
			Message: fmt.Sprintf("Invalid decision: %s", decision),
		}}
	}

	var note *string
	if comments != nil && !validator.IsEmpty(*comments) {
		trimmed := strings.TrimSpace(*comments)
		note = &trimmed
	}

	err = withPeriodLock(ctx, s.tx, s.versions, version.PeriodKey(), func(ctx context.Context) error {
		// re-read under the lock so the status check and the transition are atomic
		version, err = s.versions.GetByID(ctx, versionID)
		if err != nil {
			return err
		}
		if !version.IsAssignedTo(supervisorID) {
			return timesheet.ErrUnauthorized
		}
		if version.Status != timesheet.StatusSubmitted {
			return timesheet.ErrVersionNotPending
		}
		if decision == timesheet.StatusRejected && note == nil {
			return timesheet.ErrCommentsRequired
		}

		decidedAt := s.now()
		version.Status = decision
		version.ApprovedAt = &decidedAt
		version.ApprovalComments = note
		if err := s.versions.Update(ctx, version); err != nil {
			return fmt.Errorf("failed to record decision: %w", err)
		}
		return nil
	})
	if err != nil {
		return timesheet.Version{}, err
	}

	if err := s.cache.Bump(ctx); err != nil {
		slog.Warn("failed to invalidate approval summaries", "error", err)
	}
	slog.Info("timesheet decided",
		"version_id", version.ID, "decision", decision, "supervisor_id", supervisorID,
		"user_id", version.UserID, "year", version.Year, "month", version.Month)
	return version, nil
}

// Summary implements timesheet.ApprovalService.
func (s *ApprovalServiceImpl) Summary(ctx context.Context, supervisorID string) (timesheet.SupervisorSummary, error) {
	month := firstOfMonth(s.now()).Format("2006-01")
	key, err := s.cache.BuildKey(ctx, "summary", supervisorID, month)
	if err != nil {
		slog.Warn("approval summary cache unavailable", "error", err)
		return s.summary(ctx, supervisorID)
	}

	var summary timesheet.SupervisorSummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.summary(ctx, supervisorID)
	})
	if err != nil {
		return timesheet.SupervisorSummary{}, err
	}
	return summary, nil
}

func (s *ApprovalServiceImpl) summary(ctx context.Context, supervisorID string) (timesheet.SupervisorSummary, error) {
	pending, err := s.versions.ListCurrentByApprover(ctx, supervisorID, timesheet.StatusSubmitted)
	if err != nil {
		return timesheet.SupervisorSummary{}, fmt.Errorf("failed to count pending timesheets: %w", err)
	}

	now := s.now()
	approved, err := s.versions.CountApprovedBetween(ctx, supervisorID, firstOfMonth(now), now)
	if err != nil {
		return timesheet.SupervisorSummary{}, fmt.Errorf("failed to count approved timesheets: %w", err)
	}

	return timesheet.SupervisorSummary{
		PendingCount:      len(pending),
		ApprovedThisMonth: approved,
	}, nil
}

// items decorates versions with employee details and period statistics.
func (s *ApprovalServiceImpl) items(ctx context.Context, versions []timesheet.Version) ([]timesheet.ApprovalItem, error) {
	ids := make([]string, 0, len(versions))
	for _, v := range versions {
		ids = append(ids, v.UserID)
	}
	employees, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}

	stats := make(map[timesheet.PeriodKey]timesheet.Stats)
	items := make([]timesheet.ApprovalItem, 0, len(versions))
	for _, v := range versions {
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

		employee, ok := employees[v.UserID]
		if !ok {
			employee = user.User{ID: v.UserID}
		}
		items = append(items, timesheet.ApprovalItem{Version: v, Employee: employee, Stats: st})
	}
	return items, nil
}
