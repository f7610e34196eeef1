package timesheet

import (
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/shopspring/decimal"
)

// CalculateStats aggregates the entries of one period.
func CalculateStats(entries []timesheet.DayEntry) timesheet.Stats {
	stats := timesheet.Stats{
		TotalEntries:   len(entries),
		TotalHours:     decimal.Zero,
		LeaveBreakdown: make(map[string]int),
	}
	for _, e := range entries {
		if !e.Type.IsWorkingHours() {
			stats.LeaveDays++
			stats.LeaveBreakdown[e.Type.Label()]++
			continue
		}
		stats.WorkingDays++
		if e.StartTime != nil && e.EndTime != nil {
			stats.TotalHours = stats.TotalHours.Add(ShiftHours(*e.StartTime, *e.EndTime))
		}
	}
	return stats
}
