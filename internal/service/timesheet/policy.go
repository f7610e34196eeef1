package timesheet

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
)

// GraceDays is how many days into a month the previous month stays open.
const GraceDays = 10

// CanSubmit reports whether the period may be submitted on the given day:
// the current month always, the previous month only during the grace window.
func CanSubmit(today time.Time, year, month int) bool {
	if year == today.Year() && month == int(today.Month()) {
		return true
	}
	prev := firstOfMonth(today).AddDate(0, -1, 0)
	if year == prev.Year() && month == int(prev.Month()) {
		return today.Day() <= GraceDays
	}
	return false
}

// CanResubmit reports whether a rejected period may be sent again.
func CanResubmit(status *timesheet.Status, today time.Time, year, month int) bool {
	return status != nil && *status == timesheet.StatusRejected && CanSubmit(today, year, month)
}

// CanEdit reports whether entries of a period may change. A period with no
// version yet is editable.
func CanEdit(status *timesheet.Status) bool {
	if status == nil {
		return true
	}
	return *status == timesheet.StatusDraft || *status == timesheet.StatusRejected
}

// DeadlineMessage explains why a period cannot be submitted today.
func DeadlineMessage(today time.Time, year, month int) string {
	period := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, today.Location())
	if period.Before(firstOfMonth(today)) {
		return fmt.Sprintf("Previous month timesheet can only be submitted within the first %d days of the current month", GraceDays)
	}
	return "This timesheet cannot be submitted at this time"
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
