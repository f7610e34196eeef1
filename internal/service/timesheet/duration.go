package timesheet

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/shopspring/decimal"
)

// MinShift is the shortest working-hours entry accepted.
const MinShift = 30 * time.Minute

var minutesPerHour = decimal.NewFromInt(60)

// ShiftDuration returns the length of a shift. An end at or before the start
// rolls over to the next day, so equal times make a 24 hour shift.
// The result is truncated to whole minutes.
func ShiftDuration(start, end timesheet.ClockTime) time.Duration {
	from := start.Duration()
	to := end.Duration()
	if to <= from {
		to += 24 * time.Hour
	}
	return (to - from).Truncate(time.Minute)
}

// ShiftHours is ShiftDuration in hours, minute precision.
func ShiftHours(start, end timesheet.ClockTime) decimal.Decimal {
	minutes := decimal.NewFromInt(int64(ShiftDuration(start, end) / time.Minute))
	return minutes.Div(minutesPerHour)
}

// ValidateShift rejects shifts that are empty or shorter than MinShift.
func ValidateShift(start, end timesheet.ClockTime) error {
	d := ShiftDuration(start, end)
	if d <= 0 {
		return timesheet.ErrInvalidTimeRange
	}
	if d < MinShift {
		return timesheet.ErrShiftTooShort
	}
	return nil
}
