package timesheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntryType is the closed set of day entry kinds.
type EntryType string

const (
	EntryTypeWorkingHours          EntryType = "working_hours"
	EntryTypeAnnualLeave           EntryType = "annual_leave"
	EntryTypeAnnualLeaveHalfDay    EntryType = "annual_leave_halfday"
	EntryTypeMedicalLeave          EntryType = "medical_leave"
	EntryTypeOffInLieu             EntryType = "off_in_lieu"
	EntryTypeChildcareLeave        EntryType = "childcare_leave"
	EntryTypeChildcareLeaveHalfDay EntryType = "childcare_leave_halfday"
	EntryTypeSharedParentalLeave   EntryType = "shared_parental_leave"
	EntryTypeNopayLeave            EntryType = "nopay_leave"
	EntryTypeNopayLeaveHalfDay     EntryType = "nopay_leave_halfday"
	EntryTypeHospitalizationLeave  EntryType = "hospitalization_leave"
	EntryTypeReservist             EntryType = "reservist"
	EntryTypePaternityLeave        EntryType = "paternity_leave"
	EntryTypeCompassionateLeave    EntryType = "compassionate_leave"
	EntryTypeMaternityLeave        EntryType = "maternity_leave"
	EntryTypeDayOff                EntryType = "day_off"
)

// EntryTypes lists every accepted entry type in display order.
var EntryTypes = []EntryType{
	EntryTypeWorkingHours,
	EntryTypeAnnualLeave,
	EntryTypeAnnualLeaveHalfDay,
	EntryTypeMedicalLeave,
	EntryTypeOffInLieu,
	EntryTypeChildcareLeave,
	EntryTypeChildcareLeaveHalfDay,
	EntryTypeSharedParentalLeave,
	EntryTypeNopayLeave,
	EntryTypeNopayLeaveHalfDay,
	EntryTypeHospitalizationLeave,
	EntryTypeReservist,
	EntryTypePaternityLeave,
	EntryTypeCompassionateLeave,
	EntryTypeMaternityLeave,
	EntryTypeDayOff,
}

// ParseEntryType returns the entry type named by s.
func ParseEntryType(s string) (EntryType, bool) {
	for _, t := range EntryTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// IsHalfDay reports whether the type takes an AM/PM half-day period.
func (t EntryType) IsHalfDay() bool {
	switch t {
	case EntryTypeAnnualLeaveHalfDay, EntryTypeChildcareLeaveHalfDay, EntryTypeNopayLeaveHalfDay:
		return true
	}
	return false
}

func (t EntryType) IsWorkingHours() bool {
	return t == EntryTypeWorkingHours
}

// Label renders the type for people, e.g. "Annual Leave Halfday".
func (t EntryType) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(t), "_", " "))
}

type HalfDayPeriod string

const (
	HalfDayAM HalfDayPeriod = "AM"
	HalfDayPM HalfDayPeriod = "PM"
)

func ParseHalfDayPeriod(s string) (HalfDayPeriod, bool) {
	switch HalfDayPeriod(s) {
	case HalfDayAM, HalfDayPM:
		return HalfDayPeriod(s), true
	}
	return "", false
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

// ClockTime is a wall-clock time of day, stored as seconds since midnight.
type ClockTime int

const secondsPerDay = 24 * 60 * 60

// ParseClockTime accepts "15:04" or "15:04:05".
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return NewClockTime(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime(hour*3600 + minute*60 + second)
}

func (c ClockTime) Hour() int   { return int(c) / 3600 }
func (c ClockTime) Minute() int { return int(c) % 3600 / 60 }
func (c ClockTime) Second() int { return int(c) % 60 }

// Duration is the offset from midnight.
func (c ClockTime) Duration() time.Duration {
	return time.Duration(c) * time.Second
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PeriodKey identifies one employee-month.
type PeriodKey struct {
	UserID string
	Year   int
	Month  int
}

// PeriodOf returns the period a calendar date falls in.
func PeriodOf(userID string, date time.Time) PeriodKey {
	return PeriodKey{UserID: userID, Year: date.Year(), Month: int(date.Month())}
}

// LockKey is the name the period is serialized under.
func (k PeriodKey) LockKey() string {
	return fmt.Sprintf("timesheet:period:%s:%04d-%02d", k.UserID, k.Year, k.Month)
}

// Bounds returns the first day of the period and the first day of the next one.
func (k PeriodKey) Bounds() (time.Time, time.Time) {
	start := time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (k PeriodKey) Contains(date time.Time) bool {
	return date.Year() == k.Year && int(date.Month()) == k.Month
}

// Version is one revision of an employee's monthly timesheet.
type Version struct {
	ID                string
	UserID            string
	Year              int
	Month             int
	Version           int
	PreviousVersionID *string
	IsCurrent         bool
	Status            Status

	SubmittedAt      *time.Time
	ApproverID       *string
	ApprovedAt       *time.Time
	ApprovalComments *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v *Version) PeriodKey() PeriodKey {
	return PeriodKey{UserID: v.UserID, Year: v.Year, Month: v.Month}
}

// IsAssignedTo checks if approverID is the supervisor the version was routed to
func (v *Version) IsAssignedTo(approverID string) bool {
	return v.ApproverID != nil && *v.ApproverID == approverID
}

// DayEntry is the single record for one user and one calendar date.
type DayEntry struct {
	ID     string
	UserID string
	Date   time.Time
	Type   EntryType

	// working_hours only
	StartTime *ClockTime
	EndTime   *ClockTime

	// half-day kinds only
	HalfDayPeriod *HalfDayPeriod

	// off_in_lieu only
	DateEarned *time.Time

	// multi-day leave sharing one document set
	PrimaryDocumentDay *time.Time
	IsPrimaryDocument  bool

	Notes     *string
	Documents []Document

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *DayEntry) PeriodKey() PeriodKey {
	return PeriodOf(e.UserID, e.Date)
}

// Document is supporting evidence attached to a day entry. The bytes live in
// blob storage under StoragePath.
type Document struct {
	ID          string
	DayEntryID  string
	FileName    string
	ContentType string
	Size        int64
	StoragePath string
	CreatedAt   time.Time
}

type WorkingHoursPreset struct {
	ID        string
	UserID    string
	Name      string
	StartTime ClockTime
	EndTime   ClockTime
	IsDefault bool
	CreatedAt time.Time
}

// Stats summarizes the entries of one period.
type Stats struct {
	TotalEntries   int
	WorkingDays    int
	LeaveDays      int
	TotalHours     decimal.Decimal
	LeaveBreakdown map[string]int
}
