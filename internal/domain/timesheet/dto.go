package timesheet

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// DocumentUpload is a supporting document sent inline as base64.
type DocumentUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int64  `json:"size"`
	Content     string `json:"content"`
}

type SaveEntryRequest struct {
	Date                string           `json:"date" validate:"required,datetime=2006-01-02"`
	Type                string           `json:"type" validate:"required"`
	StartTime           *string          `json:"start_time,omitempty"`
	EndTime             *string          `json:"end_time,omitempty"`
	HalfDayPeriod       *string          `json:"half_day_period,omitempty"`
	DateEarned          *string          `json:"date_earned,omitempty"`
	PrimaryDocumentDay  *string          `json:"primary_document_day,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsPrimaryDocument   bool             `json:"is_primary_document"`
	Notes               *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
	SupportingDocuments []DocumentUpload `json:"supporting_documents,omitempty"`
}

// Validate checks the request shape. Per-type rules are applied by the entry validator.
func (r *SaveEntryRequest) Validate() error {
	return validator.Struct(r)
}

type BulkSaveEntriesRequest struct {
	Entries []SaveEntryRequest `json:"entries" validate:"min=1"`
}

func (r *BulkSaveEntriesRequest) Validate() error {
	return validator.Struct(r)
}

type SavePresetRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	IsDefault bool   `json:"is_default"`
}

func (r *SavePresetRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		return err
	}
	if _, err := ParseClockTime(r.StartTime); err != nil {
		errs.Add("start_time", "start_time must be in HH:mm format")
	}
	if _, err := ParseClockTime(r.EndTime); err != nil {
		errs.Add("end_time", "end_time must be in HH:mm format")
	}
	return errs.Err()
}

// DecisionRequest carries a supervisor's verdict. Status is checked by the
// approval service so that an unknown version reports not found first.
type DecisionRequest struct {
	Status   string  `json:"status"`
	Comments *string `json:"comments,omitempty" validate:"omitempty,max=2000"`
}

func (r *DecisionRequest) Validate() error {
	return validator.Struct(r)
}

// ApprovalFilter selects versions in the supervisor's approval list.
type ApprovalFilter string

const (
	ApprovalFilterAll     ApprovalFilter = "all"
	ApprovalFilterPending ApprovalFilter = "pending"
)

// PeriodView is a version together with its entries and statistics.
type PeriodView struct {
	Version Version
	Entries []DayEntry
	Stats   Stats
}

// ApprovalItem is one row of a supervisor's approval list.
type ApprovalItem struct {
	Version  Version
	Employee user.User
	Stats    Stats
}

type ApprovalDetail struct {
	PeriodView
	Employee user.User
}

type SupervisorSummary struct {
	PendingCount      int `json:"pending_count"`
	ApprovedThisMonth int `json:"approved_this_month"`
}

type AvailableMonth struct {
	Year           int
	Month          int
	MonthName      string
	IsCurrentMonth bool
	Status         *Status
	IsSubmitted    bool
}

type HistoryItem struct {
	Version Version
	Stats   Stats
}

type Eligibility struct {
	CanSubmit        bool
	CanResubmit      bool
	CanPerformAction bool
	Message          string
}

// Response shapes

type DocumentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

type DayEntryResponse struct {
	ID                 string             `json:"id"`
	Date               string             `json:"date"`
	Type               EntryType          `json:"type"`
	TypeLabel          string             `json:"type_label"`
	StartTime          *ClockTime         `json:"start_time,omitempty"`
	EndTime            *ClockTime         `json:"end_time,omitempty"`
	HalfDayPeriod      *HalfDayPeriod     `json:"half_day_period,omitempty"`
	DateEarned         *string            `json:"date_earned,omitempty"`
	PrimaryDocumentDay *string            `json:"primary_document_day,omitempty"`
	IsPrimaryDocument  bool               `json:"is_primary_document"`
	Notes              *string            `json:"notes,omitempty"`
	Documents          []DocumentResponse `json:"documents"`
}

type VersionResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Year              int        `json:"year"`
	Month             int        `json:"month"`
	Version           int        `json:"version"`
	PreviousVersionID *string    `json:"previous_version_id,omitempty"`
	IsCurrent         bool       `json:"is_current"`
	Status            Status     `json:"status"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	ApproverID        *string    `json:"approver_id,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	ApprovalComments  *string    `json:"approval_comments,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type StatsResponse struct {
	TotalEntries   int             `json:"total_entries"`
	WorkingDays    int             `json:"working_days"`
	LeaveDays      int             `json:"leave_days"`
	TotalHours     decimal.Decimal `json:"total_hours"`
	LeaveBreakdown map[string]int  `json:"leave_breakdown"`
}

type PeriodResponse struct {
	Timesheet VersionResponse    `json:"timesheet"`
	Entries   []DayEntryResponse `json:"entries"`
	Stats     StatsResponse      `json:"stats"`
}

type EmployeeResponse struct {
	ID           string  `json:"id"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	EmployeeCode *string `json:"employee_code,omitempty"`
	Position     *string `json:"position,omitempty"`
	ProjectSite  *string `json:"project_site,omitempty"`
}

type ApprovalItemResponse struct {
	Timesheet VersionResponse  `json:"timesheet"`
	Employee  EmployeeResponse `json:"employee"`
	Stats     StatsResponse    `json:"stats"`
}

type ApprovalDetailResponse struct {
	PeriodResponse
	Employee EmployeeResponse `json:"employee"`
}

type AvailableMonthResponse struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	MonthName      string  `json:"month_name"`
	IsCurrentMonth bool    `json:"is_current_month"`
	Status         *Status `json:"status,omitempty"`
	IsSubmitted    bool    `json:"is_submitted"`
}

type HistoryItemResponse struct {
	Timesheet VersionResponse `json:"timesheet"`
	Stats     StatsResponse   `json:"stats"`
}

type EligibilityResponse struct {
	CanSubmit        bool   `json:"can_submit"`
	CanResubmit      bool   `json:"can_resubmit"`
	CanPerformAction bool   `json:"can_perform_action"`
	Message          string `json:"message,omitempty"`
}

type PresetResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
	IsDefault bool      `json:"is_default"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(validator.DateLayout)
	return &s
}

func NewDayEntryResponse(e DayEntry) DayEntryResponse {
	docs := make([]DocumentResponse, 0, len(e.Documents))
	for _, d := range e.Documents {
		docs = append(docs, DocumentResponse{
			ID:          d.ID,
			FileName:    d.FileName,
			ContentType: d.ContentType,
			Size:        d.Size,
			CreatedAt:   d.CreatedAt,
		})
	}
	return DayEntryResponse{
		ID:                 e.ID,
		Date:               e.Date.Format(validator.DateLayout),
		Type:               e.Type,
		TypeLabel:          e.Type.Label(),
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		HalfDayPeriod:      e.HalfDayPeriod,
		DateEarned:         formatDate(e.DateEarned),
		PrimaryDocumentDay: formatDate(e.PrimaryDocumentDay),
		IsPrimaryDocument:  e.IsPrimaryDocument,
		Notes:              e.Notes,
		Documents:          docs,
	}
}

func NewDayEntryResponses(entries []DayEntry) []DayEntryResponse {
	out := make([]DayEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewDayEntryResponse(e))
	}
	return out
}

func NewVersionResponse(v Version) VersionResponse {
	return VersionResponse{
		ID:                v.ID,
		UserID:            v.UserID,
		Year:              v.Year,
		Month:             v.Month,
		Version:           v.Version,
		PreviousVersionID: v.PreviousVersionID,
		IsCurrent:         v.IsCurrent,
		Status:            v.Status,
		SubmittedAt:       v.SubmittedAt,
		ApproverID:        v.ApproverID,
		ApprovedAt:        v.ApprovedAt,
		ApprovalComments:  v.ApprovalComments,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func NewStatsResponse(s Stats) StatsResponse {
	breakdown := s.LeaveBreakdown
	if breakdown == nil {
		breakdown = map[string]int{}
	}
	return StatsResponse{
		TotalEntries:   s.TotalEntries,
		WorkingDays:    s.WorkingDays,
		LeaveDays:      s.LeaveDays,
		TotalHours:     s.TotalHours,
		LeaveBreakdown: breakdown,
	}
}

func NewPeriodResponse(p PeriodView) PeriodResponse {
	return PeriodResponse{
		Timesheet: NewVersionResponse(p.Version),
		Entries:   NewDayEntryResponses(p.Entries),
		Stats:     NewStatsResponse(p.Stats),
	}
}

func NewEmployeeResponse(u user.User) EmployeeResponse {
	return EmployeeResponse{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		EmployeeCode: u.EmployeeCode,
		Position:     u.Position,
		ProjectSite:  u.ProjectSite,
	}
}

func NewApprovalItemResponses(items []ApprovalItem) []ApprovalItemResponse {
	out := make([]ApprovalItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ApprovalItemResponse{
			Timesheet: NewVersionResponse(item.Version),
			Employee:  NewEmployeeResponse(item.Employee),
			Stats:     NewStatsResponse(item.Stats),
		})
	}
	return out
}

func NewApprovalDetailResponse(d ApprovalDetail) ApprovalDetailResponse {
	return ApprovalDetailResponse{
		PeriodResponse: NewPeriodResponse(d.PeriodView),
		Employee:       NewEmployeeResponse(d.Employee),
	}
}

func NewAvailableMonthResponses(months []AvailableMonth) []AvailableMonthResponse {
	out := make([]AvailableMonthResponse, 0, len(months))
	for _, m := range months {
		out = append(out, AvailableMonthResponse{
			Year:           m.Year,
			Month:          m.Month,
			MonthName:      m.MonthName,
			IsCurrentMonth: m.IsCurrentMonth,
			Status:         m.Status,
			IsSubmitted:    m.IsSubmitted,
		})
	}
	return out
}

func NewHistoryResponses(items []HistoryItem) []HistoryItemResponse {
	out := make([]HistoryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, HistoryItemResponse{
			Timesheet: NewVersionResponse(item.Version),
			Stats:     NewStatsResponse(item.Stats),
		})
	}
	return out
}

func NewEligibilityResponse(e Eligibility) EligibilityResponse {
	return EligibilityResponse{
		CanSubmit:        e.CanSubmit,
		CanResubmit:      e.CanResubmit,
		CanPerformAction: e.CanPerformAction,
		Message:          e.Message,
	}
}

func NewPresetResponses(presets []WorkingHoursPreset) []PresetResponse {
	out := make([]PresetResponse, 0, len(presets))
	for _, p := range presets {
		out = append(out, NewPresetResponse(p))
	}
	return out
}

func NewPresetResponse(p WorkingHoursPreset) PresetResponse {
	return PresetResponse{
		ID:        p.ID,
		Name:      p.Name,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		IsDefault: p.IsDefault,
	}
}
