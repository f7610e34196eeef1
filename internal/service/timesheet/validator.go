package timesheet

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

const MaxDocumentSize = 5 * 1024 * 1024

var allowedDocumentExts = []string{".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx"}

// DocumentPayload is a decoded supporting document ready for storage.
type DocumentPayload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ValidatedEntry is a save request that passed validation, with every field parsed.
type ValidatedEntry struct {
	Entry     timesheet.DayEntry
	Documents []DocumentPayload
}

// ValidateEntry checks a save request against the rules of its entry type.
// Failures are reported as validator.ValidationErrors keyed by request field.
func ValidateEntry(req timesheet.SaveEntryRequest) (ValidatedEntry, error) {
	if err := req.Validate(); err != nil {
		return ValidatedEntry{}, err
	}

	var errs validator.ValidationErrors

	date, ok := validator.IsValidDate(req.Date)
	if !ok {
		errs.Add("date", fmt.Sprintf("Invalid date format: %s", req.Date))
		return ValidatedEntry{}, errs
	}

	entryType, ok := timesheet.ParseEntryType(req.Type)
	if !ok {
		errs.Add("type", fmt.Sprintf("Invalid entry type: %s", req.Type))
		return ValidatedEntry{}, errs
	}

	entry := timesheet.DayEntry{
		Date:              date,
		Type:              entryType,
		IsPrimaryDocument: req.IsPrimaryDocument,
		Notes:             req.Notes,
	}

	switch entryType {
	case timesheet.EntryTypeWorkingHours:
		validateWorkingHours(req, &entry, &errs)
	case timesheet.EntryTypeOffInLieu:
		validateOffInLieu(req, &entry, &errs)
	case timesheet.EntryTypeAnnualLeaveHalfDay,
		timesheet.EntryTypeChildcareLeaveHalfDay,
		timesheet.EntryTypeNopayLeaveHalfDay:
		validateHalfDay(req, &entry, &errs)
	}

	if req.PrimaryDocumentDay != nil && !validator.IsEmpty(*req.PrimaryDocumentDay) {
		if day, ok := validator.IsValidDate(*req.PrimaryDocumentDay); ok {
			entry.PrimaryDocumentDay = &day
		}
	}

	docs := make([]DocumentPayload, 0, len(req.SupportingDocuments))
	for i, upload := range req.SupportingDocuments {
		doc, err := validateDocument(upload)
		if err != nil {
			errs.Add(fmt.Sprintf("supporting_documents[%d]", i), err.Error())
			continue
		}
		docs = append(docs, doc)
	}

	if err := errs.Err(); err != nil {
		return ValidatedEntry{}, err
	}
	return ValidatedEntry{Entry: entry, Documents: docs}, nil
}

func validateWorkingHours(req timesheet.SaveEntryRequest, entry *timesheet.DayEntry, errs *validator.ValidationErrors) {
	start, startOK := parseRequiredClock(req.StartTime, "start_time", "Start time is required for working hours", errs)
	end, endOK := parseRequiredClock(req.EndTime, "end_time", "End time is required for working hours", errs)
	if !startOK || !endOK {
		return
	}
	if err := ValidateShift(start, end); err != nil {
		errs.Add("end_time", err.Error())
		return
	}
	entry.StartTime = &start
	entry.EndTime = &end
}

func parseRequiredClock(value *string, field, requiredMsg string, errs *validator.ValidationErrors) (timesheet.ClockTime, bool) {
	if value == nil || validator.IsEmpty(*value) {
		errs.Add(field, requiredMsg)
		return 0, false
	}
	t, err := timesheet.ParseClockTime(*value)
	if err != nil {
		errs.Add(field, fmt.Sprintf("%s must be in HH:mm format", field))
		return 0, false
	}
	return t, true
}

func validateOffInLieu(req timesheet.SaveEntryRequest, entry *timesheet.DayEntry, errs *validator.ValidationErrors) {
	if req.DateEarned == nil || validator.IsEmpty(*req.DateEarned) {
		errs.Add("date_earned", "Date earned is required for off-in-lieu")
		return
	}
	earned, ok := validator.IsValidDate(*req.DateEarned)
	if !ok {
		errs.Add("date_earned", "Invalid date format for date earned")
		return
	}
	if earned.After(entry.Date) {
		errs.Add("date_earned", "Date earned cannot be after the off-in-lieu date")
		return
	}
	entry.DateEarned = &earned
}

func validateHalfDay(req timesheet.SaveEntryRequest, entry *timesheet.DayEntry, errs *validator.ValidationErrors) {
	if req.HalfDayPeriod == nil || validator.IsEmpty(*req.HalfDayPeriod) {
		errs.Add("half_day_period", "Half day period (AM/PM) is required for half-day leave")
		return
	}
	period, ok := timesheet.ParseHalfDayPeriod(*req.HalfDayPeriod)
	if !ok {
		errs.Add("half_day_period", "Invalid half day period. Must be AM or PM")
		return
	}
	entry.HalfDayPeriod = &period
}

func validateDocument(upload timesheet.DocumentUpload) (DocumentPayload, error) {
	if validator.IsEmpty(upload.Name) {
		return DocumentPayload{}, errors.New("Document name is required")
	}
	if validator.IsEmpty(upload.Content) {
		return DocumentPayload{}, fmt.Errorf("Document content is required: %s", upload.Name)
	}
	if upload.Size <= 0 {
		return DocumentPayload{}, fmt.Errorf("Invalid document size: %s", upload.Name)
	}
	if upload.Size > MaxDocumentSize {
		return DocumentPayload{}, fmt.Errorf("Document size cannot exceed 5MB: %s", upload.Name)
	}
	ext := strings.ToLower(filepath.Ext(upload.Name))
	if !validator.IsInSlice(ext, allowedDocumentExts) {
		return DocumentPayload{}, fmt.Errorf("Invalid file type. Allowed: PDF, JPG, JPEG, PNG, DOC, DOCX: %s", upload.Name)
	}

	content, err := decodeBase64(upload.Content)
	if err != nil {
		return DocumentPayload{}, fmt.Errorf("Document content is not valid base64: %s", upload.Name)
	}
	if len(content) == 0 {
		return DocumentPayload{}, fmt.Errorf("Document content is empty: %s", upload.Name)
	}
	if len(content) > MaxDocumentSize {
		return DocumentPayload{}, fmt.Errorf("Document size cannot exceed 5MB: %s", upload.Name)
	}

	contentType := upload.ContentType
	if validator.IsEmpty(contentType) {
		contentType = contentTypeByExt(ext)
	}
	return DocumentPayload{
		FileName:    upload.Name,
		ContentType: contentType,
		Content:     content,
	}, nil
}

// decodeBase64 accepts plain base64 or a data URL.
func decodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

func contentTypeByExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}
