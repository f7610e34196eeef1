package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// maxEntryBody bounds JSON bodies carrying base64 documents.
const maxEntryBody = 64 << 20

type TimesheetHandler interface {
	GetPeriod(w http.ResponseWriter, r *http.Request)
	GetStats(w http.ResponseWriter, r *http.Request)
	CanSubmit(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	AvailableMonths(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)

	SaveEntry(w http.ResponseWriter, r *http.Request)
	SaveBulkEntries(w http.ResponseWriter, r *http.Request)
	DeleteEntry(w http.ResponseWriter, r *http.Request)

	ListPresets(w http.ResponseWriter, r *http.Request)
	CreatePreset(w http.ResponseWriter, r *http.Request)
	DeletePreset(w http.ResponseWriter, r *http.Request)

	DownloadDocument(w http.ResponseWriter, r *http.Request)
}

type TimesheetHandlerImpl struct {
	timesheetService timesheet.TimesheetService
}

func NewTimesheetHandler(timesheetService timesheet.TimesheetService) TimesheetHandler {
	return &TimesheetHandlerImpl{timesheetService: timesheetService}
}

// periodParams reads {year} and {month} from the route.
func periodParams(r *http.Request) (int, int, error) {
	var errs validator.ValidationErrors
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		errs.Add("year", "year must be a number")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		errs.Add("month", "month must be a number")
	}
	return year, month, errs.Err()
}

// GetPeriod implements TimesheetHandler.
func (h *TimesheetHandlerImpl) GetPeriod(w http.ResponseWriter, r *http.Request) {
	year, month, err := periodParams(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	view, err := h.timesheetService.GetPeriod(r.Context(), middleware.UserID(r.Context()), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewPeriodResponse(view))
}

// GetStats implements TimesheetHandler.
func (h *TimesheetHandlerImpl) GetStats(w http.ResponseWriter, r *http.Request) {
	year, month, err := periodParams(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	stats, err := h.timesheetService.GetStats(r.Context(), middleware.UserID(r.Context()), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewStatsResponse(stats))
}

// CanSubmit implements TimesheetHandler.
func (h *TimesheetHandlerImpl) CanSubmit(w http.ResponseWriter, r *http.Request) {
	year, month, err := periodParams(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	eligibility, err := h.timesheetService.CheckEligibility(r.Context(), middleware.UserID(r.Context()), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewEligibilityResponse(eligibility))
}

// Submit implements TimesheetHandler.
func (h *TimesheetHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	year, month, err := periodParams(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	view, err := h.timesheetService.SubmitPeriod(r.Context(), middleware.UserID(r.Context()), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet submitted for approval", timesheet.NewPeriodResponse(view))
}

// AvailableMonths implements TimesheetHandler.
func (h *TimesheetHandlerImpl) AvailableMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.timesheetService.GetAvailableMonths(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewAvailableMonthResponses(months))
}

// History implements TimesheetHandler.
func (h *TimesheetHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	items, err := h.timesheetService.GetHistory(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewHistoryResponses(items))
}

// SaveEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) SaveEntry(w http.ResponseWriter, r *http.Request) {
	var req timesheet.SaveEntryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEntryBody)).Decode(&req); err != nil {
		slog.Debug("SaveEntry decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	entry, err := h.timesheetService.UpsertEntry(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet entry saved", timesheet.NewDayEntryResponse(entry))
}

// SaveBulkEntries implements TimesheetHandler.
func (h *TimesheetHandlerImpl) SaveBulkEntries(w http.ResponseWriter, r *http.Request) {
	var req timesheet.BulkSaveEntriesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEntryBody)).Decode(&req); err != nil {
		slog.Debug("SaveBulkEntries decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	entries, err := h.timesheetService.SaveBulkEntries(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, fmt.Sprintf("%d timesheet entries saved", len(entries)), timesheet.NewDayEntryResponses(entries))
}

// DeleteEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.timesheetService.DeleteEntry(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "date")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet entry deleted", nil)
}

// ListPresets implements TimesheetHandler.
func (h *TimesheetHandlerImpl) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.timesheetService.ListPresets(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewPresetResponses(presets))
}

// CreatePreset implements TimesheetHandler.
func (h *TimesheetHandlerImpl) CreatePreset(w http.ResponseWriter, r *http.Request) {
	var req timesheet.SavePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("CreatePreset decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	preset, err := h.timesheetService.SavePreset(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Working hours preset created", timesheet.NewPresetResponse(preset))
}

// DeletePreset implements TimesheetHandler.
func (h *TimesheetHandlerImpl) DeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.timesheetService.DeletePreset(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Working hours preset deleted", nil)
}

// DownloadDocument implements TimesheetHandler.
func (h *TimesheetHandlerImpl) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, content, err := h.timesheetService.GetDocument(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	if _, err := io.Copy(w, content); err != nil {
		slog.Warn("document download interrupted", "document_id", doc.ID, "error", err)
	}
}
