package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Lifecycle conflicts. ErrVersionNotPending wraps ErrUnauthorized and must
	// be matched first.
	case errors.Is(err, timesheet.ErrVersionNotPending):
		Conflict(w, "Timesheet is not pending approval")
	case errors.Is(err, timesheet.ErrNotEligible):
		Conflict(w, err.Error())
	case errors.Is(err, timesheet.ErrEmptyTimesheet),
		errors.Is(err, timesheet.ErrNoSupervisor),
		errors.Is(err, timesheet.ErrNotEditable):
		Conflict(w, err.Error())

	case errors.Is(err, timesheet.ErrUnauthorized):
		Forbidden(w, timesheet.ErrUnauthorized.Error())
	case errors.Is(err, timesheet.ErrCommentsRequired):
		BadRequest(w, err.Error(), nil)

	// Not found
	case errors.Is(err, timesheet.ErrVersionNotFound):
		NotFound(w, timesheet.ErrVersionNotFound.Error())
	case errors.Is(err, timesheet.ErrEntryNotFound):
		NotFound(w, timesheet.ErrEntryNotFound.Error())
	case errors.Is(err, timesheet.ErrPresetNotFound):
		NotFound(w, timesheet.ErrPresetNotFound.Error())
	case errors.Is(err, timesheet.ErrDocumentNotFound):
		NotFound(w, timesheet.ErrDocumentNotFound.Error())
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
