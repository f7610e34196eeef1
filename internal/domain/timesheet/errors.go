package timesheet

import (
	"errors"
	"fmt"
)

var (
	ErrNotEligible       = errors.New("Timesheet is not eligible for submission")
	ErrEmptyTimesheet    = errors.New("Cannot submit empty timesheet")
	ErrNoSupervisor      = errors.New("Cannot submit timesheet: No supervisor assigned")
	ErrNotEditable       = errors.New("Cannot edit submitted or approved timesheet")
	ErrUnauthorized      = errors.New("You are not authorized to act on this timesheet")
	ErrVersionNotPending = fmt.Errorf("%w: timesheet is not pending approval", ErrUnauthorized)
	ErrCommentsRequired  = errors.New("Comments are required when rejecting a timesheet")

	ErrVersionNotFound  = errors.New("Timesheet not found")
	ErrEntryNotFound    = errors.New("Timesheet entry not found")
	ErrPresetNotFound   = errors.New("Working hours preset not found")
	ErrDocumentNotFound = errors.New("Document not found")

	ErrInvalidTimeRange = errors.New("Invalid time range")
	ErrShiftTooShort    = errors.New("Working hours must be at least 30 minutes")
)
