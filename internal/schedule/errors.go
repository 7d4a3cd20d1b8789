package schedule

import "errors"

// Domain errors. Each is scoped to the single operation that raised it;
// callers match with errors.Is and map to their transport's status codes.
var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidWeekday      = errors.New("invalid weekday")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrNotFound            = errors.New("not found")
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidTimeWindow   = errors.New("invalid time window")
	ErrInvalidSubject      = errors.New("subject must be exactly one of student or teacher")
	ErrDayMismatch         = errors.New("lesson does not recur on that day")
	ErrDuplicateAttendance = errors.New("attendance already recorded")
	ErrMismatchedLesson    = errors.New("attendance record belongs to a different lesson")
)
