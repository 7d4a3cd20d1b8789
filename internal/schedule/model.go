package schedule

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a lesson template.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status value.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// DefaultAttendanceDesc is applied when a record is created without a description.
const DefaultAttendanceDesc = "Present"

// LessonTemplate is a recurring class slot. It recurs on Weekdays within
// the Start..End time-of-day window; there are no materialized per-date rows.
type LessonTemplate struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	GroupID     *string   `json:"group_id,omitempty"`
	Weekdays    []Weekday `json:"weekdays"`
	StartTime   string    `json:"start_time"` // HH:MM
	EndTime     string    `json:"end_time"`   // HH:MM
	Room        string    `json:"room"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecursOn reports whether the template's weekday set contains w. An empty
// set matches no day at all.
func (t LessonTemplate) RecursOn(w Weekday) bool {
	return containsWeekday(t.Weekdays, w)
}

// AttendanceRecord is one subject's presence outcome for one concrete
// dated occurrence of a lesson template. Immutable after creation except
// for the description.
type AttendanceRecord struct {
	ID          string    `json:"id"`
	LessonID    string    `json:"lesson_id"`
	StudentID   *string   `json:"student_id,omitempty"`
	TeacherID   *string   `json:"teacher_id,omitempty"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubjectRef identifies who an attendance record is about: exactly one of
// StudentID or TeacherID must be set.
type SubjectRef struct {
	StudentID string `json:"student_id,omitempty"`
	TeacherID string `json:"teacher_id,omitempty"`
}

// Validate enforces the exactly-one rule.
func (s SubjectRef) Validate() error {
	if (s.StudentID == "") == (s.TeacherID == "") {
		return ErrInvalidSubject
	}
	return nil
}

// IsStudent reports whether the subject is a student. Only student records
// fall under the one-per-date uniqueness rule; a teacher record logs the
// teacher's own delivery of the session.
func (s SubjectRef) IsStudent() bool {
	return s.StudentID != ""
}

const timeOfDayLayout = "15:04"

// validateWindow checks an HH:MM time-of-day window, requiring start
// strictly before end.
func validateWindow(start, end string) error {
	st, err := time.Parse(timeOfDayLayout, start)
	if err != nil {
		return fmt.Errorf("%w: start %q", ErrInvalidTimeWindow, start)
	}
	en, err := time.Parse(timeOfDayLayout, end)
	if err != nil {
		return fmt.Errorf("%w: end %q", ErrInvalidTimeWindow, end)
	}
	if !st.Before(en) {
		return fmt.Errorf("%w: %s >= %s", ErrInvalidTimeWindow, start, end)
	}
	return nil
}
