package schedule

import "context"

// Store is the persistence boundary for templates and attendance records.
//
// Implementations must provide two atomicity guarantees: InsertAttendance
// performs duplicate detection and insert as one step for student subjects
// (two concurrent inserts of the same (lesson, student, date) yield exactly
// one row and one ErrDuplicateAttendance), and DeleteTemplateCascade removes
// a template's attendance rows and the template itself as one unit, so a
// concurrent insert can never land between the purge and the delete.
type Store interface {
	InsertTemplate(ctx context.Context, t LessonTemplate) (LessonTemplate, error)
	// GetTemplate returns ErrNotFound for an unknown id.
	GetTemplate(ctx context.Context, id string) (LessonTemplate, error)
	// UpdateTemplate replaces the stored template; ErrNotFound if absent.
	UpdateTemplate(ctx context.Context, t LessonTemplate) error
	// ListScheduledByWeekday returns scheduled templates recurring on day,
	// ordered by start time ascending, ties broken by id.
	ListScheduledByWeekday(ctx context.Context, day Weekday) ([]LessonTemplate, error)
	// DeleteTemplateCascade atomically purges dependent attendance rows and
	// removes the template; ErrNotFound if the template is absent.
	DeleteTemplateCascade(ctx context.Context, id string) error

	// InsertAttendance stores a record, returning ErrDuplicateAttendance if a
	// student record for the same (lesson, student, date) already exists.
	InsertAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
	// GetAttendance returns ErrNotFound for an unknown id.
	GetAttendance(ctx context.Context, id string) (AttendanceRecord, error)
	// UpdateAttendanceDesc edits the only mutable field of a record.
	UpdateAttendanceDesc(ctx context.Context, id, desc string) error
	// DeleteAttendance removes one record; ErrNotFound if absent.
	DeleteAttendance(ctx context.Context, id string) error
	// PurgeAttendance removes every record owned by lessonID and reports how
	// many were removed. Purging a lesson with no records is not an error.
	PurgeAttendance(ctx context.Context, lessonID string) (int, error)
	// ListAttendanceByDate returns records for a civil date, most recently
	// created first.
	ListAttendanceByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
}
