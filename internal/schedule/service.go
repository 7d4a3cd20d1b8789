package schedule

import (
	"context"
	"fmt"
	"time"
)

// Service implements the recurring-lesson and attendance operations on top
// of a Store. It owns all validation; the store only supplies persistence
// and the two atomic primitives documented on the Store interface.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// CreateTemplateParams carries the fields for a new lesson template.
// Weekdays may be empty; an empty set matches no date until updated.
type CreateTemplateParams struct {
	TeacherID   string
	GroupID     *string
	Weekdays    []string
	StartTime   string
	EndTime     string
	Room        string
	Description string
}

// CreateTemplate validates and persists a new recurring lesson slot,
// defaulting status to scheduled.
func (s *Service) CreateTemplate(ctx context.Context, p CreateTemplateParams) (LessonTemplate, error) {
	switch {
	case p.TeacherID == "":
		return LessonTemplate{}, fmt.Errorf("%w: teacher_id", ErrMissingField)
	case p.Room == "":
		return LessonTemplate{}, fmt.Errorf("%w: room", ErrMissingField)
	case p.StartTime == "" || p.EndTime == "":
		return LessonTemplate{}, fmt.Errorf("%w: time window", ErrMissingField)
	}
	if err := validateWindow(p.StartTime, p.EndTime); err != nil {
		return LessonTemplate{}, err
	}
	days, err := normalizeWeekdays(p.Weekdays)
	if err != nil {
		return LessonTemplate{}, err
	}
	t := LessonTemplate{
		TeacherID:   p.TeacherID,
		GroupID:     p.GroupID,
		Weekdays:    days,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Room:        p.Room,
		Description: p.Description,
		Status:      StatusScheduled,
		CreatedAt:   s.now(),
	}
	return s.store.InsertTemplate(ctx, t)
}

// UpdateTemplateParams applies partial updates: nil fields are left
// unchanged (merge, not replace). A non-nil empty Weekdays slice clears the
// recurrence set.
type UpdateTemplateParams struct {
	TeacherID   *string
	GroupID     *string
	Weekdays    []string
	StartTime   *string
	EndTime     *string
	Room        *string
	Description *string
	Status      *string
}

// UpdateTemplate merges the given fields into an existing template,
// re-validating the time window whenever either bound changes.
func (s *Service) UpdateTemplate(ctx context.Context, id string, p UpdateTemplateParams) (LessonTemplate, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return LessonTemplate{}, err
	}
	if p.TeacherID != nil {
		if *p.TeacherID == "" {
			return LessonTemplate{}, fmt.Errorf("%w: teacher_id", ErrMissingField)
		}
		t.TeacherID = *p.TeacherID
	}
	if p.GroupID != nil {
		t.GroupID = p.GroupID
	}
	if p.Weekdays != nil {
		days, err := normalizeWeekdays(p.Weekdays)
		if err != nil {
			return LessonTemplate{}, err
		}
		t.Weekdays = days
	}
	if p.StartTime != nil || p.EndTime != nil {
		if p.StartTime != nil {
			t.StartTime = *p.StartTime
		}
		if p.EndTime != nil {
			t.EndTime = *p.EndTime
		}
		if err := validateWindow(t.StartTime, t.EndTime); err != nil {
			return LessonTemplate{}, err
		}
	}
	if p.Room != nil {
		if *p.Room == "" {
			return LessonTemplate{}, fmt.Errorf("%w: room", ErrMissingField)
		}
		t.Room = *p.Room
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		st, err := ParseStatus(*p.Status)
		if err != nil {
			return LessonTemplate{}, err
		}
		t.Status = st
	}
	if err := s.store.UpdateTemplate(ctx, t); err != nil {
		return LessonTemplate{}, err
	}
	return t, nil
}

// GetTemplate returns one template by id.
func (s *Service) GetTemplate(ctx context.Context, id string) (LessonTemplate, error) {
	return s.store.GetTemplate(ctx, id)
}

// LessonsOnDate returns every scheduled template recurring on the given
// civil date's resolved weekday, ordered by start time then id.
func (s *Service) LessonsOnDate(ctx context.Context, date string) ([]LessonTemplate, error) {
	day, err := ResolveWeekdayString(date)
	if err != nil {
		return nil, err
	}
	return s.store.ListScheduledByWeekday(ctx, day)
}

// DeleteTemplate removes a template together with its attendance records.
// The purge and the delete happen as one atomic unit at the store, so no
// concurrent RecordAttendance can leave an orphaned record behind.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.store.DeleteTemplateCascade(ctx, id)
}

// RecordAttendance validates and stores one subject's presence for a dated
// occurrence of a lesson. Checks run in a fixed order: lesson existence,
// subject shape, weekday membership, then student uniqueness at insert.
func (s *Service) RecordAttendance(ctx context.Context, lessonID string, subject SubjectRef, date, desc string) (AttendanceRecord, error) {
	t, err := s.store.GetTemplate(ctx, lessonID)
	if err != nil {
		return AttendanceRecord{}, err
	}
	if err := subject.Validate(); err != nil {
		return AttendanceRecord{}, err
	}
	day, err := ResolveWeekdayString(date)
	if err != nil {
		return AttendanceRecord{}, err
	}
	if !t.RecursOn(day) {
		return AttendanceRecord{}, fmt.Errorf("%w: %s is not a %v lesson day", ErrDayMismatch, date, t.Weekdays)
	}
	if desc == "" {
		desc = DefaultAttendanceDesc
	}
	rec := AttendanceRecord{
		LessonID:    lessonID,
		Date:        date,
		Description: desc,
		CreatedAt:   s.now(),
	}
	if subject.IsStudent() {
		id := subject.StudentID
		rec.StudentID = &id
	} else {
		id := subject.TeacherID
		rec.TeacherID = &id
	}
	return s.store.InsertAttendance(ctx, rec)
}

// UpdateAttendanceDesc edits a record's description, the only field that
// stays mutable after creation.
func (s *Service) UpdateAttendanceDesc(ctx context.Context, lessonID, attendanceID, desc string) (AttendanceRecord, error) {
	rec, err := s.store.GetAttendance(ctx, attendanceID)
	if err != nil {
		return AttendanceRecord{}, err
	}
	if rec.LessonID != lessonID {
		return AttendanceRecord{}, ErrMismatchedLesson
	}
	if err := s.store.UpdateAttendanceDesc(ctx, attendanceID, desc); err != nil {
		return AttendanceRecord{}, err
	}
	rec.Description = desc
	return rec, nil
}

// DeleteAttendance removes one record, refusing when the record belongs to
// a different lesson than the one named by the caller. The removed record
// is returned so callers can invalidate anything keyed on its date.
func (s *Service) DeleteAttendance(ctx context.Context, lessonID, attendanceID string) (AttendanceRecord, error) {
	rec, err := s.store.GetAttendance(ctx, attendanceID)
	if err != nil {
		return AttendanceRecord{}, err
	}
	if rec.LessonID != lessonID {
		return AttendanceRecord{}, ErrMismatchedLesson
	}
	if err := s.store.DeleteAttendance(ctx, attendanceID); err != nil {
		return AttendanceRecord{}, err
	}
	return rec, nil
}

// PurgeForTemplate removes every attendance record owned by lessonID.
// Idempotent: purging a lesson with zero records succeeds with count 0.
func (s *Service) PurgeForTemplate(ctx context.Context, lessonID string) (int, error) {
	return s.store.PurgeAttendance(ctx, lessonID)
}

// ListForDate returns attendance records for a civil date, most recently
// created first.
func (s *Service) ListForDate(ctx context.Context, date string) ([]AttendanceRecord, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	return s.store.ListAttendanceByDate(ctx, date)
}
