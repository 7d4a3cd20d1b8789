package schedule

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemStore is a mutex-serialized in-memory Store for dev runs and tests.
// The single lock gives the same atomicity the Postgres store gets from
// its unique index and transactions.
type MemStore struct {
	mu        sync.Mutex
	templates map[string]LessonTemplate
	records   map[string]AttendanceRecord
	studentKy map[string]string // lessonID|studentID|date -> record id
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		templates: make(map[string]LessonTemplate),
		records:   make(map[string]AttendanceRecord),
		studentKy: make(map[string]string),
	}
}

func studentKey(lessonID, studentID, date string) string {
	return lessonID + "|" + studentID + "|" + date
}

// InsertTemplate stores a template, assigning an id when absent.
func (m *MemStore) InsertTemplate(_ context.Context, t LessonTemplate) (LessonTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.templates[t.ID] = cloneTemplate(t)
	return t, nil
}

// GetTemplate returns a template by id.
func (m *MemStore) GetTemplate(_ context.Context, id string) (LessonTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return LessonTemplate{}, ErrNotFound
	}
	return cloneTemplate(t), nil
}

// UpdateTemplate replaces a stored template.
func (m *MemStore) UpdateTemplate(_ context.Context, t LessonTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return ErrNotFound
	}
	m.templates[t.ID] = cloneTemplate(t)
	return nil
}

// ListScheduledByWeekday returns scheduled templates recurring on day.
func (m *MemStore) ListScheduledByWeekday(_ context.Context, day Weekday) ([]LessonTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LessonTemplate
	for _, t := range m.templates {
		if t.Status == StatusScheduled && t.RecursOn(day) {
			out = append(out, cloneTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteTemplateCascade purges dependent records and removes the template
// under one lock acquisition.
func (m *MemStore) DeleteTemplateCascade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return ErrNotFound
	}
	m.purgeLocked(id)
	delete(m.templates, id)
	return nil
}

// InsertAttendance stores a record, enforcing student uniqueness.
func (m *MemStore) InsertAttendance(_ context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.StudentID != nil {
		key := studentKey(rec.LessonID, *rec.StudentID, rec.Date)
		if _, dup := m.studentKy[key]; dup {
			return AttendanceRecord{}, ErrDuplicateAttendance
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		m.studentKy[key] = rec.ID
	} else if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.records[rec.ID] = cloneRecord(rec)
	return rec, nil
}

// GetAttendance returns a record by id.
func (m *MemStore) GetAttendance(_ context.Context, id string) (AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return AttendanceRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// UpdateAttendanceDesc edits a record's description.
func (m *MemStore) UpdateAttendanceDesc(_ context.Context, id, desc string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Description = desc
	m.records[id] = rec
	return nil
}

// DeleteAttendance removes one record.
func (m *MemStore) DeleteAttendance(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	m.dropLocked(rec)
	return nil
}

// PurgeAttendance removes all records owned by lessonID.
func (m *MemStore) PurgeAttendance(_ context.Context, lessonID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeLocked(lessonID), nil
}

// ListAttendanceByDate returns records for date, newest first.
func (m *MemStore) ListAttendanceByDate(_ context.Context, date string) ([]AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AttendanceRecord
	for _, rec := range m.records {
		if rec.Date == date {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemStore) purgeLocked(lessonID string) int {
	n := 0
	for _, rec := range m.records {
		if rec.LessonID == lessonID {
			m.dropLocked(rec)
			n++
		}
	}
	return n
}

func (m *MemStore) dropLocked(rec AttendanceRecord) {
	delete(m.records, rec.ID)
	if rec.StudentID != nil {
		delete(m.studentKy, studentKey(rec.LessonID, *rec.StudentID, rec.Date))
	}
}

func cloneTemplate(t LessonTemplate) LessonTemplate {
	if t.Weekdays != nil {
		t.Weekdays = append([]Weekday(nil), t.Weekdays...)
	}
	if t.GroupID != nil {
		g := *t.GroupID
		t.GroupID = &g
	}
	return t
}

func cloneRecord(rec AttendanceRecord) AttendanceRecord {
	if rec.StudentID != nil {
		s := *rec.StudentID
		rec.StudentID = &s
	}
	if rec.TeacherID != nil {
		s := *rec.TeacherID
		rec.TeacherID = &s
	}
	return rec
}
