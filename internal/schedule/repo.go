package schedule

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repo persists templates and attendance records in Postgres.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a repo.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// isUUID guards the UUID-typed id columns: a malformed id can never
// resolve to a row, so it is treated as not-found instead of letting
// Postgres raise a type error. Keeps behavior aligned with MemStore.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const ddl = `
CREATE TABLE IF NOT EXISTS lesson_templates (
    id UUID PRIMARY KEY,
    teacher_id TEXT NOT NULL,
    group_id TEXT,
    weekdays TEXT NOT NULL DEFAULT '',
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    room TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'scheduled',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance_records (
    id UUID PRIMARY KEY,
    lesson_id UUID NOT NULL REFERENCES lesson_templates(id),
    student_id TEXT,
    teacher_id TEXT,
    occurred_on DATE NOT NULL,
    description TEXT NOT NULL DEFAULT 'Present',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS attendance_student_once
    ON attendance_records (lesson_id, student_id, occurred_on)
    WHERE student_id IS NOT NULL;
`

// EnsureSchema creates tables and the student-uniqueness index if missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// weekdays are stored as a comma-joined lowercase list; membership is
// always decided in Go so the memory and Postgres stores agree exactly.
func joinWeekdays(days []Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

func splitWeekdays(s string) []Weekday {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]Weekday, 0, len(parts))
	for _, p := range parts {
		out = append(out, Weekday(p))
	}
	return out
}

// InsertTemplate writes a new template row.
func (r *Repo) InsertTemplate(ctx context.Context, t LessonTemplate) (LessonTemplate, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO lesson_templates (id, teacher_id, group_id, weekdays, start_time, end_time, room, description, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, t.ID, t.TeacherID, t.GroupID, joinWeekdays(t.Weekdays), t.StartTime, t.EndTime, t.Room, t.Description, t.Status, t.CreatedAt)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return LessonTemplate{}, err
	}
	return t, nil
}

func scanTemplate(row interface{ Scan(...any) error }) (LessonTemplate, error) {
	var t LessonTemplate
	var days string
	if err := row.Scan(&t.ID, &t.TeacherID, &t.GroupID, &days, &t.StartTime, &t.EndTime, &t.Room, &t.Description, &t.Status, &t.CreatedAt); err != nil {
		return LessonTemplate{}, err
	}
	t.Weekdays = splitWeekdays(days)
	return t, nil
}

// GetTemplate returns a single template by id.
func (r *Repo) GetTemplate(ctx context.Context, id string) (LessonTemplate, error) {
	if !isUUID(id) {
		return LessonTemplate{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, teacher_id, group_id, weekdays, start_time, end_time, room, description, status, created_at
		FROM lesson_templates WHERE id = $1
	`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LessonTemplate{}, ErrNotFound
	}
	return t, err
}

// UpdateTemplate replaces a template row.
func (r *Repo) UpdateTemplate(ctx context.Context, t LessonTemplate) error {
	if !isUUID(t.ID) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE lesson_templates
		SET teacher_id = $2, group_id = $3, weekdays = $4, start_time = $5,
		    end_time = $6, room = $7, description = $8, status = $9
		WHERE id = $1
	`, t.ID, t.TeacherID, t.GroupID, joinWeekdays(t.Weekdays), t.StartTime, t.EndTime, t.Room, t.Description, t.Status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListScheduledByWeekday returns scheduled templates recurring on day,
// ordered by start time then id. Membership is filtered in Go against the
// stored weekday list.
func (r *Repo) ListScheduledByWeekday(ctx context.Context, day Weekday) ([]LessonTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, teacher_id, group_id, weekdays, start_time, end_time, room, description, status, created_at
		FROM lesson_templates
		WHERE status = 'scheduled'
		ORDER BY start_time, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LessonTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		if t.RecursOn(day) {
			out = append(out, t)
		}
	}
	return out, rows.Err()
}

// DeleteTemplateCascade removes attendance rows and the template in one
// transaction so concurrent inserts cannot slip between the two deletes.
func (r *Repo) DeleteTemplateCascade(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE lesson_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM lesson_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// InsertAttendance writes a record. Student rows ride the partial unique
// index: a conflicting insert affects no row and maps to
// ErrDuplicateAttendance, keeping detect-and-insert atomic.
func (r *Repo) InsertAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, lesson_id, student_id, teacher_id, occurred_on, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (lesson_id, student_id, occurred_on) WHERE student_id IS NOT NULL DO NOTHING
		RETURNING created_at
	`, rec.ID, rec.LessonID, rec.StudentID, rec.TeacherID, rec.Date, rec.Description, rec.CreatedAt)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AttendanceRecord{}, ErrDuplicateAttendance
		}
		return AttendanceRecord{}, err
	}
	return rec, nil
}

func scanRecord(row interface{ Scan(...any) error }) (AttendanceRecord, error) {
	var rec AttendanceRecord
	var occurredOn time.Time
	if err := row.Scan(&rec.ID, &rec.LessonID, &rec.StudentID, &rec.TeacherID, &occurredOn, &rec.Description, &rec.CreatedAt); err != nil {
		return AttendanceRecord{}, err
	}
	rec.Date = occurredOn.Format(DateLayout)
	return rec, nil
}

// GetAttendance returns a single record by id.
func (r *Repo) GetAttendance(ctx context.Context, id string) (AttendanceRecord, error) {
	if !isUUID(id) {
		return AttendanceRecord{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lesson_id, student_id, teacher_id, occurred_on, description, created_at
		FROM attendance_records WHERE id = $1
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return AttendanceRecord{}, ErrNotFound
	}
	return rec, err
}

// UpdateAttendanceDesc edits a record's description.
func (r *Repo) UpdateAttendanceDesc(ctx context.Context, id, desc string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE attendance_records SET description = $2 WHERE id = $1`, id, desc)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAttendance removes one record.
func (r *Repo) DeleteAttendance(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeAttendance removes every record owned by lessonID. A malformed id
// owns nothing, so the purge succeeds with zero removals.
func (r *Repo) PurgeAttendance(ctx context.Context, lessonID string) (int, error) {
	if !isUUID(lessonID) {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE lesson_id = $1`, lessonID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ListAttendanceByDate returns records for a civil date, newest first.
func (r *Repo) ListAttendanceByDate(ctx context.Context, date string) ([]AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lesson_id, student_id, teacher_id, occurred_on, description, created_at
		FROM attendance_records
		WHERE occurred_on = $1
		ORDER BY created_at DESC, id DESC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
