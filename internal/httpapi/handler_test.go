package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/auth"
	"classtrack/internal/queue"
	"classtrack/internal/schedule"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "classtrack-test"
	testAPIKey = "test-api-key"
)

func newTestRouter(t *testing.T, q queue.Queue) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(Options{
		Service:     schedule.NewService(schedule.NewMemStore()),
		Queue:       q,
		JWTIssuer:   testIssuer,
		JWTKey:      testKey,
		AccessTTL:   time.Minute,
		AdminAPIKey: testAPIKey,
	})
	r := gin.New()
	h.Register(r)
	return r
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.Issue("staff-1", role, testIssuer, testKey, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return tok.Value
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createLesson(t *testing.T, r *gin.Engine, adminTok string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/v1/lessons", adminTok, gin.H{
		"teacher_id": "t1",
		"room":       "A1",
		"start_time": "10:00",
		"end_time":   "11:00",
		"weekdays":   []string{"tuesday"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create lesson = %d: %s", w.Code, w.Body.String())
	}
	var tpl schedule.LessonTemplate
	if err := json.Unmarshal(w.Body.Bytes(), &tpl); err != nil {
		t.Fatal(err)
	}
	return tpl.ID
}

func TestIssueToken(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/v1/auth/token", "", gin.H{"subject": "admin-1", "role": "admin"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no api key = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token",
		bytes.NewBufferString(`{"subject":"admin-1","role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("token issue = %d: %s", w.Code, w.Body.String())
	}
}

func TestRoleEnforcement(t *testing.T) {
	r := newTestRouter(t, nil)
	body := gin.H{"teacher_id": "t1", "room": "A1", "start_time": "10:00", "end_time": "11:00"}

	if w := do(t, r, http.MethodPost, "/v1/lessons", "", body); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/v1/lessons", tokenFor(t, auth.RoleTeacher), body); w.Code != http.StatusForbidden {
		t.Fatalf("teacher creating lesson = %d, want 403", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/v1/lessons", tokenFor(t, auth.RoleAdmin), body); w.Code != http.StatusCreated {
		t.Fatalf("admin creating lesson = %d: %s", w.Code, w.Body.String())
	}
}

func TestErrorStatusMapping(t *testing.T) {
	r := newTestRouter(t, nil)
	adminTok := tokenFor(t, auth.RoleAdmin)
	teacherTok := tokenFor(t, auth.RoleTeacher)
	lessonID := createLesson(t, r, adminTok)

	// InvalidTimeWindow -> 400.
	w := do(t, r, http.MethodPost, "/v1/lessons", adminTok, gin.H{
		"teacher_id": "t1", "room": "A1", "start_time": "11:00", "end_time": "10:00",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted window = %d, want 400", w.Code)
	}

	// NotFound -> 404.
	w = do(t, r, http.MethodPost, "/v1/lessons/nope/attendance", teacherTok, gin.H{
		"student_id": "s1", "date": "2024-03-05",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown lesson = %d, want 404", w.Code)
	}

	// DayMismatch -> 422 (lesson recurs on tuesdays, 2024-03-06 is a wednesday).
	w = do(t, r, http.MethodPost, "/v1/lessons/"+lessonID+"/attendance", teacherTok, gin.H{
		"student_id": "s1", "date": "2024-03-06",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("day mismatch = %d, want 422", w.Code)
	}

	// Success, then DuplicateAttendance -> 409.
	body := gin.H{"student_id": "s1", "date": "2024-03-05"}
	w = do(t, r, http.MethodPost, "/v1/lessons/"+lessonID+"/attendance", teacherTok, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("record = %d: %s", w.Code, w.Body.String())
	}
	var rec schedule.AttendanceRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Description != "Present" {
		t.Fatalf("description = %q, want Present", rec.Description)
	}
	w = do(t, r, http.MethodPost, "/v1/lessons/"+lessonID+"/attendance", teacherTok, body)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate = %d, want 409", w.Code)
	}

	// MismatchedLesson -> 409.
	otherID := createLesson(t, r, adminTok)
	w = do(t, r, http.MethodDelete, "/v1/lessons/"+otherID+"/attendance/"+rec.ID, teacherTok, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("mismatched lesson = %d, want 409", w.Code)
	}

	// InvalidDate -> 400.
	w = do(t, r, http.MethodGet, "/v1/lessons?date=garbage", teacherTok, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date = %d, want 400", w.Code)
	}
}

func TestLessonsOnDateEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	adminTok := tokenFor(t, auth.RoleAdmin)
	lessonID := createLesson(t, r, adminTok)

	w := do(t, r, http.MethodGet, "/v1/lessons?date=2024-03-05", adminTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lessons on date = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Lessons []schedule.LessonTemplate `json:"lessons"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Lessons) != 1 || resp.Lessons[0].ID != lessonID {
		t.Fatalf("lessons = %+v", resp.Lessons)
	}

	// Wrong weekday: empty list, not an error.
	w = do(t, r, http.MethodGet, "/v1/lessons?date=2024-03-07", adminTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("thursday = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Lessons) != 0 {
		t.Fatalf("thursday lessons = %+v, want none", resp.Lessons)
	}
}

func TestDeleteLessonPurges(t *testing.T) {
	r := newTestRouter(t, nil)
	adminTok := tokenFor(t, auth.RoleAdmin)
	lessonID := createLesson(t, r, adminTok)

	for _, s := range []string{"s1", "s2", "s3"} {
		w := do(t, r, http.MethodPost, "/v1/lessons/"+lessonID+"/attendance", adminTok, gin.H{
			"student_id": s, "date": "2024-03-05",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("record %s = %d", s, w.Code)
		}
	}
	if w := do(t, r, http.MethodDelete, "/v1/lessons/"+lessonID, adminTok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete lesson = %d", w.Code)
	}

	w := do(t, r, http.MethodGet, "/v1/attendance?date=2024-03-05", adminTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp struct {
		Attendance []schedule.AttendanceRecord `json:"attendance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Attendance) != 0 {
		t.Fatalf("records after cascade delete = %+v", resp.Attendance)
	}
}

func TestRecordAttendancePublishesEvent(t *testing.T) {
	q := queue.NewInMemory(4)
	r := newTestRouter(t, q)
	adminTok := tokenFor(t, auth.RoleAdmin)
	lessonID := createLesson(t, r, adminTok)

	w := do(t, r, http.MethodPost, "/v1/lessons/"+lessonID+"/attendance", adminTok, gin.H{
		"student_id": "s1", "date": "2024-03-05",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("record = %d: %s", w.Code, w.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-msgs:
		if msg.Type != queue.TypeAttendanceRecorded {
			t.Fatalf("message type = %q", msg.Type)
		}
		var evt queue.AttendanceRecorded
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			t.Fatal(err)
		}
		if evt.LessonID != lessonID || evt.Date != "2024-03-05" || !evt.Student {
			t.Fatalf("event = %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("no event published")
	}
}
