package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classtrack/internal/auth"
	"classtrack/internal/cache"
	"classtrack/internal/metrics"
	"classtrack/internal/queue"
	"classtrack/internal/schedule"
)

// Handler exposes the scheduling and attendance operations over HTTP.
type Handler struct {
	svc   *schedule.Service
	cache *cache.Cache
	queue queue.Queue
	log   *zap.Logger

	jwtIssuer  string
	jwtKey     string
	accessTTL  time.Duration
	adminAPIKy string
}

// Options carries the collaborators a Handler needs. Cache and Queue may be
// nil; the handler then skips caching and event publication.
type Options struct {
	Service     *schedule.Service
	Cache       *cache.Cache
	Queue       queue.Queue
	Log         *zap.Logger
	JWTIssuer   string
	JWTKey      string
	AccessTTL   time.Duration
	AdminAPIKey string
}

// New creates a handler.
func New(opts Options) *Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Handler{
		svc:        opts.Service,
		cache:      opts.Cache,
		queue:      opts.Queue,
		log:        opts.Log,
		jwtIssuer:  opts.JWTIssuer,
		jwtKey:     opts.JWTKey,
		accessTTL:  opts.AccessTTL,
		adminAPIKy: opts.AdminAPIKey,
	}
}

// Register mounts all /v1 routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/auth/token", h.issueToken)

	staff := r.Group("/v1", auth.StaffAuth(h.jwtKey, h.jwtIssuer))
	staff.GET("/lessons", h.lessonsOnDate)
	staff.POST("/lessons/:id/attendance", h.recordAttendance)
	staff.PATCH("/lessons/:id/attendance/:attID", h.updateAttendanceDesc)
	staff.DELETE("/lessons/:id/attendance/:attID", h.deleteAttendance)
	staff.GET("/attendance", h.listForDate)

	admin := staff.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/lessons", h.createLesson)
	admin.PATCH("/lessons/:id", h.updateLesson)
	admin.DELETE("/lessons/:id", h.deleteLesson)
	admin.DELETE("/lessons/:id/attendance", h.purgeAttendance)
}

// writeError maps domain errors onto HTTP statuses and records the outcome.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	var status int
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schedule.ErrDuplicateAttendance),
		errors.Is(err, schedule.ErrMismatchedLesson):
		status = http.StatusConflict
	case errors.Is(err, schedule.ErrDayMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidWeekday),
		errors.Is(err, schedule.ErrInvalidStatus),
		errors.Is(err, schedule.ErrMissingField),
		errors.Is(err, schedule.ErrInvalidTimeWindow),
		errors.Is(err, schedule.ErrInvalidSubject):
		status = http.StatusBadRequest
	default:
		// Storage and other unclassified failures stay opaque to clients.
		h.log.Error("operation failed", zap.String("op", op), zap.Error(err))
		metrics.Ops.WithLabelValues(op, "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	metrics.Ops.WithLabelValues(op, "client_error").Inc()
	c.JSON(status, gin.H{"error": err.Error()})
}

func ok(op string) {
	metrics.Ops.WithLabelValues(op, "ok").Inc()
}

func (h *Handler) issueToken(c *gin.Context) {
	var req struct {
		Subject string `json:"subject" binding:"required"`
		Role    string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if c.GetHeader("X-API-Key") != h.adminAPIKy {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad api key"})
		return
	}
	if !auth.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	tok, err := auth.Issue(req.Subject, req.Role, h.jwtIssuer, h.jwtKey, h.accessTTL)
	if err != nil {
		h.log.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": tok.Value,
		"expires_at":   tok.ExpiresAt.Unix(),
	})
}

type createLessonRequest struct {
	TeacherID   string   `json:"teacher_id"`
	GroupID     *string  `json:"group_id"`
	Weekdays    []string `json:"weekdays"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Room        string   `json:"room"`
	Description string   `json:"description"`
}

func (h *Handler) createLesson(c *gin.Context) {
	var req createLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tpl, err := h.svc.CreateTemplate(c.Request.Context(), schedule.CreateTemplateParams{
		TeacherID:   req.TeacherID,
		GroupID:     req.GroupID,
		Weekdays:    req.Weekdays,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Room:        req.Room,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(c, "create_lesson", err)
		return
	}
	ok("create_lesson")
	c.JSON(http.StatusCreated, tpl)
}

type updateLessonRequest struct {
	TeacherID   *string  `json:"teacher_id"`
	GroupID     *string  `json:"group_id"`
	Weekdays    []string `json:"weekdays"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	Room        *string  `json:"room"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
}

func (h *Handler) updateLesson(c *gin.Context) {
	var req updateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tpl, err := h.svc.UpdateTemplate(c.Request.Context(), c.Param("id"), schedule.UpdateTemplateParams{
		TeacherID:   req.TeacherID,
		GroupID:     req.GroupID,
		Weekdays:    req.Weekdays,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Room:        req.Room,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.writeError(c, "update_lesson", err)
		return
	}
	ok("update_lesson")
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) deleteLesson(c *gin.Context) {
	if err := h.svc.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "delete_lesson", err)
		return
	}
	ok("delete_lesson")
	c.Status(http.StatusNoContent)
}

func (h *Handler) lessonsOnDate(c *gin.Context) {
	date := c.Query("date")
	key := cache.LessonsKey(date)
	if raw, hit := h.cache.Get(c.Request.Context(), key); hit {
		metrics.CacheHits.WithLabelValues("lessons", "hit").Inc()
		ok("lessons_on_date")
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	metrics.CacheHits.WithLabelValues("lessons", "miss").Inc()

	lessons, err := h.svc.LessonsOnDate(c.Request.Context(), date)
	if err != nil {
		h.writeError(c, "lessons_on_date", err)
		return
	}
	if lessons == nil {
		lessons = []schedule.LessonTemplate{}
	}
	payload, err := json.Marshal(gin.H{"lessons": lessons})
	if err != nil {
		h.writeError(c, "lessons_on_date", err)
		return
	}
	h.cache.Set(c.Request.Context(), key, payload)
	ok("lessons_on_date")
	c.Data(http.StatusOK, "application/json", payload)
}

type recordAttendanceRequest struct {
	StudentID   string `json:"student_id"`
	TeacherID   string `json:"teacher_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (h *Handler) recordAttendance(c *gin.Context) {
	var req recordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subject := schedule.SubjectRef{StudentID: req.StudentID, TeacherID: req.TeacherID}
	rec, err := h.svc.RecordAttendance(c.Request.Context(), c.Param("id"), subject, req.Date, req.Description)
	if err != nil {
		h.writeError(c, "record_attendance", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), cache.AttendanceKey(rec.Date))
	h.publishRecorded(c.Request.Context(), rec, subject.IsStudent())
	ok("record_attendance")
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) publishRecorded(ctx context.Context, rec schedule.AttendanceRecord, isStudent bool) {
	if h.queue == nil {
		return
	}
	body, err := json.Marshal(queue.AttendanceRecorded{
		RecordID: rec.ID,
		LessonID: rec.LessonID,
		Date:     rec.Date,
		Student:  isStudent,
	})
	if err != nil {
		return
	}
	if err := h.queue.Publish(ctx, queue.Message{Type: queue.TypeAttendanceRecorded, Body: body}); err != nil {
		h.log.Warn("event publish failed", zap.String("record_id", rec.ID), zap.Error(err))
	}
}

func (h *Handler) updateAttendanceDesc(c *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.svc.UpdateAttendanceDesc(c.Request.Context(), c.Param("id"), c.Param("attID"), req.Description)
	if err != nil {
		h.writeError(c, "update_attendance", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), cache.AttendanceKey(rec.Date))
	ok("update_attendance")
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) deleteAttendance(c *gin.Context) {
	rec, err := h.svc.DeleteAttendance(c.Request.Context(), c.Param("id"), c.Param("attID"))
	if err != nil {
		h.writeError(c, "delete_attendance", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), cache.AttendanceKey(rec.Date))
	ok("delete_attendance")
	c.Status(http.StatusNoContent)
}

func (h *Handler) purgeAttendance(c *gin.Context) {
	n, err := h.svc.PurgeForTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "purge_attendance", err)
		return
	}
	ok("purge_attendance")
	c.JSON(http.StatusOK, gin.H{"purged": n})
}

func (h *Handler) listForDate(c *gin.Context) {
	date := c.Query("date")
	key := cache.AttendanceKey(date)
	if raw, hit := h.cache.Get(c.Request.Context(), key); hit {
		metrics.CacheHits.WithLabelValues("attendance", "hit").Inc()
		ok("list_for_date")
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	metrics.CacheHits.WithLabelValues("attendance", "miss").Inc()

	recs, err := h.svc.ListForDate(c.Request.Context(), date)
	if err != nil {
		h.writeError(c, "list_for_date", err)
		return
	}
	if recs == nil {
		recs = []schedule.AttendanceRecord{}
	}
	payload, err := json.Marshal(gin.H{"attendance": recs})
	if err != nil {
		h.writeError(c, "list_for_date", err)
		return
	}
	h.cache.Set(c.Request.Context(), key, payload)
	ok("list_for_date")
	c.Data(http.StatusOK, "application/json", payload)
}
