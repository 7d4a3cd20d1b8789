package schedule

import (
	"context"
	"errors"
	"testing"
)

// The id guards run before any query, so a nil DB proves no statement was
// issued: malformed ids must behave exactly like unknown ids.
func TestRepoMalformedIDsAreNotFound(t *testing.T) {
	r := NewRepo(nil)
	ctx := context.Background()

	for _, id := range []string{"nope", "", "1234", "not-a-uuid-at-all"} {
		if _, err := r.GetTemplate(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetTemplate(%q) = %v, want ErrNotFound", id, err)
		}
		if err := r.UpdateTemplate(ctx, LessonTemplate{ID: id}); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateTemplate(%q) = %v, want ErrNotFound", id, err)
		}
		if err := r.DeleteTemplateCascade(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteTemplateCascade(%q) = %v, want ErrNotFound", id, err)
		}
		if _, err := r.GetAttendance(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetAttendance(%q) = %v, want ErrNotFound", id, err)
		}
		if err := r.UpdateAttendanceDesc(ctx, id, "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateAttendanceDesc(%q) = %v, want ErrNotFound", id, err)
		}
		if err := r.DeleteAttendance(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteAttendance(%q) = %v, want ErrNotFound", id, err)
		}
		// Purge is idempotent: an id that owns nothing removes nothing.
		if n, err := r.PurgeAttendance(ctx, id); n != 0 || err != nil {
			t.Errorf("PurgeAttendance(%q) = %d, %v, want 0, nil", id, n, err)
		}
	}
}
