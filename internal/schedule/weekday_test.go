package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestResolveWeekdaySundayRollsForward(t *testing.T) {
	// Walk a full year so every month and the leap day are covered.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		d := start.AddDate(0, 0, i)
		got := ResolveWeekday(d)
		if got == "sunday" {
			t.Fatalf("ResolveWeekday(%s) returned sunday", d.Format(DateLayout))
		}
		if d.Weekday() == time.Sunday {
			next := ResolveWeekday(d.AddDate(0, 0, 1))
			if got != next {
				t.Fatalf("sunday %s resolved to %s, following monday to %s", d.Format(DateLayout), got, next)
			}
			if got != Monday {
				t.Fatalf("sunday %s resolved to %s, want monday", d.Format(DateLayout), got)
			}
		}
	}
}

func TestResolveWeekdayMatchesISOOnNonSundays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Sunday {
			continue
		}
		if got, want := ResolveWeekday(d), weekdayNames[d.Weekday()]; got != want {
			t.Fatalf("ResolveWeekday(%s) = %s, want %s", d.Format(DateLayout), got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-03-05", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-13-01", false},
		{"05-03-2024", false},
		{"not-a-date", false},
		{"", false},
	}
	for _, tc := range tests {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", tc.in, err)
		}
	}
}

func TestParseWeekdayRejectsSunday(t *testing.T) {
	if _, err := ParseWeekday("sunday"); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("ParseWeekday(sunday) = %v, want ErrInvalidWeekday", err)
	}
	if _, err := ParseWeekday("Monday"); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("ParseWeekday(Monday) = %v, want ErrInvalidWeekday (names are lowercase)", err)
	}
	w, err := ParseWeekday("saturday")
	if err != nil || w != Saturday {
		t.Fatalf("ParseWeekday(saturday) = %v, %v", w, err)
	}
}

func TestNormalizeWeekdays(t *testing.T) {
	got, err := normalizeWeekdays([]string{"wednesday", "monday", "monday", "friday"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Weekday{Monday, Wednesday, Friday}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if _, err := normalizeWeekdays([]string{"monday", "funday"}); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("normalizeWeekdays with bad name = %v, want ErrInvalidWeekday", err)
	}
}
