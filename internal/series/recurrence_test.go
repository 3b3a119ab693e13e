package series

import (
	"errors"
	"testing"
	"time"
)

func TestExpandRecurrence_Weekly(t *testing.T) {
	anchor := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC) // a Monday

	starts, err := ExpandRecurrence(anchor, "FREQ=WEEKLY;COUNT=4", 0)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(starts) != 4 {
		t.Fatalf("got %d occurrences, want 4", len(starts))
	}
	for i, s := range starts {
		want := anchor.AddDate(0, 0, 7*i)
		if !s.Equal(want) {
			t.Errorf("occurrence %d = %v, want %v", i, s, want)
		}
	}
}

func TestExpandRecurrence_AnchorAlwaysFirst(t *testing.T) {
	anchor := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC) // a Wednesday

	// The rule only matches Mondays, which excludes the anchor itself; the
	// anchor is still the first occurrence.
	starts, err := ExpandRecurrence(anchor, "FREQ=WEEKLY;BYDAY=MO;COUNT=3", 0)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(starts) == 0 || !starts[0].Equal(anchor) {
		t.Fatalf("first occurrence = %v, want anchor %v", starts[0], anchor)
	}
	for i := 1; i < len(starts); i++ {
		if starts[i].Weekday() != time.Monday {
			t.Errorf("occurrence %d on %v, want Monday", i, starts[i].Weekday())
		}
	}
}

func TestExpandRecurrence_CapsUnboundedRules(t *testing.T) {
	anchor := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

	starts, err := ExpandRecurrence(anchor, "FREQ=DAILY", 10)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(starts) != 10 {
		t.Errorf("got %d occurrences, want cap of 10", len(starts))
	}

	// Zero falls back to the default cap.
	starts, err = ExpandRecurrence(anchor, "FREQ=DAILY", 0)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(starts) != DefaultMaxOccurrences {
		t.Errorf("got %d occurrences, want default cap %d", len(starts), DefaultMaxOccurrences)
	}
}

func TestExpandRecurrence_Errors(t *testing.T) {
	anchor := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

	if _, err := ExpandRecurrence(anchor, "", 0); !errors.Is(err, ErrEmptyRecurrence) {
		t.Errorf("empty rule error = %v, want ErrEmptyRecurrence", err)
	}
	if _, err := ExpandRecurrence(anchor, "FREQ=SOMETIMES", 0); err == nil {
		t.Error("expected parse error for malformed rule")
	}
}

func TestExpandRecurrence_ReturnsUTC(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	anchor := time.Date(2026, 3, 2, 18, 0, 0, 0, zurich)

	starts, err := ExpandRecurrence(anchor, "FREQ=WEEKLY;COUNT=2", 0)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	for i, s := range starts {
		if s.Location() != time.UTC {
			t.Errorf("occurrence %d in %v, want UTC", i, s.Location())
		}
	}
}
