// Package form implements pure field validation and form state for the
// event, serie, and profile editing screens. Validators never perform I/O;
// they turn raw user input into either a normalized value or a user-facing
// message, and validation failures are always data, never errors.
package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// Textual layouts for the date and time fields.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// User-facing validation messages. These are surfaced verbatim in the form
// state, so wording changes here are client-visible.
const (
	MsgEmpty           = "cannot be empty"
	MsgPositiveNumber  = "must be a positive number"
	MsgInvalidFormat   = "invalid format"
	MsgDateInPast      = "date cannot be in the past"
	MsgTimeInPast      = "time cannot be in the past"
	MsgVisibility      = "must be PUBLIC or PRIVATE"
	MsgInvalidLocation = "must be a valid location"
)

// Outcome is the result of validating a single field: the normalized value
// when valid, or a user-facing message when not.
type Outcome struct {
	Normalized string
	Message    string
}

// Valid reports whether the field passed validation.
func (o Outcome) Valid() bool { return o.Message == "" }

func ok(normalized string) Outcome { return Outcome{Normalized: normalized} }
func fail(message string) Outcome  { return Outcome{Message: message} }

// ValidateCategory accepts one of the event categories, case-insensitively.
func ValidateCategory(raw string) Outcome {
	if strings.TrimSpace(raw) == "" {
		return fail(MsgEmpty)
	}
	cat, err := event.ParseCategory(raw)
	if err != nil {
		names := make([]string, len(event.Categories))
		for i, c := range event.Categories {
			names[i] = string(c)
		}
		return fail("must be one of: " + strings.Join(names, ", "))
	}
	return ok(string(cat))
}

// ValidateTitle accepts any non-blank title.
func ValidateTitle(raw string) Outcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fail(MsgEmpty)
	}
	return ok(trimmed)
}

// ValidateDescription accepts any non-blank description.
func ValidateDescription(raw string) Outcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fail(MsgEmpty)
	}
	return ok(trimmed)
}

// ValidateDuration accepts a strictly positive integer number of minutes.
func ValidateDuration(raw string) Outcome {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fail(MsgPositiveNumber)
	}
	return ok(strconv.Itoa(n))
}

// ValidateCapacity accepts a strictly positive integer that is not below the
// current participant count. currentParticipants is zero on creation.
func ValidateCapacity(raw string, currentParticipants int) Outcome {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fail(MsgPositiveNumber)
	}
	if n < currentParticipants {
		return fail(fmt.Sprintf("cannot be less than current participants (%d)", currentParticipants))
	}
	return ok(strconv.Itoa(n))
}

// ValidateVisibility accepts PUBLIC or PRIVATE, case-insensitively.
func ValidateVisibility(raw string) Outcome {
	if strings.TrimSpace(raw) == "" {
		return fail(MsgEmpty)
	}
	vis, err := event.ParseVisibility(raw)
	if err != nil {
		return fail(MsgVisibility)
	}
	return ok(string(vis))
}

// ValidateLocation requires a resolved location selection; free text that was
// merely typed into the search box never passes.
func ValidateLocation(loc *event.Location) Outcome {
	if loc == nil || loc.Name == "" {
		return fail(MsgInvalidLocation)
	}
	return ok(loc.Name)
}

// ValidateDate checks the date field in isolation: dd/MM/yyyy layout, and on
// creation not strictly before the start of today. Editing is permissive
// about past dates; the layout check still applies.
func ValidateDate(raw string, creating bool, now time.Time) Outcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fail(MsgEmpty)
	}
	d, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return fail(MsgInvalidFormat)
	}
	if creating && combineDayOnly(d).Before(combineDayOnly(now)) {
		return fail(MsgDateInPast)
	}
	return ok(d.Format(DateLayout))
}

// combineDayOnly normalizes a timestamp to its calendar day in UTC for
// day-granularity comparison.
func combineDayOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateTime checks the time field layout in isolation (HH:mm). The
// combined past-instant check needs the date field too; see RevalidateDateTime.
func ValidateTime(raw string) Outcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fail(MsgEmpty)
	}
	t, err := time.Parse(TimeLayout, trimmed)
	if err != nil {
		return fail(MsgInvalidFormat)
	}
	return ok(t.Format(TimeLayout))
}

// RevalidateDateTime validates the date/time pair jointly. Validity of the
// time field depends on the combined instant, so whenever either input
// changes both outcomes must be recomputed together; a single-field check is
// not sufficient once the paired field is set.
func RevalidateDateTime(rawDate, rawTime string, creating bool, now time.Time) (Outcome, Outcome) {
	dateOut := ValidateDate(rawDate, creating, now)
	timeOut := ValidateTime(rawTime)

	if !dateOut.Valid() || !timeOut.Valid() {
		return dateOut, timeOut
	}

	instant, err := CombineDateTime(dateOut.Normalized, timeOut.Normalized, now.Location())
	if err != nil {
		return dateOut, fail(MsgInvalidFormat)
	}
	if instant.Before(now) {
		return dateOut, fail(MsgTimeInPast)
	}
	return dateOut, timeOut
}

// CombineDateTime resolves a validated date and time pair into a single
// instant in the given location.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
}
