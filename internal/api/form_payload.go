package api

import (
	"strconv"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/form"
	"github.com/SWENT-team09-2025/joinme-backend/internal/geo"
)

// EventFormRequest carries the raw form field values exactly as the client
// submits them. Numeric and temporal fields arrive as text so validation can
// return the same per-field messages the editing screens display.
type EventFormRequest struct {
	Category    string          `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    *event.Location `json:"location,omitempty"`
	Date        string          `json:"date"`     // dd/MM/yyyy
	Time        string          `json:"time"`     // HH:mm
	Duration    string          `json:"duration"` // minutes
	Capacity    string          `json:"capacity"`
	Visibility  string          `json:"visibility"`
}

// eventInput is a fully validated and normalized form payload.
type eventInput struct {
	Category    event.Category
	Title       string
	Description string
	Location    *event.Location
	Start       time.Time
	Duration    int
	Capacity    int
	Visibility  event.Visibility
}

// validateEventForm runs the field validators over a raw form payload and
// collects per-field messages. pastOK accepts a start instant in the past;
// edits that refill date and time from a stored start set it so an event
// whose start has passed stays editable. groupLinked waives category,
// capacity, and visibility, which are inherited from the group.
// currentParticipants is zero on creation.
func validateEventForm(req *EventFormRequest, creating, pastOK, groupLinked bool, currentParticipants int, now time.Time) (*eventInput, map[string]string) {
	fields := make(map[string]string)
	in := &eventInput{}

	record := func(field form.Field, out form.Outcome) string {
		if !out.Valid() {
			fields[string(field)] = out.Message
			return ""
		}
		return out.Normalized
	}

	if !groupLinked {
		if v := record(form.FieldCategory, form.ValidateCategory(req.Category)); v != "" {
			in.Category = event.Category(v)
		}
		if v := record(form.FieldCapacity, form.ValidateCapacity(req.Capacity, currentParticipants)); v != "" {
			in.Capacity, _ = strconv.Atoi(v)
		}
		if v := record(form.FieldVisibility, form.ValidateVisibility(req.Visibility)); v != "" {
			in.Visibility = event.Visibility(v)
		}
	}

	in.Title = record(form.FieldTitle, form.ValidateTitle(req.Title))
	in.Description = record(form.FieldDescription, form.ValidateDescription(req.Description))

	if v := record(form.FieldDuration, form.ValidateDuration(req.Duration)); v != "" {
		in.Duration, _ = strconv.Atoi(v)
	}

	if out := form.ValidateLocation(req.Location); !out.Valid() {
		fields["location"] = out.Message
	} else {
		loc := *req.Location
		if loc.Geohash == "" {
			loc.Geohash = geo.Encode(loc.Lat, loc.Lng, geo.DefaultPrecision)
		}
		in.Location = &loc
	}

	var dateOut, timeOut form.Outcome
	if pastOK {
		dateOut = form.ValidateDate(req.Date, false, now)
		timeOut = form.ValidateTime(req.Time)
	} else {
		dateOut, timeOut = form.RevalidateDateTime(req.Date, req.Time, creating, now)
	}
	dateNorm := record(form.FieldDate, dateOut)
	timeNorm := record(form.FieldTime, timeOut)
	if dateNorm != "" && timeNorm != "" {
		start, err := form.CombineDateTime(dateNorm, timeNorm, time.UTC)
		if err != nil {
			fields[string(form.FieldTime)] = form.MsgInvalidFormat
		} else {
			in.Start = start.UTC()
		}
	}

	if len(fields) > 0 {
		return nil, fields
	}
	return in, nil
}
