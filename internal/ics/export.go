// Package ics renders events and series as iCalendar documents.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/series"
)

// ContentType is the MIME type for iCalendar documents.
const ContentType = "text/calendar; charset=utf-8"

// prodID identifies this service as the calendar producer.
const prodID = "-//JoinMe//joinme-backend//EN"

// ExportEvent renders a single event as an iCalendar document.
func ExportEvent(e *event.Event) string {
	cal := newCalendar()
	addEvent(cal, e)
	return cal.Serialize()
}

// ExportSerie renders a serie's member events as one iCalendar document. The
// serie title becomes the calendar name.
func ExportSerie(s *series.Serie, members []*event.Event) string {
	cal := newCalendar()
	cal.SetName(s.Title)
	cal.SetDescription(s.Description)
	for _, m := range members {
		addEvent(cal, m)
	}
	return cal.Serialize()
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetMethod(ical.MethodPublish)
	return cal
}

func addEvent(cal *ical.Calendar, e *event.Event) {
	ve := cal.AddEvent(fmt.Sprintf("%s@joinme", e.ID))
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetStartAt(e.Start.UTC())
	ve.SetEndAt(e.End().UTC())
	ve.SetSummary(e.Title)
	if e.Description != "" {
		ve.SetDescription(e.Description)
	}
	if e.Location != nil {
		ve.SetLocation(e.Location.Name)
		ve.SetGeo(e.Location.Lat, e.Location.Lng)
	}
}
