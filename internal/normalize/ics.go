package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"patterncal/internal/models"
)

const (
	paramValue    = "VALUE"
	paramTimezone = "TZID"

	layoutDate     = "20060102"
	layoutDateTime = "20060102T150405"
	layoutUTC      = "20060102T150405Z"
)

// ParseError reports a payload that is not a readable calendar document.
// It is the only error the normalizer returns.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot read calendar payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseICS decodes an iCalendar payload and returns one canonical event
// per VEVENT that has a DTSTART.
func ParseICS(payload []byte) ([]models.Event, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &ParseError{Err: errors.New("empty payload")}
	}

	dec := ical.NewDecoder(bytes.NewReader(payload))
	var cals []*ical.Calendar
	for {
		cal, err := dec.Decode()
		if err == io.EOF && len(cals) > 0 {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		cals = append(cals, cal)
	}

	return FromCalendars(cals, "ics"), nil
}

// FromCalendars normalizes already-decoded calendars, e.g. objects returned
// by a CalDAV server.
func FromCalendars(cals []*ical.Calendar, source string) []models.Event {
	events := make([]models.Event, 0)
	for _, cal := range cals {
		if cal == nil || cal.Component == nil {
			continue
		}
		walk(cal.Component, func(comp *ical.Component) {
			if ev, ok := fromComponent(comp, source); ok {
				events = append(events, ev)
			}
		})
	}
	return events
}

func walk(comp *ical.Component, fn func(*ical.Component)) {
	for _, child := range comp.Children {
		if child.Name == ical.CompEvent {
			fn(child)
		}
		walk(child, fn)
	}
}

func fromComponent(comp *ical.Component, source string) (models.Event, bool) {
	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return models.Event{}, false
	}
	start := whenFromProp(startProp)

	end := start
	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		end = whenFromProp(endProp)
	}

	title := models.UntitledPlaceholder
	if comp.Props.Get(ical.PropSummary) != nil {
		title, _ = comp.Props.Text(ical.PropSummary)
	}
	uid, _ := comp.Props.Text(ical.PropUID)

	return newEvent(uid, uid, title, start, end, source), true
}

// whenFromProp reads a DTSTART/DTEND value. Values that cannot be parsed
// are kept as raw text.
func whenFromProp(p *ical.Prop) models.When {
	v := strings.TrimSpace(p.Value)

	if strings.EqualFold(p.Params.Get(paramValue), "DATE") || !strings.Contains(v, "T") {
		t, err := time.Parse(layoutDate, v)
		if err != nil {
			return models.Raw(p.Value)
		}
		return models.DateOf(t)
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse(layoutUTC, v)
		if err != nil {
			return models.Raw(p.Value)
		}
		return models.Instant(t, true)
	}

	if tzid := p.Params.Get(paramTimezone); tzid != "" {
		if loc, err := time.LoadLocation(tzid); err == nil {
			t, err := time.ParseInLocation(layoutDateTime, v, loc)
			if err != nil {
				return models.Raw(p.Value)
			}
			return models.Instant(t, true)
		}
		// Unknown zone names (e.g. Windows ones) keep their wall clock.
	}

	t, err := time.Parse(layoutDateTime, v)
	if err != nil {
		return models.Raw(p.Value)
	}
	return models.Instant(t, false)
}
