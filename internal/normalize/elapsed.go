// Package normalize turns heterogeneous calendar sources into canonical
// events: iCalendar payloads, already-decoded CalDAV objects, and event
// records fetched from a calendar API.
package normalize

import (
	"time"

	"patterncal/internal/models"
)

// Elapsed returns the time between start and end.
//
//   - Two instants are subtracted. When only one of them carries an offset,
//     both are reduced to their wall clock first.
//   - Two dates yield whole days, the end date being exclusive.
//   - Any other combination is indeterminate and yields zero.
//
// The result is never negative.
func Elapsed(start, end models.When) time.Duration {
	var d time.Duration
	switch {
	case start.IsInstant() && end.IsInstant():
		if start.Aware == end.Aware {
			d = end.Time.Sub(start.Time)
		} else {
			d = end.Naive().Time.Sub(start.Naive().Time)
		}
	case start.IsDate() && end.IsDate():
		d = end.Time.Sub(start.Time)
	}
	if d < 0 {
		return 0
	}
	return d
}

func newEvent(id, uid, title string, start, end models.When, source string) models.Event {
	return models.Event{
		ID:       id,
		UID:      uid,
		Title:    title,
		Start:    start,
		End:      end,
		Duration: Elapsed(start, end),
		Source:   source,
	}
}
