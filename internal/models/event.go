package models

import "time"

// UntitledPlaceholder replaces a missing event title so that rule matching
// always has a string to search.
const UntitledPlaceholder = "Sans titre"

// Event represents a canonical calendar event.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID       string        // Identifier in the source calendar, if any
	UID      string        // The iCalendar UID, if any
	Title    string        // Summary or title of the event, never empty
	Start    When          // Start marker of the event
	End      When          // End marker of the event, defaults to Start
	Duration time.Duration // Elapsed time between Start and End, never negative
	Source   string        // The source of the event (e.g., "ics", "google-primary")
}

// Hours returns the duration as fractional hours.
func (e Event) Hours() float64 {
	return e.Duration.Hours()
}
