package normalize

import (
	"strings"
	"time"

	"patterncal/internal/models"
)

// Record is an event as exposed by a calendar API: start and end are
// either "2006-01-02" dates or ISO-8601 timestamps.
type Record struct {
	ID    string
	UID   string
	Title string
	Start string
	End   string
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an API date or timestamp. Text that matches no
// known layout is returned as a raw value.
func ParseTimestamp(s string) models.When {
	v := strings.TrimSpace(s)
	if !strings.Contains(v, "T") {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return models.Raw(s)
		}
		return models.DateOf(t)
	}

	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return models.Instant(t, true)
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return models.Instant(t, false)
		}
	}
	return models.Raw(s)
}

// FromRecords normalizes API records. Records without a start are dropped.
func FromRecords(records []Record, source string) []models.Event {
	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Start) == "" {
			continue
		}
		start := ParseTimestamp(r.Start)
		end := start
		if strings.TrimSpace(r.End) != "" {
			end = ParseTimestamp(r.End)
		}
		title := r.Title
		if title == "" {
			title = models.UntitledPlaceholder
		}
		events = append(events, newEvent(r.ID, r.UID, title, start, end, source))
	}
	return events
}
