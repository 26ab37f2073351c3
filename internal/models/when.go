package models

import "time"

// WhenKind tells which variant a When holds.
type WhenKind int

const (
	// KindInstant is a timestamp with a time of day.
	KindInstant WhenKind = iota
	// KindDate is a calendar day without a time of day.
	KindDate
	// KindRaw is source text that could not be parsed as a date.
	KindRaw
)

// When is either a calendar date or an instant, as found on calendar
// start/end markers. Unparsable source values are kept as raw text so
// they surface downstream instead of aborting a batch.
type When struct {
	Kind WhenKind
	// Time holds the instant, or midnight UTC of the date.
	Time time.Time
	// Aware is true when the instant carries a known offset.
	Aware bool
	// Raw holds the original text for KindRaw.
	Raw string
}

// Instant returns an instant. Naive instants should be built in UTC so
// that their wall clock is what Time reports.
func Instant(t time.Time, aware bool) When {
	return When{Kind: KindInstant, Time: t, Aware: aware}
}

// Date returns a calendar date.
func Date(year int, month time.Month, day int) When {
	return When{Kind: KindDate, Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t's wall clock.
func DateOf(t time.Time) When {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Raw returns an unparsed value.
func Raw(s string) When {
	return When{Kind: KindRaw, Raw: s}
}

func (w When) IsInstant() bool { return w.Kind == KindInstant }
func (w When) IsDate() bool    { return w.Kind == KindDate }
func (w When) IsRaw() bool     { return w.Kind == KindRaw }

// Naive drops the offset of an aware instant, keeping its wall clock.
// Dates and raw values are returned unchanged.
func (w When) Naive() When {
	if w.Kind != KindInstant {
		return w
	}
	y, mo, d := w.Time.Date()
	h, mi, s := w.Time.Clock()
	return When{
		Kind: KindInstant,
		Time: time.Date(y, mo, d, h, mi, s, w.Time.Nanosecond(), time.UTC),
	}
}

// Day returns the calendar day of the value. ok is false for raw values.
func (w When) Day() (day time.Time, ok bool) {
	if w.Kind == KindRaw {
		return time.Time{}, false
	}
	y, m, d := w.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// Equal reports whether both values are the same variant and point in time.
func (w When) Equal(o When) bool {
	if w.Kind != o.Kind || w.Aware != o.Aware {
		return false
	}
	if w.Kind == KindRaw {
		return w.Raw == o.Raw
	}
	return w.Time.Equal(o.Time)
}

func (w When) String() string {
	switch w.Kind {
	case KindDate:
		return w.Time.Format(time.DateOnly)
	case KindRaw:
		return w.Raw
	default:
		if w.Aware {
			return w.Time.Format(time.RFC3339)
		}
		return w.Time.Format(time.DateTime)
	}
}
