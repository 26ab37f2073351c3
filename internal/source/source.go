// Package source hands canonical events to the report pipeline from an
// ICS file, an ICS link, Google Calendar or a CalDAV calendar.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"patterncal/internal/models"
	"patterncal/internal/normalize"
)

// Source yields canonical events.
type Source interface {
	Name() string
	Events(ctx context.Context) ([]models.Event, error)
}

// File reads an .ics file from disk.
type File struct {
	Path string
}

func (f File) Name() string { return "file:" + f.Path }

// Events reads and parses the file. A malformed file is reported as a
// *normalize.ParseError.
func (f File) Events(_ context.Context) ([]models.Event, error) {
	body, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	return normalize.ParseICS(body)
}

// maxPayload bounds the size of a downloaded calendar.
const maxPayload = 32 << 20

// URL downloads an ICS subscription link.
type URL struct {
	URL    string
	Client *http.Client
	// MaxBytes caps the feed size; zero means 32 MiB.
	MaxBytes int64
}

func (u URL) Name() string { return "url:" + u.URL }

// Events downloads and parses the feed. Any non-2xx status is an error.
func (u URL) Events(ctx context.Context) ([]models.Event, error) {
	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar url: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("calendar returned status %d", resp.StatusCode)
	}

	limit := u.MaxBytes
	if limit <= 0 {
		limit = maxPayload
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("calendar larger than %d bytes", limit)
	}
	return normalize.ParseICS(body)
}

// GoogleEvents is the subset of the Google Calendar client a source needs.
type GoogleEvents interface {
	EventsSince(ctx context.Context, calendarID string, daysBack int) ([]models.Event, error)
}

// Google reads one Google calendar.
type Google struct {
	Client     GoogleEvents
	CalendarID string
	DaysBack   int
}

func (g Google) Name() string { return "google:" + g.CalendarID }

func (g Google) Events(ctx context.Context) ([]models.Event, error) {
	return g.Client.EventsSince(ctx, g.CalendarID, g.DaysBack)
}

// RangeEvents is the subset of the CalDAV client a source needs.
type RangeEvents interface {
	Events(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

// CalDAV reads a CalDAV calendar over a time range.
type CalDAV struct {
	Client   RangeEvents
	Calendar string
	From, To time.Time
}

func (c CalDAV) Name() string { return "caldav:" + c.Calendar }

func (c CalDAV) Events(ctx context.Context) ([]models.Event, error) {
	return c.Client.Events(ctx, c.From, c.To)
}
