package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"patterncal/internal/models"
	"patterncal/internal/normalize"
)

// CalendarClient provides a client for reading the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
	limiter *rate.Limiter
}

// Calendar is an entry of the user's calendar list.
type Calendar struct {
	ID      string
	Summary string
}

// NewCalendarClient creates a Google Calendar client on top of an
// authenticated HTTP client (see Authenticator.Client).
func NewCalendarClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{
		service: service,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}, nil
}

// ListCalendars returns every calendar of the authenticated account.
func (c *CalendarClient) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var calendars []Calendar
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := c.service.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list calendars: %w", err)
		}
		for _, item := range list.Items {
			calendars = append(calendars, Calendar{ID: item.Id, Summary: item.Summary})
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return calendars, nil
}

// EventsSince fetches the events of calendarID that start after now minus
// daysBack days, with recurring events expanded by the API.
func (c *CalendarClient) EventsSince(ctx context.Context, calendarID string, daysBack int) ([]models.Event, error) {
	c.logger.Debug("Fetching events", "calendarID", calendarID, "daysBack", daysBack)
	tmin := time.Now().UTC().AddDate(0, 0, -daysBack).Format(time.RFC3339)

	var items []*calendar.Event
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := c.service.Events.List(calendarID).
			Context(ctx).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(tmin).
			OrderBy("startTime")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve events: %w", err)
		}
		items = append(items, events.Items...)
		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(items), "calendarID", calendarID)
	return normalize.FromRecords(toRecords(items), "google-"+calendarID), nil
}

// toRecords converts Google Calendar events to normalizer records. The
// start and end keep the API's own text, either a date or a timestamp.
func toRecords(items []*calendar.Event) []normalize.Record {
	records := make([]normalize.Record, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, normalize.Record{
			ID:    item.Id,
			UID:   item.ICalUID,
			Title: item.Summary,
			Start: eventTime(item.Start),
			End:   eventTime(item.End),
		})
	}
	return records
}

func eventTime(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}
