package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"
)

// Source lists upcoming calendar events from a Google calendar.
type Source struct {
	svc        *gcal.Service
	calendarID string
	maxResults int64
	timezone   string
	log        *logger.Logger
}

// NewSource builds a read-only calendar client from service-account JSON.
func NewSource(ctx context.Context, credentials []byte, calendarID string, maxResults int64, timezone string, log *logger.Logger, opts ...option.ClientOption) (*Source, error) {
	if len(credentials) > 0 {
		opts = append([]option.ClientOption{
			option.WithCredentialsJSON(credentials),
			option.WithScopes(gcal.CalendarReadonlyScope),
		}, opts...)
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google calendar client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Source{svc: svc, calendarID: calendarID, maxResults: maxResults, timezone: timezone, log: log}, nil
}

// Upcoming returns single events starting from now, ordered by start time.
func (s *Source) Upcoming(ctx context.Context, now time.Time) ([]models.Booking, error) {
	call := s.svc.Events.List(s.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(now.UTC().Format(time.RFC3339)).
		Context(ctx)
	if s.maxResults > 0 {
		call = call.MaxResults(s.maxResults)
	}
	if s.timezone != "" {
		call = call.TimeZone(s.timezone)
	}
	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list events of %q: %w", s.calendarID, err)
	}
	s.log.Infow("calendar_events_fetched", "calendar_id", s.calendarID, "count", len(events.Items))
	return ToBookings(events.Items), nil
}

// ToBookings keeps the start, end and title of every event. All-day events
// carry their date only.
func ToBookings(items []*gcal.Event) []models.Booking {
	out := make([]models.Booking, 0, len(items))
	for _, e := range items {
		if e == nil || e.Start == nil || e.End == nil {
			continue
		}
		out = append(out, models.Booking{
			Title:     e.Summary,
			StartTime: eventTime(e.Start),
			EndTime:   eventTime(e.End),
		})
	}
	return out
}

func eventTime(t *gcal.EventDateTime) string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// WriteBookings stores bookings as indented JSON, creating the directory if needed.
func WriteBookings(path string, bookings []models.Booking) error {
	if bookings == nil {
		bookings = []models.Booking{}
	}
	raw, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".bookings-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
