package service

import (
	"context"
	"errors"
	"time"

	"heating_scheduler/internal/calendar"
	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"
)

var errCalendarNotConfigured = errors.New("calendar is not configured")

// CalendarSource lists upcoming bookings.
type CalendarSource interface {
	Upcoming(ctx context.Context, now time.Time) ([]models.Booking, error)
}

type ScheduleService struct {
	source CalendarSource
	output string
	log    *logger.Logger
	now    func() time.Time
}

func NewScheduleService(source CalendarSource, output string, log *logger.Logger, now func() time.Time) *ScheduleService {
	return &ScheduleService{source: source, output: output, log: log, now: now}
}

// Fetch writes the upcoming bookings to the schedules file and returns how many were written.
func (s *ScheduleService) Fetch(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, errCalendarNotConfigured
	}
	bookings, err := s.source.Upcoming(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if err := calendar.WriteBookings(s.output, bookings); err != nil {
		return 0, err
	}
	s.log.Infow("schedules_saved", "path", s.output, "count", len(bookings))
	return len(bookings), nil
}
