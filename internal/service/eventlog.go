package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"heating_scheduler/internal/models"
	"heating_scheduler/internal/repository"
)

// LogFilter supports history filtering by time range, device and action.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Device string
	Action string // "", "APPLIED", "FLAGGED", "DEBOUNCED", ...
	Limit  int
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidLimit     = errors.New("invalid limit: must be >= 0")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAction trims spaces and uppercases the action filter.
func normalizeAction(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (models.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return models.EventFilter{}, errInvalidTimeRange
	}
	if f.Limit < 0 {
		return models.EventFilter{}, errInvalidLimit
	}
	return models.EventFilter{
		From:   from,
		To:     to,
		Device: strings.TrimSpace(f.Device),
		Action: normalizeAction(f.Action),
		Limit:  f.Limit,
	}, nil
}

// IsInvalidFilter reports whether err comes from filter validation.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errInvalidLimit)
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ReconcileEvent, error) {
	filter, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, filter)
}
