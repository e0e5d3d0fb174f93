package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"heating_scheduler/internal/models"
)

// ErrMalformedTime is returned for booking bounds that match no accepted layout.
var ErrMalformedTime = errors.New("malformed schedule timestamp")

// Layouts without an offset; they are interpreted in the configured timezone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseBound parses a booking bound. Values carrying an offset keep it;
// naive values get loc attached.
func ParseBound(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTime, s)
}

// IsActive reports whether now lies inside [start, end] of the booking, bounds inclusive.
func IsActive(b models.Booking, now time.Time, loc *time.Location) (bool, error) {
	start, err := ParseBound(b.StartTime, loc)
	if err != nil {
		return false, fmt.Errorf("booking %q start: %w", b.Title, err)
	}
	end, err := ParseBound(b.EndTime, loc)
	if err != nil {
		return false, fmt.Errorf("booking %q end: %w", b.Title, err)
	}
	return !now.Before(start) && !now.After(end), nil
}
