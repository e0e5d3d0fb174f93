package schedule

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"

	"gopkg.in/yaml.v3"
)

// DefaultTitle names the mandatory fallback definition in the modes file.
const DefaultTitle = "default"

var (
	ErrNoDefault       = errors.New("modes file has no default definition")
	ErrBookingsMissing = errors.New("schedule file not found, run get_schedules first")
)

// Definitions maps a booking title to its definition.
type Definitions map[string]models.ScheduleDefinition

type rawDefinition struct {
	Priority int                            `yaml:"priority"`
	Devices  map[string]models.DeviceTarget `yaml:"devices"`
}

// LoadDefinitions reads the modes file: a mapping of title -> {priority, devices}.
func LoadDefinitions(path string) (Definitions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read modes %q: %w", path, err)
	}
	var raw map[string]rawDefinition
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode modes %q: %w", path, err)
	}
	if _, ok := raw[DefaultTitle]; !ok {
		return nil, fmt.Errorf("%q: %w", path, ErrNoDefault)
	}

	defs := make(Definitions, len(raw))
	for title, r := range raw {
		for device, target := range r.Devices {
			if target.Mode == "" || target.Type == "" {
				return nil, fmt.Errorf("modes %q: definition %q device %q needs mode and type", path, title, device)
			}
		}
		defs[title] = models.ScheduleDefinition{Title: title, Priority: r.Priority, Devices: r.Devices}
	}
	return defs, nil
}

// LoadBookings reads the bookings file written by the calendar fetch. JSON is
// accepted since it is a YAML subset.
func LoadBookings(path string) ([]models.Booking, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", path, ErrBookingsMissing)
		}
		return nil, fmt.Errorf("read schedules %q: %w", path, err)
	}
	var bookings []models.Booking
	if err := yaml.Unmarshal(b, &bookings); err != nil {
		return nil, fmt.Errorf("decode schedules %q: %w", path, err)
	}
	return bookings, nil
}

// Applicable returns the definitions selected by the bookings active at now,
// followed by the default definition. Bookings whose title has no definition
// are logged and ignored.
func Applicable(defs Definitions, bookings []models.Booking, now time.Time, loc *time.Location, log *logger.Logger) ([]models.ScheduleDefinition, error) {
	var out []models.ScheduleDefinition
	for _, b := range bookings {
		active, err := IsActive(b, now, loc)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		def, ok := defs[b.Title]
		if !ok {
			log.Warnw("booking_without_definition", "title", b.Title)
			continue
		}
		log.Debugw("booking_active", "title", b.Title, "priority", def.Priority)
		out = append(out, def)
	}

	def, ok := defs[DefaultTitle]
	if !ok {
		return nil, ErrNoDefault
	}
	return append(out, def), nil
}

// Titles returns the definition titles sorted, for logs.
func (d Definitions) Titles() []string {
	out := make([]string, 0, len(d))
	for title := range d {
		out = append(out, title)
	}
	sort.Strings(out)
	return out
}
