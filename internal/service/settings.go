package service

import (
	"time"

	"heating_scheduler/internal/config"
)

// Settings are the plain values the services need from the configuration.
type Settings struct {
	ModesPath    string
	BookingsPath string // read by heater runs
	CalendarOut  string // written by schedule fetches
	Location     *time.Location
	Cooldown     time.Duration
	SigningKey   string
	TokenTTL     time.Duration
}

// SettingsFromConfig extracts Settings from a loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	bookings := cfg.SetHeaters.Inputs.Schedules
	if bookings == "" {
		bookings = cfg.GetSchedules.Outputs.Schedules
	}
	return Settings{
		ModesPath:    cfg.SetHeaters.Inputs.Modes,
		BookingsPath: bookings,
		CalendarOut:  cfg.GetSchedules.Outputs.Schedules,
		Location:     cfg.Location(),
		Cooldown:     cfg.Cooldown(),
		SigningKey:   cfg.API.SigningKey,
		TokenTTL:     cfg.API.TokenTTL,
	}
}
