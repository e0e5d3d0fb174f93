package stove

import (
	"strings"

	"heating_scheduler/internal/models"
	"heating_scheduler/internal/reconcile"
)

// Mode names accepted by the stove family.
const (
	ModeComfortPlus = "COMFORT_PLUS"
	ModeComfort     = "COMFORT"
	ModeComfortEco  = "COMFORT_ECO"
	ModeLow         = "LOW_MODE"
	ModeOff         = "OFF"

	// StatusOn is reported when the stove burns at a set-point that matches no configured mode.
	StatusOn = "ON"
)

// Modes is the family vocabulary; heating modes first, hottest first.
var Modes = []string{ModeComfortPlus, ModeComfort, ModeComfortEco, ModeLow, ModeOff}

func isHeating(mode string) bool {
	switch mode {
	case ModeComfortPlus, ModeComfort, ModeComfortEco, ModeLow:
		return true
	}
	return false
}

// Temperatures maps heating mode to set-point in degrees.
type Temperatures map[string]int

// NormalizeTemperatures upper-cases mode keys, which the config loader lower-cases.
func NormalizeTemperatures(in map[string]int) Temperatures {
	out := make(Temperatures, len(in))
	for k, v := range in {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

// ModeFor returns the first heating mode whose set-point equals temp, or StatusOn.
func (t Temperatures) ModeFor(temp int) string {
	for _, m := range Modes {
		if v, ok := t[m]; ok && isHeating(m) && v == temp {
			return m
		}
	}
	return StatusOn
}

// Matches reports whether a live status satisfies mode. Two heating modes
// sharing a set-point are indistinguishable on the device and match each other.
func (t Temperatures) Matches(mode, status string) bool {
	if mode == status {
		return true
	}
	if !isHeating(mode) {
		return false
	}
	want, ok := t[mode]
	if status == StatusOn {
		return !ok
	}
	if !isHeating(status) {
		return false
	}
	got, ok2 := t[status]
	return ok && ok2 && want == got
}

// Intermediate reports statuses the stove passes through while igniting or cleaning.
func Intermediate(status string) bool {
	return status != StatusOn && status != ModeOff && !isHeating(status)
}

// Policy returns the reconcile policy for stoves.
func Policy(temps Temperatures) reconcile.Policy {
	return reconcile.Policy{
		Family:       models.FamilyStove,
		Modes:        Modes,
		Matches:      temps.Matches,
		Intermediate: Intermediate,
	}
}
