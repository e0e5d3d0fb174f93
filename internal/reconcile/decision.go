package reconcile

import (
	"errors"

	"heating_scheduler/internal/models"
)

// ErrUnknownMode is reported when a target mode is outside the family vocabulary.
var ErrUnknownMode = errors.New("unknown mode")

// Action is the outcome of reconciling one device.
type Action string

const (
	ActionNotFound     Action = "NOT_FOUND"
	ActionOffline      Action = "OFFLINE"
	ActionIntermediate Action = "INTERMEDIATE"
	ActionInSync       Action = "IN_SYNC"
	ActionDebounced    Action = "DEBOUNCED"
	ActionFlagged      Action = "FLAGGED"
	ActionApplied      Action = "APPLIED"
	ActionDryRun       Action = "DRY_RUN"
	ActionFailed       Action = "FAILED"
	ActionUnknownMode  Action = "UNKNOWN_MODE"
)

// Actions lists every action, for metrics and API filters.
var Actions = []Action{
	ActionNotFound, ActionOffline, ActionIntermediate, ActionInSync, ActionDebounced,
	ActionFlagged, ActionApplied, ActionDryRun, ActionFailed, ActionUnknownMode,
}

// Decision records what happened to one device.
type Decision struct {
	Device     string
	Family     models.Family
	Action     Action
	Mode       string // mode applied or targeted
	Status     string // live status observed
	Overridden bool   // tariff override replaced the scheduled mode
	Err        error
}

// Message renders a short human-readable description of the decision.
func (d Decision) Message() string {
	switch d.Action {
	case ActionNotFound:
		return "device not found"
	case ActionOffline:
		return "device is offline"
	case ActionIntermediate:
		return "transitional status " + d.Status + ", retry later"
	case ActionInSync:
		return "already in mode " + d.Mode
	case ActionDebounced:
		return "external change still within cooldown"
	case ActionFlagged:
		return "external change detected, status " + d.Status
	case ActionApplied:
		if d.Overridden {
			return "tariff override applied: " + d.Mode
		}
		return "mode applied: " + d.Mode
	case ActionDryRun:
		return "dry run, would apply " + d.Mode
	case ActionFailed, ActionUnknownMode:
		if d.Err != nil {
			return d.Err.Error()
		}
	}
	return string(d.Action)
}
