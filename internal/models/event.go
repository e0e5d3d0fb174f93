package models

import "time"

// ReconcileEvent is a single decision taken for one device during a run.
type ReconcileEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	RunID      string    `json:"run_id"`
	Device     string    `json:"device"`
	Family     Family    `json:"family"`
	Action     string    `json:"action"`         // APPLIED | IN_SYNC | DEBOUNCED | FLAGGED | ...
	Mode       string    `json:"mode,omitempty"` // target or override mode
	Message    string    `json:"message"`        // human-readable
}

// EventFilter narrows an event log query. Zero fields do not filter.
type EventFilter struct {
	From   time.Time
	To     time.Time
	Device string
	Action string
	Limit  int
}
