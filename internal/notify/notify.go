// Package notify publishes ledger values and run summaries over MQTT.
package notify

import (
	"encoding/json"
	"strings"
	"time"
)

// Publisher publishes run results to the broker.
// Errors are reported to the caller, who logs them and carries on.
type Publisher interface {
	// PublishDevice sends the ledger value of one device, retained.
	PublishDevice(device, value string) error
	// PublishRun sends the summary of a finished run.
	PublishRun(summary RunSummary) error
	Close() error
}

// RunSummary is the payload published on <topic>/runs.
type RunSummary struct {
	ID        string         `json:"run_id"`
	At        time.Time      `json:"at"`
	TariffRed bool           `json:"tariff_red"`
	Counts    map[string]int `json:"counts"`
	Failed    []string       `json:"failed_families,omitempty"`
}

// DeviceTopic returns <base>/devices/<device>; spaces and MQTT wildcards in
// device names are replaced by underscores.
func DeviceTopic(base, device string) string {
	return strings.TrimRight(base, "/") + "/devices/" + topicSafe.Replace(device)
}

// RunTopic returns <base>/runs.
func RunTopic(base string) string {
	return strings.TrimRight(base, "/") + "/runs"
}

var topicSafe = strings.NewReplacer(" ", "_", "+", "_", "#", "_", "/", "_")

// FormatRunPayload creates the JSON payload for a run summary.
func FormatRunPayload(s RunSummary) ([]byte, error) {
	out := s
	out.At = s.At.UTC()
	if out.Counts == nil {
		out.Counts = map[string]int{}
	}
	return json.Marshal(out)
}
