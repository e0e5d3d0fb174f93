package models

// Family identifies a device family handled by one provider.
type Family string

const (
	FamilyHeatzy Family = "heatzy"
	FamilyStove  Family = "stove"
)

// DeviceTarget is the desired state of one device inside a schedule definition.
type DeviceTarget struct {
	Mode      string `json:"mode" yaml:"mode"`
	Type      Family `json:"type" yaml:"type"`
	Sequences any    `json:"sequences,omitempty" yaml:"sequences,omitempty"` // carried through, never interpreted
}

// ScheduleDefinition is a named, prioritized set of per-device targets.
type ScheduleDefinition struct {
	Title    string                  `json:"title" yaml:"title"`
	Priority int                     `json:"priority" yaml:"priority"` // larger wins
	Devices  map[string]DeviceTarget `json:"devices" yaml:"devices"`
}

// MergedTarget is the single desired state per device for one run.
type MergedTarget map[string]DeviceTarget

// Booking is a time-bounded calendar entry whose title selects a definition.
type Booking struct {
	Title     string `json:"title" yaml:"title"`
	StartTime string `json:"start_time" yaml:"start_time"` // RFC3339, naive date-time or date
	EndTime   string `json:"end_time" yaml:"end_time"`
}
