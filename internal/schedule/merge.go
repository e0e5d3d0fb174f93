package schedule

import (
	"sort"

	"heating_scheduler/internal/models"
)

// Merge resolves the definitions into one target per device. When several
// definitions name the same device the highest priority wins as a whole
// {mode, type, sequences} triple; equal priorities go to the later definition.
// Merge does not modify defs.
func Merge(defs []models.ScheduleDefinition) models.MergedTarget {
	ordered := make([]models.ScheduleDefinition, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	out := make(models.MergedTarget)
	for _, def := range ordered {
		for device, target := range def.Devices {
			out[device] = target
		}
	}
	return out
}
