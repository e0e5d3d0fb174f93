package ledger

import (
	"context"
	"fmt"
	"sort"
)

// Entry maps device name to its ledger value.
type Entry map[string]Value

// Store loads and persists the whole ledger snapshot.
type Store interface {
	// Load returns the persisted snapshot; a missing source yields an empty Entry.
	Load(ctx context.Context) (Entry, error)
	// Save replaces the persisted snapshot.
	Save(ctx context.Context, e Entry) error
}

// Merge returns a new Entry holding every key of the inputs; later inputs win.
func Merge(entries ...Entry) Entry {
	out := make(Entry)
	for _, e := range entries {
		for device, v := range e {
			out[device] = v
		}
	}
	return out
}

// Get returns the value for device and whether it holds a valid one.
func (e Entry) Get(device string) (Value, bool) {
	v, ok := e[device]
	return v, ok && v.IsValid()
}

// Devices returns the device names sorted.
func (e Entry) Devices() []string {
	out := make([]string, 0, len(e))
	for d := range e {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Strings renders the storage form of every value.
func (e Entry) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for d, v := range e {
		out[d] = v.String()
	}
	return out
}

// FromStrings parses storage forms into an Entry.
func FromStrings(m map[string]string) (Entry, error) {
	out := make(Entry, len(m))
	for d, s := range m {
		v, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d, err)
		}
		out[d] = v
	}
	return out, nil
}
