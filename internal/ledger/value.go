package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// pendingPrefix marks a device whose external change was detected at a unix time.
const pendingPrefix = "changed_"

// ErrMalformedValue is returned for a changed_ marker whose timestamp is not an integer.
var ErrMalformedValue = errors.New("malformed ledger value")

type kind uint8

const (
	kindCanonical kind = iota + 1
	kindPending
)

// Value is one ledger entry: either a canonical mode (last applied or observed)
// or a pending marker recording when an external change was first seen.
// The zero Value is invalid.
type Value struct {
	kind  kind
	mode  string
	since int64
}

// Canonical returns a value holding a mode or status string.
func Canonical(mode string) Value {
	return Value{kind: kindCanonical, mode: mode}
}

// PendingSince returns a changed_<unix> marker for t, truncated to whole seconds.
func PendingSince(t time.Time) Value {
	return Value{kind: kindPending, since: t.Unix()}
}

// IsValid reports whether v was built by a constructor or Parse.
func (v Value) IsValid() bool { return v.kind != 0 }

// IsPending reports whether v is a changed_<unix> marker.
func (v Value) IsPending() bool { return v.kind == kindPending }

// Mode returns the canonical mode and true, or "" and false for a pending marker.
func (v Value) Mode() (string, bool) {
	if v.kind != kindCanonical {
		return "", false
	}
	return v.mode, true
}

// Since returns the detection time of a pending marker.
func (v Value) Since() (time.Time, bool) {
	if v.kind != kindPending {
		return time.Time{}, false
	}
	return time.Unix(v.since, 0), true
}

// Elapsed returns the whole seconds between the marker and now.
func (v Value) Elapsed(now time.Time) int64 {
	return now.Unix() - v.since
}

// String renders the storage form: the mode itself or changed_<unix>.
func (v Value) String() string {
	switch v.kind {
	case kindCanonical:
		return v.mode
	case kindPending:
		return pendingPrefix + strconv.FormatInt(v.since, 10)
	default:
		return ""
	}
}

// Parse decodes the storage form. Any string not starting with changed_ is canonical.
func Parse(s string) (Value, error) {
	if !strings.HasPrefix(s, pendingPrefix) {
		return Canonical(s), nil
	}
	ts, err := strconv.ParseInt(strings.TrimPrefix(s, pendingPrefix), 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrMalformedValue, s)
	}
	return Value{kind: kindPending, since: ts}, nil
}

// MarshalText implements encoding.TextMarshaler so JSON/YAML carry the storage form.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Value) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
