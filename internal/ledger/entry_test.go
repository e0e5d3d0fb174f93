package ledger

import (
	"testing"
	"time"
)

func TestMerge_RightBiasedAndPure(t *testing.T) {
	t.Parallel()

	heatzy := Entry{"lounge": Canonical("ECO"), "shared": Canonical("A")}
	stove := Entry{"stove": PendingSince(time.Unix(10, 0)), "shared": Canonical("B")}

	got := Merge(heatzy, stove)
	if len(got) != 3 {
		t.Fatalf("expected 3 keys, got %v", got.Devices())
	}
	if got["shared"].String() != "B" {
		t.Fatalf("right-biased merge expected B, got %q", got["shared"].String())
	}
	if heatzy["shared"].String() != "A" || len(heatzy) != 2 {
		t.Fatalf("inputs mutated: %v", heatzy.Strings())
	}
}

func TestEntry_GetSkipsInvalid(t *testing.T) {
	t.Parallel()

	e := Entry{"ok": Canonical("ECO"), "bad": {}}
	if _, ok := e.Get("ok"); !ok {
		t.Fatalf("expected ok")
	}
	if _, ok := e.Get("bad"); ok {
		t.Fatalf("zero value must be treated as absent")
	}
	if _, ok := e.Get("missing"); ok {
		t.Fatalf("missing device must be absent")
	}
}

func TestFromStrings(t *testing.T) {
	t.Parallel()

	e, err := FromStrings(map[string]string{"a": "ECO", "b": "changed_5"})
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}
	if got := e.Devices(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("devices: %v", got)
	}
	if !e["b"].IsPending() {
		t.Fatalf("b should be pending")
	}

	if _, err := FromStrings(map[string]string{"a": "changed_x"}); err == nil {
		t.Fatalf("expected error for malformed marker")
	}
}
