package symbol

import (
	"testing"
	"time"
)

func ctxAt(when string, state map[string]interface{}) Context {
	t, err := time.Parse(time.RFC3339, when)
	if err != nil {
		panic(err)
	}
	return NewContext("tester", t, "lab", state)
}

func TestParseTemporalDateTime(t *testing.T) {
	e, err := ParseTemporal("after:2025-06-01T00:00:00Z")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if e.Kind != TemporalDateTime {
		t.Fatal("expected datetime kind")
	}
	if e.Op != OpAfter {
		t.Fatalf("expected after, got %s", e.Op)
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !e.Reference.Equal(want) {
		t.Fatalf("expected %v, got %v", want, e.Reference)
	}
}

func TestParseTemporalDateOnly(t *testing.T) {
	e, err := ParseTemporal("before:2025-12-31")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if e.Kind != TemporalDateTime {
		t.Fatal("expected datetime kind")
	}
	if e.Reference.Year() != 2025 || e.Reference.Month() != 12 || e.Reference.Day() != 31 {
		t.Fatalf("unexpected reference: %v", e.Reference)
	}
}

func TestParseTemporalStateRef(t *testing.T) {
	e, err := ParseTemporal("after:door_opened")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if e.Kind != TemporalStateRef {
		t.Fatal("expected state ref kind")
	}
	if e.StateKey != "door_opened" {
		t.Fatalf("expected door_opened, got %s", e.StateKey)
	}
}

func TestParseTemporalErrors(t *testing.T) {
	for _, raw := range []string{"noon", "during:2025-01-01", "after:", "after:2025-13-45"} {
		if _, err := ParseTemporal(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestEvaluateDateTimeStrict(t *testing.T) {
	after, _ := ParseTemporal("after:2025-06-01T12:00:00Z")
	before, _ := ParseTemporal("before:2025-06-01T12:00:00Z")
	at := ctxAt("2025-06-01T12:00:00Z", nil)

	// Exactly at the reference instant satisfies neither direction.
	if after.Evaluate(at) {
		t.Error("after should not pass at the reference instant")
	}
	if before.Evaluate(at) {
		t.Error("before should not pass at the reference instant")
	}

	later := ctxAt("2025-06-01T12:00:01Z", nil)
	if !after.Evaluate(later) {
		t.Error("after should pass one second later")
	}
	earlier := ctxAt("2025-06-01T11:59:59Z", nil)
	if !before.Evaluate(earlier) {
		t.Error("before should pass one second earlier")
	}
}

func TestEvaluateStateRefTruthiness(t *testing.T) {
	after, _ := ParseTemporal("after:ritual_complete")
	before, _ := ParseTemporal("before:ritual_complete")

	set := ctxAt("2025-06-01T12:00:00Z", map[string]interface{}{"ritual_complete": true})
	unset := ctxAt("2025-06-01T12:00:00Z", nil)

	// Symbolic references gate on truthiness for both operators.
	if !after.Evaluate(set) || !before.Evaluate(set) {
		t.Error("truthy state key should satisfy both operators")
	}
	if after.Evaluate(unset) || before.Evaluate(unset) {
		t.Error("missing state key should satisfy neither operator")
	}

	zero := ctxAt("2025-06-01T12:00:00Z", map[string]interface{}{"ritual_complete": 0})
	if after.Evaluate(zero) {
		t.Error("zero value should not count as truthy")
	}
}

func TestHardDeadline(t *testing.T) {
	before, _ := ParseTemporal("before:2025-06-01T12:00:00Z")
	if _, ok := before.HardDeadline(); !ok {
		t.Fatal("absolute before should expose a deadline")
	}

	after, _ := ParseTemporal("after:2025-06-01T12:00:00Z")
	if _, ok := after.HardDeadline(); ok {
		t.Fatal("after should not expose a deadline")
	}

	symbolic, _ := ParseTemporal("before:quest_done")
	if _, ok := symbolic.HardDeadline(); ok {
		t.Fatal("symbolic before should not expose a deadline")
	}
}

func TestNotYetOpen(t *testing.T) {
	after, _ := ParseTemporal("after:2025-06-01T12:00:00Z")
	early := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	if !after.NotYetOpen(early) {
		t.Error("expected not yet open before the reference")
	}
	if after.NotYetOpen(late) {
		t.Error("expected open after the reference")
	}

	symbolic, _ := ParseTemporal("after:flag")
	if symbolic.NotYetOpen(early) {
		t.Error("symbolic expressions never report not-yet-open")
	}
}
