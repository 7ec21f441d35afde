package sequence

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/latch/internal/engine"
	"github.com/danielpatrickdp/latch/internal/registry"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

var seqClock = func() time.Time {
	return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
}

func newSequenceEngine(t *testing.T, syms ...symbol.Symbol) *engine.Engine {
	t.Helper()
	reg := registry.NewWithClock(seqClock)
	e := engine.New(reg, engine.Config{Now: seqClock})
	for _, s := range syms {
		if err := e.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.ID, err)
		}
	}
	return e
}

func labSymbols() []symbol.Symbol {
	mutation := func(k string) map[string]interface{} {
		return map[string]interface{}{symbol.StateMutationKey: map[string]interface{}{k: true}}
	}
	return []symbol.Symbol{
		{
			ID:      "lab_opens",
			Gate:    symbol.GateCondition{Where: []string{"lab_entrance"}},
			Payload: mutation("lab_open"),
		},
		{
			ID: "a_arrives",
			Gate: symbol.GateCondition{
				Who:   []string{"researcher_a"},
				State: map[string]interface{}{"lab_open": true},
			},
			Payload: mutation("a_present"),
		},
		{
			ID: "b_arrives",
			Gate: symbol.GateCondition{
				Who:   []string{"researcher_b"},
				State: map[string]interface{}{"lab_open": true},
			},
			Payload: mutation("b_present"),
		},
		{
			ID: "collaboration",
			Gate: symbol.GateCondition{
				Where: []string{"main_lab"},
				State: map[string]interface{}{"a_present": true, "b_present": true},
			},
		},
	}
}

func TestRunCarriesStateBetweenPerspectives(t *testing.T) {
	e := newSequenceEngine(t, labSymbols()...)
	runner := NewRunner(e)

	bound, finalState, err := runner.Run(
		[]Perspective{
			{Where: "lab_entrance"},
			{Who: "researcher_a", Where: "lab_entrance"},
			{Who: "researcher_b", Where: "lab_entrance"},
			{Where: "main_lab"},
		},
		map[string]interface{}{"lab_open": false},
		seqClock(),
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"lab_opens", "a_arrives", "b_arrives", "collaboration"}
	if len(bound) != len(want) {
		t.Fatalf("expected %d activations, got %d", len(want), len(bound))
	}
	for i, b := range bound {
		if b.SymbolID != want[i] {
			t.Fatalf("activation %d is %s, want %s", i, b.SymbolID, want[i])
		}
	}
	for _, key := range []string{"lab_open", "a_present", "b_present"} {
		if !symbol.Equal(finalState[key], true) {
			t.Fatalf("expected %s true in final state, got %v", key, finalState[key])
		}
	}

	// Each activation was witnessed by its perspective's actor.
	if bound[1].Context.Who != "researcher_a" || bound[2].Context.Who != "researcher_b" {
		t.Fatalf("witness mismatch: %s / %s", bound[1].Context.Who, bound[2].Context.Who)
	}
}

func TestRunDefaultsWhenPerPerspective(t *testing.T) {
	e := newSequenceEngine(t, symbol.Symbol{ID: "solo"})
	runner := NewRunner(e)

	start := seqClock()
	bound, _, err := runner.Run([]Perspective{{Where: "anywhere"}}, nil, start)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(bound) != 1 || !bound[0].Context.When.Equal(start) {
		t.Fatalf("perspective should inherit the initial timestamp: %+v", bound)
	}
}

func TestRunTimelineOpensSymbolsOverTime(t *testing.T) {
	e := newSequenceEngine(t,
		symbol.Symbol{ID: "early"},
		symbol.Symbol{ID: "late", Gate: symbol.GateCondition{When: "after:2025-06-01T13:00:00Z"}},
	)
	runner := NewRunner(e)

	bound, _, err := runner.RunTimeline(
		[]Step{
			{When: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), Who: "alice", Where: "lobby"},
			{When: time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC), Who: "alice", Where: "lobby"},
		},
		nil,
	)
	if err != nil {
		t.Fatalf("run timeline: %v", err)
	}
	if len(bound) != 2 || bound[0].SymbolID != "early" || bound[1].SymbolID != "late" {
		t.Fatalf("unexpected activations: %+v", bound)
	}
	// The not-yet-open step leaves no failure behind.
	if e.Audit().Len() != 2 {
		t.Fatalf("expected only the two successes in the trail, got %d", e.Audit().Len())
	}
}

func TestRunDoesNotAliasCallerState(t *testing.T) {
	e := newSequenceEngine(t, symbol.Symbol{
		ID:      "mutator",
		Payload: map[string]interface{}{symbol.StateMutationKey: map[string]interface{}{"touched": true}},
	})
	runner := NewRunner(e)

	initial := map[string]interface{}{"touched": false}
	_, finalState, err := runner.Run([]Perspective{{}}, initial, seqClock())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !symbol.Equal(finalState["touched"], true) {
		t.Fatalf("mutation lost: %v", finalState)
	}
	if !symbol.Equal(initial["touched"], false) {
		t.Fatalf("caller's map must not change: %v", initial)
	}
}

func TestRunEmptySequence(t *testing.T) {
	e := newSequenceEngine(t, symbol.Symbol{ID: "unused"})
	runner := NewRunner(e)

	bound, finalState, err := runner.Run(nil, map[string]interface{}{"k": 1}, seqClock())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(bound) != 0 {
		t.Fatalf("nothing should bind, got %v", bound)
	}
	if !symbol.Equal(finalState["k"], 1) {
		t.Fatalf("initial state should pass through, got %v", finalState)
	}
}
