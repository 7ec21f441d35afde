package gate

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

var noon = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func makeContext(who, where string, state map[string]interface{}) symbol.Context {
	return symbol.NewContext(who, noon, where, state)
}

func TestEmptyGatePasses(t *testing.T) {
	sym := symbol.Symbol{ID: "free"}
	reasons := Evaluate(sym, makeContext("anyone", "anywhere", nil), nil)
	if len(reasons) != 0 {
		t.Fatalf("empty gate should pass, got %v", reasons)
	}
}

func TestWhoMismatch(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{Who: []string{"bob", "alice"}}}
	reasons := Evaluate(sym, makeContext("eve", "", nil), nil)
	if len(reasons) != 1 {
		t.Fatalf("expected 1 reason, got %v", reasons)
	}
	r := reasons[0]
	if r.Category != symbol.FailureWho {
		t.Fatalf("expected who category, got %s", r.Category)
	}
	if !reflect.DeepEqual(r.Expected, []string{"alice", "bob"}) {
		t.Fatalf("expected sorted allow list, got %v", r.Expected)
	}
	if r.Actual != "eve" {
		t.Fatalf("unexpected actual: %v", r.Actual)
	}
	if !strings.Contains(r.Message, `"eve" not in`) {
		t.Fatalf("unexpected message: %s", r.Message)
	}
}

func TestWhereMismatch(t *testing.T) {
	sym := symbol.Symbol{ID: "s1", Gate: symbol.GateCondition{Where: []string{"beach"}}}
	reasons := Evaluate(sym, makeContext("", "forest", nil), nil)
	if len(reasons) != 1 || reasons[0].Category != symbol.FailureWhere {
		t.Fatalf("expected where mismatch, got %v", reasons)
	}
	if !reflect.DeepEqual(reasons[0].Expected, []string{"beach"}) {
		t.Fatalf("unexpected expected: %v", reasons[0].Expected)
	}
	if reasons[0].Actual != "forest" {
		t.Fatalf("unexpected actual: %v", reasons[0].Actual)
	}
}

func TestStateMismatchWrongValue(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{State: map[string]interface{}{"has_key": true}}}
	ctx := makeContext("", "", map[string]interface{}{"has_key": false})
	reasons := Evaluate(sym, ctx, nil)
	if len(reasons) != 1 || reasons[0].Category != symbol.FailureState {
		t.Fatalf("expected state mismatch, got %v", reasons)
	}
	if !strings.Contains(reasons[0].Message, "has_key") {
		t.Fatalf("unexpected message: %s", reasons[0].Message)
	}
}

func TestStateMismatchMissingKey(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{State: map[string]interface{}{"quest": "active"}}}
	reasons := Evaluate(sym, makeContext("", "", nil), nil)
	if len(reasons) != 1 || reasons[0].Category != symbol.FailureState {
		t.Fatalf("expected state mismatch, got %v", reasons)
	}
}

func TestStateFirstFailingKeyIsDeterministic(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{State: map[string]interface{}{
		"zeta":  1,
		"alpha": 1,
	}}}
	reasons := Evaluate(sym, makeContext("", "", nil), nil)
	if len(reasons) != 1 {
		t.Fatalf("expected 1 reason, got %v", reasons)
	}
	if !strings.Contains(reasons[0].Message, `state["alpha"]`) {
		t.Fatalf("expected alpha reported first, got %s", reasons[0].Message)
	}
}

func TestStateNumericEqualityAcrossTypes(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{State: map[string]interface{}{"gold": 5}}}
	// A JSON-decoded context carries float64 values.
	ctx := makeContext("", "", map[string]interface{}{"gold": 5.0})
	if reasons := Evaluate(sym, ctx, nil); len(reasons) != 0 {
		t.Fatalf("5 should match 5.0, got %v", reasons)
	}

	strCtx := makeContext("", "", map[string]interface{}{"gold": "5"})
	if reasons := Evaluate(sym, strCtx, nil); len(reasons) != 1 {
		t.Fatalf("5 should not match \"5\", got %v", reasons)
	}
}

func TestWhenNotSatisfied(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{When: "after:2025-07-01T00:00:00Z"}}
	reasons := Evaluate(sym, makeContext("", "", nil), nil)
	if len(reasons) != 1 || reasons[0].Category != symbol.FailureWhen {
		t.Fatalf("expected when mismatch, got %v", reasons)
	}
	if !strings.Contains(reasons[0].Message, "not satisfied") {
		t.Fatalf("unexpected message: %s", reasons[0].Message)
	}
}

func TestExpiredDeadlineReportsBothReasons(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{When: "before:2025-01-01T00:00:00Z"}}
	reasons := Evaluate(sym, makeContext("", "", nil), nil)
	if len(reasons) != 2 {
		t.Fatalf("expected expired and when reasons, got %v", reasons)
	}
	if reasons[0].Category != symbol.FailureExpired {
		t.Fatalf("expected expired first, got %s", reasons[0].Category)
	}
	if reasons[1].Category != symbol.FailureWhen {
		t.Fatalf("expected when second, got %s", reasons[1].Category)
	}
	if !strings.Contains(reasons[0].Message, "has passed") {
		t.Fatalf("unexpected message: %s", reasons[0].Message)
	}
}

func TestSymbolicBeforeNeverExpires(t *testing.T) {
	sym := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{When: "before:quest_done"}}
	reasons := Evaluate(sym, makeContext("", "", nil), nil)
	// Unset state key: the when dimension fails but nothing expires.
	if len(reasons) != 1 || reasons[0].Category != symbol.FailureWhen {
		t.Fatalf("expected single when reason, got %v", reasons)
	}
}

func TestDependencyUnmetReportsFirstInDeclaredOrder(t *testing.T) {
	sym := symbol.Symbol{ID: "s", DependsOn: []string{"second", "first"}}
	reasons := Evaluate(sym, makeContext("", "", nil), map[string]bool{})
	if len(reasons) != 1 || reasons[0].Category != symbol.FailureDependency {
		t.Fatalf("expected dependency reason, got %v", reasons)
	}
	if reasons[0].Expected != "second" {
		t.Fatalf("expected first declared dep, got %v", reasons[0].Expected)
	}

	reasons = Evaluate(sym, makeContext("", "", nil), map[string]bool{"second": true})
	if len(reasons) != 1 || reasons[0].Expected != "first" {
		t.Fatalf("expected next unmet dep, got %v", reasons)
	}

	reasons = Evaluate(sym, makeContext("", "", nil), map[string]bool{"second": true, "first": true})
	if len(reasons) != 0 {
		t.Fatalf("all deps met, got %v", reasons)
	}
}

func TestEvaluateCollectsAllDimensions(t *testing.T) {
	sym := symbol.Symbol{
		ID:        "s",
		DependsOn: []string{"dep"},
		Gate: symbol.GateCondition{
			Who:   []string{"alice"},
			Where: []string{"beach"},
			State: map[string]interface{}{"ready": true},
			When:  "after:2025-07-01T00:00:00Z",
		},
	}
	reasons := Evaluate(sym, makeContext("eve", "forest", nil), nil)
	want := []symbol.FailureCategory{
		symbol.FailureDependency,
		symbol.FailureWho,
		symbol.FailureWhere,
		symbol.FailureState,
		symbol.FailureWhen,
	}
	if len(reasons) != len(want) {
		t.Fatalf("expected %d reasons, got %v", len(want), reasons)
	}
	for i, cat := range want {
		if reasons[i].Category != cat {
			t.Fatalf("reason %d: expected %s, got %s", i, cat, reasons[i].Category)
		}
	}
}

func TestEligibleIgnoresDependencies(t *testing.T) {
	sym := symbol.Symbol{ID: "s", DependsOn: []string{"never"}}
	if !Eligible(sym, makeContext("", "", nil)) {
		t.Fatal("gate dimensions pass, so the symbol is eligible")
	}

	gated := symbol.Symbol{ID: "s", Gate: symbol.GateCondition{State: map[string]interface{}{"on": true}}}
	if Eligible(gated, makeContext("", "", nil)) {
		t.Fatal("failing state gate should not be eligible")
	}
}
