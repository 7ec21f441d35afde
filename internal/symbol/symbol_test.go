package symbol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeDefaultsAndSets(t *testing.T) {
	s := Symbol{
		ID:   "door_unlock",
		Type: "WORLD:door",
		Gate: GateCondition{
			Who:   []string{"rogue", "bard", "rogue"},
			Where: []string{"crypt", "crypt", "atrium"},
		},
	}
	s.Normalize()

	if s.Consumption != OneShot {
		t.Fatalf("expected one_shot default, got %s", s.Consumption)
	}
	if !reflect.DeepEqual(s.Gate.Who, []string{"bard", "rogue"}) {
		t.Fatalf("who not normalized: %v", s.Gate.Who)
	}
	if !reflect.DeepEqual(s.Gate.Where, []string{"atrium", "crypt"}) {
		t.Fatalf("where not normalized: %v", s.Gate.Where)
	}
}

func TestNormalizeKeepsExplicitConsumption(t *testing.T) {
	s := Symbol{ID: "lantern", Consumption: Reusable}
	s.Normalize()
	if s.Consumption != Reusable {
		t.Fatalf("expected reusable, got %s", s.Consumption)
	}
}

func TestEmptyGatePasses(t *testing.T) {
	var g GateCondition
	if !g.Empty() {
		t.Fatal("zero gate should be empty")
	}
	g.State = map[string]interface{}{"k": 1}
	if g.Empty() {
		t.Fatal("gate with state constraint is not empty")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Symbol{
		ID:        "relic",
		Gate:      GateCondition{Who: []string{"mage"}, State: map[string]interface{}{"mana": 5}},
		Payload:   map[string]interface{}{"effect": "glow"},
		DependsOn: []string{"altar"},
	}
	cp := s.Clone()
	cp.Gate.Who[0] = "warrior"
	cp.Gate.State["mana"] = 0
	cp.Payload["effect"] = "dim"
	cp.DependsOn[0] = "tomb"

	if s.Gate.Who[0] != "mage" || !Equal(s.Gate.State["mana"], 5) {
		t.Fatal("gate shared between clone and original")
	}
	if s.Payload["effect"] != "glow" {
		t.Fatal("payload shared between clone and original")
	}
	if s.DependsOn[0] != "altar" {
		t.Fatal("depends_on shared between clone and original")
	}
}

func TestSymbolJSONRoundTrip(t *testing.T) {
	s := Symbol{
		ID:   "secret_room",
		Type: "WORLD:reveal",
		Gate: GateCondition{
			Who:   []string{"scout"},
			When:  "after:2025-01-01T00:00:00Z",
			Where: []string{"library"},
			State: map[string]interface{}{"map_found": true},
		},
		Payload:     map[string]interface{}{"description": "a hidden archive"},
		DependsOn:   []string{"map_found_event"},
		Consumption: Reusable,
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Symbol
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	back.Normalize()
	s.Normalize()

	if back.ID != s.ID || back.Type != s.Type || back.Consumption != s.Consumption {
		t.Fatalf("identity fields diverged: %+v", back)
	}
	if !reflect.DeepEqual(back.Gate.Who, s.Gate.Who) || back.Gate.When != s.Gate.When {
		t.Fatalf("gate diverged: %+v", back.Gate)
	}
	if !Equal(back.Gate.State["map_found"], true) {
		t.Fatal("gate state diverged")
	}
	if !reflect.DeepEqual(back.DependsOn, s.DependsOn) {
		t.Fatalf("depends_on diverged: %v", back.DependsOn)
	}
}

func TestGateSetOrderIrrelevantAfterNormalize(t *testing.T) {
	a := GateCondition{Who: []string{"alice", "bob"}}
	b := GateCondition{Who: []string{"bob", "alice"}}
	a.Normalize()
	b.Normalize()
	if !reflect.DeepEqual(a.Who, b.Who) {
		t.Fatalf("normalized sets differ: %v vs %v", a.Who, b.Who)
	}
}
