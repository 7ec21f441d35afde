package symbol

import "sort"

// Payload keys with engine-level meaning.
const (
	// WeightKey, when present in a payload, overrides the default weight of 1.0.
	WeightKey = "weight"
	// StateMutationKey, when present in a payload, holds a map of state
	// writes applied at the round boundary of a cascading bind.
	StateMutationKey = "state_mutation"
)

// #region gate
// GateCondition is the four-dimension activation predicate of a symbol.
// Absent dimensions always pass; present dimensions combine with AND.
// The zero value is the empty gate, which passes for every context.
type GateCondition struct {
	Who   []string               `json:"who,omitempty"`
	When  string                 `json:"when,omitempty"`
	Where []string               `json:"where,omitempty"`
	State map[string]interface{} `json:"state,omitempty"`
}

// Empty reports whether no dimension is constrained.
func (g GateCondition) Empty() bool {
	return len(g.Who) == 0 && g.When == "" && len(g.Where) == 0 && len(g.State) == 0
}

// Normalize sorts and dedupes the set dimensions so that equality is
// order- and duplicate-insensitive regardless of how the gate was built.
func (g *GateCondition) Normalize() {
	g.Who = normalizeSet(g.Who)
	g.Where = normalizeSet(g.Where)
}

// Clone returns a deep copy of the gate.
func (g GateCondition) Clone() GateCondition {
	cp := GateCondition{When: g.When}
	if g.Who != nil {
		cp.Who = append([]string(nil), g.Who...)
	}
	if g.Where != nil {
		cp.Where = append([]string(nil), g.Where...)
	}
	if g.State != nil {
		cp.State = make(map[string]interface{}, len(g.State))
		for k, v := range g.State {
			cp.State[k] = v
		}
	}
	return cp
}

func normalizeSet(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// #endregion gate

// #region symbol
// Symbol is an immutable activation contract: a payload guarded by a gate,
// optional dependencies on other symbols, and a consumption mode.
type Symbol struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"symbol_type"`
	Gate        GateCondition          `json:"gate"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	DependsOn   []string               `json:"depends_on,omitempty"`
	Consumption Consumption            `json:"consumption,omitempty"`
}

// Normalize applies defaults and canonical ordering: an unset consumption
// mode becomes OneShot and the gate's sets are sorted and deduped.
func (s *Symbol) Normalize() {
	if s.Consumption == "" {
		s.Consumption = OneShot
	}
	s.Gate.Normalize()
}

// Clone returns a deep copy of the symbol (maps and slices are not shared).
func (s Symbol) Clone() Symbol {
	cp := s
	cp.Gate = s.Gate.Clone()
	if s.Payload != nil {
		cp.Payload = make(map[string]interface{}, len(s.Payload))
		for k, v := range s.Payload {
			cp.Payload[k] = v
		}
	}
	if s.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	if s.DependsOn != nil {
		cp.DependsOn = append([]string(nil), s.DependsOn...)
	}
	return cp
}

// #endregion symbol
