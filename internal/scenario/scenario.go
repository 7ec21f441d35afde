// Package scenario loads hand-authored symbol sets with an initial
// context and optional expected outcome from YAML or JSON files, and
// builds a ready-to-run registry from them.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/latch/internal/engine"
	"github.com/danielpatrickdp/latch/internal/registry"
	"github.com/danielpatrickdp/latch/internal/sequence"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region file-types

// File is the top-level structure of a scenario file.
type File struct {
	Name           string       `json:"name" yaml:"name"`
	Description    string       `json:"description" yaml:"description"`
	MaxRounds      int          `json:"max_rounds" yaml:"max_rounds"`
	ApplyMutations *bool        `json:"apply_mutations" yaml:"apply_mutations"`
	Symbols        []SymbolDef  `json:"symbols" yaml:"symbols"`
	Context        ContextDef   `json:"context" yaml:"context"`
	Steps          []StepDef    `json:"steps" yaml:"steps"`
	Expect         *Expectation `json:"expect" yaml:"expect"`
}

// GateDef mirrors symbol.GateCondition with file tags.
type GateDef struct {
	Who   []string               `json:"who" yaml:"who"`
	When  string                 `json:"when" yaml:"when"`
	Where []string               `json:"where" yaml:"where"`
	State map[string]interface{} `json:"state" yaml:"state"`
}

// SymbolDef mirrors symbol.Symbol with file tags.
type SymbolDef struct {
	ID          string                 `json:"id" yaml:"id"`
	Type        string                 `json:"symbol_type" yaml:"symbol_type"`
	Gate        GateDef                `json:"gate" yaml:"gate"`
	Payload     map[string]interface{} `json:"payload" yaml:"payload"`
	Metadata    map[string]interface{} `json:"metadata" yaml:"metadata"`
	DependsOn   []string               `json:"depends_on" yaml:"depends_on"`
	Consumption string                 `json:"consumption" yaml:"consumption"`
}

// ContextDef is the initial evaluation context. An empty When uses
// the build clock.
type ContextDef struct {
	Who   string                 `json:"who" yaml:"who"`
	When  string                 `json:"when" yaml:"when"`
	Where string                 `json:"where" yaml:"where"`
	State map[string]interface{} `json:"state" yaml:"state"`
}

// StepDef is one perspective of a multi-actor sequence. An empty When
// inherits the initial context's timestamp.
type StepDef struct {
	Who   string `json:"who" yaml:"who"`
	Where string `json:"where" yaml:"where"`
	When  string `json:"when" yaml:"when"`
}

// Expectation is the declared outcome: exact bound order, final state
// keys, and round count (zero leaves rounds unchecked).
type Expectation struct {
	Bound      []string               `json:"bound" yaml:"bound"`
	FinalState map[string]interface{} `json:"final_state" yaml:"final_state"`
	Rounds     int                    `json:"rounds" yaml:"rounds"`
}

// #endregion file-types

// #region loader

// Load reads and parses a scenario file; the extension picks the
// format.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var f File
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse scenario %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse scenario %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q (use .yaml, .yml or .json)", ext)
	}
	return &f, nil
}

// #endregion loader

// #region converters

// ToGate converts a GateDef to a domain gate condition.
func (g GateDef) ToGate() symbol.GateCondition {
	return symbol.GateCondition{
		Who:   g.Who,
		When:  g.When,
		Where: g.Where,
		State: g.State,
	}
}

// ToSymbol converts a SymbolDef to a domain symbol.
func (d SymbolDef) ToSymbol() symbol.Symbol {
	return symbol.Symbol{
		ID:          d.ID,
		Type:        d.Type,
		Gate:        d.Gate.ToGate(),
		Payload:     d.Payload,
		Metadata:    d.Metadata,
		DependsOn:   d.DependsOn,
		Consumption: symbol.Consumption(d.Consumption),
	}
}

// ToContext converts a ContextDef, substituting fallback for a
// missing timestamp.
func (c ContextDef) ToContext(fallback time.Time) (symbol.Context, error) {
	when := fallback
	if c.When != "" {
		parsed, err := symbol.ParseTime(c.When)
		if err != nil {
			return symbol.Context{}, fmt.Errorf("context when: %w", err)
		}
		when = parsed
	}
	return symbol.NewContext(c.Who, when, c.Where, c.State), nil
}

// ToSteps converts the step list, substituting fallback for missing
// timestamps.
func (f *File) ToSteps(fallback time.Time) ([]sequence.Step, error) {
	steps := make([]sequence.Step, len(f.Steps))
	for i, s := range f.Steps {
		when := fallback
		if s.When != "" {
			parsed, err := symbol.ParseTime(s.When)
			if err != nil {
				return nil, fmt.Errorf("step %d when: %w", i, err)
			}
			when = parsed
		}
		steps[i] = sequence.Step{Who: s.Who, Where: s.Where, When: when}
	}
	return steps, nil
}

// #endregion converters

// #region build

// Build registers every symbol into a fresh registry, validates the
// dependency graph eagerly, and returns the initial context and
// cascade settings. now is the registry clock and the fallback
// context timestamp.
func (f *File) Build(now func() time.Time) (*registry.Registry, symbol.Context, engine.CascadeConfig, error) {
	if now == nil {
		now = time.Now
	}
	cfg := engine.DefaultCascadeConfig()
	if f.MaxRounds > 0 {
		cfg.MaxRounds = f.MaxRounds
	}
	if f.ApplyMutations != nil {
		cfg.ApplyMutations = *f.ApplyMutations
	}

	reg := registry.NewWithClock(now)
	for _, def := range f.Symbols {
		if err := reg.Register(def.ToSymbol()); err != nil {
			return nil, symbol.Context{}, cfg, fmt.Errorf("register symbol %q: %w", def.ID, err)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, symbol.Context{}, cfg, err
	}

	ctx, err := f.Context.ToContext(now())
	if err != nil {
		return nil, symbol.Context{}, cfg, err
	}
	return reg, ctx, cfg, nil
}

// #endregion build
