// Package template provides reusable symbol blueprints: a template
// constrains a family of symbol types to a payload shape and a default
// gate, and a manager instantiates validated symbols from the
// registered templates.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region template
// ValidateFunc is an optional payload hook run after the required
// field check.
type ValidateFunc func(payload map[string]interface{}) error

// Template constrains one family of symbol types. TypePattern must
// contain a '*' wildcard; "CHARSTATE:*" matches any type with that
// prefix.
type Template struct {
	TypePattern     string                 // type pattern with '*' wildcard
	Required        []string               // payload fields that must be present
	Optional        []string               // payload fields that may be present
	GateHints       map[string]interface{} // advisory gate requirements, surfaced in Schema
	DefaultGate     *symbol.GateCondition  // fallback gate when the symbol carries none
	ValidatePayload ValidateFunc           // custom payload hook

	re *regexp.Regexp
}

// Validate checks the pattern and compiles the matcher.
func (t *Template) Validate() error {
	if t.TypePattern == "" {
		return errors.New("template: type pattern is required")
	}
	if !strings.Contains(t.TypePattern, "*") {
		return fmt.Errorf("template: type pattern %q must contain a '*' wildcard", t.TypePattern)
	}
	re, err := regexp.Compile("^" + strings.ReplaceAll(t.TypePattern, "*", ".*") + "$")
	if err != nil {
		return fmt.Errorf("template: bad type pattern %q: %w", t.TypePattern, err)
	}
	t.re = re
	return nil
}

// Matches reports whether a symbol type falls under this template.
func (t *Template) Matches(symbolType string) bool {
	if t.re == nil {
		if err := t.Validate(); err != nil {
			return false
		}
	}
	return t.re.MatchString(symbolType)
}

// Instantiate completes and validates a symbol against the template:
// the type must match the pattern, all required payload fields must be
// present, and a symbol without a gate receives the template default.
func (t *Template) Instantiate(sym symbol.Symbol) (symbol.Symbol, error) {
	if !t.Matches(sym.Type) {
		return symbol.Symbol{}, fmt.Errorf("symbol type %q does not match template pattern %q", sym.Type, t.TypePattern)
	}

	var missing []string
	for _, field := range t.Required {
		if _, ok := sym.Payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return symbol.Symbol{}, fmt.Errorf("missing required payload fields: %s", strings.Join(missing, ", "))
	}

	if sym.Gate.Empty() {
		if t.DefaultGate == nil {
			return symbol.Symbol{}, fmt.Errorf("no gate condition provided and template %q has no default", t.TypePattern)
		}
		sym.Gate = t.DefaultGate.Clone()
	}

	if t.ValidatePayload != nil {
		if err := t.ValidatePayload(sym.Payload); err != nil {
			return symbol.Symbol{}, fmt.Errorf("payload validation failed for %q: %w", sym.ID, err)
		}
	}

	sym.Normalize()
	return sym, nil
}

// Schema describes the template as plain data, for prompt builders
// and docs.
func (t *Template) Schema() map[string]interface{} {
	required := append([]string(nil), t.Required...)
	optional := append([]string(nil), t.Optional...)
	sort.Strings(required)
	sort.Strings(optional)
	hints := t.GateHints
	if hints == nil {
		hints = map[string]interface{}{}
	}
	return map[string]interface{}{
		"symbol_type_pattern":     t.TypePattern,
		"required_payload_fields": required,
		"optional_payload_fields": optional,
		"gate_requirements":       hints,
	}
}

// #endregion template

// #region manager
// Registrar receives auto-registered symbols. Both the registry and
// the engine satisfy it.
type Registrar interface {
	Register(symbol.Symbol) error
}

// Manager holds templates keyed by pattern and instantiates symbols
// from them.
type Manager struct {
	reg       Registrar
	templates map[string]*Template
	order     []string
}

// NewManager returns a manager; reg may be nil to skip
// auto-registration.
func NewManager(reg Registrar) *Manager {
	return &Manager{
		reg:       reg,
		templates: make(map[string]*Template),
	}
}

// Register validates and stores a template. Registering the same
// pattern again replaces the earlier template.
func (m *Manager) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := m.templates[t.TypePattern]; !ok {
		m.order = append(m.order, t.TypePattern)
	}
	m.templates[t.TypePattern] = t
	return nil
}

// Get returns the template registered under the exact pattern.
func (m *Manager) Get(pattern string) (*Template, bool) {
	t, ok := m.templates[pattern]
	return t, ok
}

// Find returns the first registered template whose pattern matches
// the symbol type, in registration order.
func (m *Manager) Find(symbolType string) *Template {
	for _, pattern := range m.order {
		if t := m.templates[pattern]; t.Matches(symbolType) {
			return t
		}
	}
	return nil
}

// Patterns lists registered patterns in registration order.
func (m *Manager) Patterns() []string {
	return append([]string(nil), m.order...)
}

// Instantiate builds a symbol from the template registered under
// pattern, falling back to pattern-matching the symbol type when no
// exact entry exists. With autoRegister the finished symbol is also
// registered with the manager's registrar.
func (m *Manager) Instantiate(pattern string, sym symbol.Symbol, autoRegister bool) (symbol.Symbol, error) {
	t, ok := m.templates[pattern]
	if !ok {
		t = m.Find(sym.Type)
	}
	if t == nil {
		return symbol.Symbol{}, fmt.Errorf("template not found for pattern %q or symbol type %q (available: %v)", pattern, sym.Type, m.Patterns())
	}

	out, err := t.Instantiate(sym)
	if err != nil {
		return symbol.Symbol{}, err
	}
	if autoRegister && m.reg != nil {
		if err := m.reg.Register(out); err != nil {
			return symbol.Symbol{}, err
		}
	}
	return out, nil
}

// #endregion manager
