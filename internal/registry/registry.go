// Package registry owns symbol definitions and their lifecycle state.
//
// Registration is atomic: a symbol that fails any validation (duplicate
// ID, malformed gate, bad payload, dependency cycle) leaves the
// registry exactly as it was. Dependencies may reference symbols that
// are not registered yet; Validate reports any still dangling once
// loading is done.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/latch/internal/graph"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region errors
var (
	ErrDuplicateSymbol = errors.New("symbol already registered")
	ErrUnknownSymbol   = errors.New("unknown symbol")
)

// #endregion errors

// #region reasons
// Ledger reason strings for the canonical lifecycle moves.
const (
	ReasonRegistered = "Registered"
	ReasonBinding    = "Binding success"
	ReasonDeadline   = "Deadline passed"
	ReasonConsumed   = "One-shot consumed"
	ReasonReusable   = "Reusable returned to dormant"
)

// #endregion reasons

// #region registry-struct
// Registry holds symbol definitions in registration order, their
// lifecycle states, the dependency graph, and the transition ledger.
type Registry struct {
	symbols map[string]symbol.Symbol
	order   []string
	states  map[string]State
	ledger  []StateTransition
	deps    *graph.Graph
	now     func() time.Time
}

// #endregion registry-struct

// #region constructor
// New returns an empty registry stamping ledger entries with the wall
// clock.
func New() *Registry {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty registry using the given clock for
// registration timestamps.
func NewWithClock(now func() time.Time) *Registry {
	return &Registry{
		symbols: make(map[string]symbol.Symbol),
		states:  make(map[string]State),
		deps:    graph.New(),
		now:     now,
	}
}

// #endregion constructor

// #region register
// Register validates and stores a symbol, moving it created → dormant.
// The symbol is cloned and normalized on the way in, so later caller
// mutations cannot reach registry state. Validation failures and
// dependency cycles leave the registry unchanged.
func (r *Registry) Register(sym symbol.Symbol) error {
	s := sym.Clone()
	s.Normalize()

	if s.ID == "" {
		return errors.New("symbol id is empty")
	}
	if _, ok := r.symbols[s.ID]; ok {
		return fmt.Errorf("symbol %q: %w", s.ID, ErrDuplicateSymbol)
	}
	if !s.Consumption.Valid() {
		return fmt.Errorf("symbol %q: invalid consumption mode %q", s.ID, s.Consumption)
	}
	if s.Gate.When != "" {
		if _, err := symbol.ParseTemporal(s.Gate.When); err != nil {
			return fmt.Errorf("symbol %q: %w", s.ID, err)
		}
	}
	if v, ok := s.Payload[symbol.WeightKey]; ok {
		if _, numeric := symbol.AsNumber(v); !numeric {
			return fmt.Errorf("symbol %q: payload weight must be numeric, got %T", s.ID, v)
		}
	}
	if v, ok := s.Payload[symbol.StateMutationKey]; ok {
		if _, isMap := v.(map[string]interface{}); !isMap {
			return fmt.Errorf("symbol %q: payload state_mutation must be a map, got %T", s.ID, v)
		}
	}
	if _, err := json.Marshal(s); err != nil {
		return fmt.Errorf("symbol %q: not serializable: %w", s.ID, err)
	}

	if err := r.deps.Add(s.ID, s.DependsOn); err != nil {
		return fmt.Errorf("symbol %q: %w", s.ID, err)
	}

	r.symbols[s.ID] = s
	r.order = append(r.order, s.ID)
	r.states[s.ID] = StateDormant
	r.ledger = append(r.ledger, StateTransition{
		SymbolID: s.ID,
		From:     StateCreated,
		To:       StateDormant,
		At:       r.now(),
		Reason:   ReasonRegistered,
	})
	return nil
}

// #endregion register

// #region validate
// Validate reports dependency references that never resolved to a
// registered symbol. Loaders call this after the last Register so that
// forward references within a batch stay legal.
func (r *Registry) Validate() error {
	unresolved := r.deps.Unresolved()
	if len(unresolved) == 0 {
		return nil
	}
	parts := make([]string, len(unresolved))
	for i, e := range unresolved {
		parts[i] = fmt.Sprintf("%s → %s", e.From, e.To)
	}
	return fmt.Errorf("unresolved dependencies: %s", strings.Join(parts, ", "))
}

// Unresolved returns the dangling dependency references, if any.
func (r *Registry) Unresolved() []graph.Edge {
	return r.deps.Unresolved()
}

// #endregion validate

// #region accessors
// Get returns a copy of a registered symbol.
func (r *Registry) Get(id string) (symbol.Symbol, bool) {
	s, ok := r.symbols[id]
	if !ok {
		return symbol.Symbol{}, false
	}
	return s.Clone(), true
}

// IDs returns all symbol IDs in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Symbols returns copies of all symbols in registration order.
func (r *Registry) Symbols() []symbol.Symbol {
	out := make([]symbol.Symbol, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.symbols[id].Clone())
	}
	return out
}

// Len returns the number of registered symbols.
func (r *Registry) Len() int {
	return len(r.order)
}

// StateOf returns the lifecycle state of a symbol.
func (r *Registry) StateOf(id string) (State, bool) {
	s, ok := r.states[id]
	return s, ok
}

// Dependencies returns the declared dependencies of a symbol.
func (r *Registry) Dependencies(id string) []string {
	return r.deps.Dependencies(id)
}

// Satisfied reports whether every dependency of id is in the activated
// set.
func (r *Registry) Satisfied(id string, activated map[string]bool) bool {
	return r.deps.Satisfied(id, activated)
}

// #endregion accessors

// #region ledger
// Ledger returns a copy of the full transition ledger in order.
func (r *Registry) Ledger() []StateTransition {
	return append([]StateTransition(nil), r.ledger...)
}

// LedgerFor returns the transitions of one symbol in order.
func (r *Registry) LedgerFor(id string) []StateTransition {
	var out []StateTransition
	for _, t := range r.ledger {
		if t.SymbolID == id {
			out = append(out, t)
		}
	}
	return out
}

// #endregion ledger

// #region transitions
// MarkActivated moves a symbol dormant → activated after a successful
// bind.
func (r *Registry) MarkActivated(id string, at time.Time) error {
	return r.shift(id, StateActivated, at, ReasonBinding)
}

// MarkArchived moves a one-shot symbol activated → archived.
func (r *Registry) MarkArchived(id string, at time.Time) error {
	return r.shift(id, StateArchived, at, ReasonConsumed)
}

// MarkDormant moves a reusable symbol activated → dormant so it may
// bind again.
func (r *Registry) MarkDormant(id string, at time.Time) error {
	return r.shift(id, StateDormant, at, ReasonReusable)
}

// MarkExpired moves a symbol dormant → expired once its absolute
// deadline has passed.
func (r *Registry) MarkExpired(id string, at time.Time) error {
	return r.shift(id, StateExpired, at, ReasonDeadline)
}

func (r *Registry) shift(id string, to State, at time.Time, reason string) error {
	from, ok := r.states[id]
	if !ok {
		return fmt.Errorf("symbol %q: %w", id, ErrUnknownSymbol)
	}
	if !ValidTransition(from, to) {
		return fmt.Errorf("symbol %q: invalid transition %s → %s", id, from, to)
	}
	r.states[id] = to
	r.ledger = append(r.ledger, StateTransition{
		SymbolID: id,
		From:     from,
		To:       to,
		At:       at,
		Reason:   reason,
	})
	return nil
}

// #endregion transitions
