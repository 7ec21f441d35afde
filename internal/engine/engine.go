// Package engine binds latent symbols against contexts: explicit
// single binds, selected-batch binds, and multi-round cascades with
// state-mutation propagation.
//
// All public methods serialize through one mutex, so a multi-threaded
// front end sees a single exclusive-access path; the registry lifecycle
// and the audit trail are both order-sensitive.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/latch/internal/audit"
	"github.com/danielpatrickdp/latch/internal/gate"
	"github.com/danielpatrickdp/latch/internal/registry"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region config
// Hook is called after a symbol activates, with the symbol, the
// context it bound against, and the resulting activation event.
type Hook func(sym symbol.Symbol, ctx symbol.Context, bound symbol.BoundSymbol)

// WeightFunc computes the weight of an activation.
type WeightFunc func(sym symbol.Symbol, ctx symbol.Context) float64

// Config carries the optional engine collaborators.
type Config struct {
	Sink        audit.Sink       // audit mirror, nil keeps the trail in memory only
	OnActivated Hook             // activation callback
	Weight      WeightFunc       // weight override, default reads payload "weight"
	Now         func() time.Time // clock, default time.Now
}

// #endregion config

// #region engine-struct
// Engine owns the binding loop over one registry: gate evaluation,
// lifecycle transitions, the cumulative activated set, and the audit
// trail.
type Engine struct {
	mu        sync.Mutex
	reg       *registry.Registry
	trail     *audit.Recorder
	weight    WeightFunc
	hook      Hook
	now       func() time.Time
	activated map[string]bool
}

// New wires an engine over the given registry.
func New(reg *registry.Registry, cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Weight == nil {
		cfg.Weight = defaultWeight
	}
	return &Engine{
		reg:       reg,
		trail:     audit.NewRecorder(cfg.Sink),
		weight:    cfg.Weight,
		hook:      cfg.OnActivated,
		now:       cfg.Now,
		activated: make(map[string]bool),
	}
}

// Register adds a symbol to the underlying registry.
func (e *Engine) Register(sym symbol.Symbol) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.Register(sym)
}

// Registry returns the underlying registry.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Audit returns the audit trail recorder.
func (e *Engine) Audit() *audit.Recorder {
	return e.trail
}

// #endregion engine-struct

// #region bind
// Bind attempts to bind one symbol right now. It always appends
// exactly one BindingAttempt to the audit trail, success or failure.
// A nil result with a nil error means the gate or lifecycle refused
// the bind; the trail has the reasons.
func (e *Engine) Bind(id string, ctx symbol.Context) (*symbol.BoundSymbol, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bind(id, ctx)
}

// BindSelected binds the given symbols in order against a fixed
// context. No cascade: state mutations are not applied between binds,
// but earlier activations do satisfy later dependencies.
func (e *Engine) BindSelected(ids []string, ctx symbol.Context) ([]symbol.BoundSymbol, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []symbol.BoundSymbol
	for _, id := range ids {
		bound, err := e.bind(id, ctx)
		if err != nil {
			return out, err
		}
		if bound != nil {
			out = append(out, *bound)
		}
	}
	return out, nil
}

func (e *Engine) bind(id string, ctx symbol.Context) (*symbol.BoundSymbol, error) {
	sym, ok := e.reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("symbol %q: %w", id, registry.ErrUnknownSymbol)
	}
	bound, attempt, err := e.tryBind(sym, ctx, e.activated)
	if err != nil {
		return nil, err
	}
	if err := e.trail.Record(*attempt); err != nil {
		return bound, err
	}
	return bound, nil
}

// tryBind runs the full evaluation and lifecycle transition. The
// returned attempt is not yet recorded: explicit binds record it
// immediately, cascades defer recording until round-boundary state
// mutations are attached. The activated map is the dependency view;
// cascades pass their round-start snapshot.
func (e *Engine) tryBind(sym symbol.Symbol, ctx symbol.Context, activated map[string]bool) (*symbol.BoundSymbol, *symbol.BindingAttempt, error) {
	now := e.now()
	attempt := symbol.BindingAttempt{
		ID:          uuid.New().String(),
		SymbolID:    sym.ID,
		AttemptedAt: now,
		Context:     ctx.Clone(),
	}

	// Re-binding an archived one-shot is a lifecycle violation, not a
	// gate mismatch.
	if st, _ := e.reg.StateOf(sym.ID); st == registry.StateArchived {
		attempt.FailureReasons = []symbol.FailureReason{{
			Category: symbol.FailureConsumed,
			Expected: string(registry.StateDormant),
			Actual:   string(registry.StateArchived),
			Message:  fmt.Sprintf("symbol %q already consumed (one-shot archived)", sym.ID),
		}}
		return nil, &attempt, nil
	}

	if reasons := gate.Evaluate(sym, ctx, activated); len(reasons) > 0 {
		attempt.FailureReasons = reasons
		for _, r := range reasons {
			if r.Category != symbol.FailureExpired {
				continue
			}
			if st, _ := e.reg.StateOf(sym.ID); st == registry.StateDormant {
				if err := e.reg.MarkExpired(sym.ID, now); err != nil {
					return nil, nil, err
				}
			}
			break
		}
		return nil, &attempt, nil
	}

	bound := symbol.BoundSymbol{
		EventID:    uuid.New().String(),
		SymbolID:   sym.ID,
		SymbolType: sym.Type,
		Effect:     sym.Payload,
		Weight:     e.weight(sym, ctx),
		BoundAt:    now,
		Context:    ctx.Clone(),
	}

	e.activated[sym.ID] = true
	if err := e.reg.MarkActivated(sym.ID, now); err != nil {
		return nil, nil, err
	}
	switch sym.Consumption {
	case symbol.Reusable:
		if err := e.reg.MarkDormant(sym.ID, now); err != nil {
			return nil, nil, err
		}
	default:
		if err := e.reg.MarkArchived(sym.ID, now); err != nil {
			return nil, nil, err
		}
	}

	attempt.Success = true
	attempt.BoundEventID = bound.EventID

	if e.hook != nil {
		e.hook(sym, ctx, bound)
	}
	return &bound, &attempt, nil
}

// #endregion bind

// #region weight
func defaultWeight(sym symbol.Symbol, ctx symbol.Context) float64 {
	if v, ok := sym.Payload[symbol.WeightKey]; ok {
		if f, numeric := symbol.AsNumber(v); numeric {
			return f
		}
	}
	return 1.0
}

// #endregion weight

// #region accessors
// ActivatedIDs returns the cumulative set of symbols that have bound
// at least once, in registration order.
func (e *Engine) ActivatedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	for _, id := range e.reg.IDs() {
		if e.activated[id] {
			out = append(out, id)
		}
	}
	return out
}

// #endregion accessors

// #region flush-close
// Flush forces buffered audit writes out to the sink.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trail.Flush()
}

// Close flushes and closes the audit sink. Sink failures surface here
// rather than being dropped.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trail.Close()
}

// #endregion flush-close
