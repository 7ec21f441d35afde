package engine

import (
	"sort"

	"github.com/danielpatrickdp/latch/internal/gate"
	"github.com/danielpatrickdp/latch/internal/registry"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region cascade-config
// CascadeConfig bounds one cascading bind.
type CascadeConfig struct {
	MaxRounds      int  // round limit, default 10
	ApplyMutations bool // apply payload state_mutation maps between rounds
}

// DefaultCascadeConfig runs up to ten rounds with mutations applied.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{MaxRounds: 10, ApplyMutations: true}
}

// CascadeResult is the outcome of one multi-round cascading bind.
type CascadeResult struct {
	Bound        []symbol.BoundSymbol // activation events in bind order
	FinalContext symbol.Context       // context after all applied mutations
	Rounds       int                  // productive rounds executed
	RoundSizes   []int                // eligible-batch size per productive round
}

// #endregion cascade-config

// #region cascade
// BindAllRegistered runs the multi-round cascade: each round computes
// the eligible set against the round-start context and the round-start
// activated set, binds the whole batch, then applies the batch's state
// mutations at the round boundary (bind order, last write wins). The
// cascade stops when a round has no eligible symbol or the round limit
// is reached.
//
// Symbols failing their pre-checks stay dormant with no audit entry;
// latency is not failure. Every symbol that does bind gets exactly one
// successful BindingAttempt carrying the state changes it applied.
func (e *Engine) BindAllRegistered(ctx symbol.Context, cfg CascadeConfig) (CascadeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bindAllRegistered(ctx, cfg)
}

func (e *Engine) bindAllRegistered(ctx symbol.Context, cfg CascadeConfig) (CascadeResult, error) {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultCascadeConfig().MaxRounds
	}

	current := ctx.Clone()
	res := CascadeResult{FinalContext: current}

	for round := 0; round < cfg.MaxRounds; round++ {
		view := make(map[string]bool, len(e.activated))
		for id := range e.activated {
			view[id] = true
		}

		var eligible []symbol.Symbol
		for _, id := range e.reg.IDs() {
			if st, _ := e.reg.StateOf(id); st != registry.StateDormant {
				continue
			}
			if !e.reg.Satisfied(id, view) {
				continue
			}
			sym, _ := e.reg.Get(id)
			if !gate.Eligible(sym, current) {
				continue
			}
			eligible = append(eligible, sym)
		}
		if len(eligible) == 0 {
			break
		}

		type pending struct {
			bound   *symbol.BoundSymbol
			attempt *symbol.BindingAttempt
		}
		binds := make([]pending, 0, len(eligible))
		for _, sym := range eligible {
			bound, attempt, err := e.tryBind(sym, current, view)
			if err != nil {
				return res, err
			}
			if bound == nil {
				continue
			}
			binds = append(binds, pending{bound, attempt})
		}

		if cfg.ApplyMutations {
			for _, p := range binds {
				mut, ok := p.bound.Effect[symbol.StateMutationKey].(map[string]interface{})
				if !ok || len(mut) == 0 {
					continue
				}
				keys := make([]string, 0, len(mut))
				for k := range mut {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				changes := make([]symbol.StateChange, 0, len(keys))
				for _, k := range keys {
					changes = append(changes, symbol.StateChange{Key: k, Old: current.State[k], New: mut[k]})
					current = current.WithStateUpdate(k, mut[k])
				}
				p.bound.StateChanges = changes
				p.attempt.StateChanges = changes
			}
		}

		// Attempts are recorded once state changes are final, so the
		// sink sees each attempt exactly once.
		for _, p := range binds {
			if err := e.trail.Record(*p.attempt); err != nil {
				return res, err
			}
			res.Bound = append(res.Bound, *p.bound)
		}
		res.Rounds++
		res.RoundSizes = append(res.RoundSizes, len(binds))
	}

	res.FinalContext = current
	return res, nil
}

// #endregion cascade

// #region converge
// RoundFunc lets a caller evolve the context between full cascades.
// It receives the post-cascade context and the zero-based cascade
// number, and returns the context for the next cascade.
type RoundFunc func(ctx symbol.Context, round int) symbol.Context

// BindUntilConverged runs full cascades until one activates no new
// symbol, or the limit is reached. Returns the final context and the
// number of cascades run.
func (e *Engine) BindUntilConverged(ctx symbol.Context, maxRounds int, onRound RoundFunc) (symbol.Context, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if maxRounds <= 0 {
		maxRounds = DefaultCascadeConfig().MaxRounds
	}
	current := ctx.Clone()
	runs := 0
	for round := 0; round < maxRounds; round++ {
		runs++
		before := len(e.activated)
		res, err := e.bindAllRegistered(current, DefaultCascadeConfig())
		if err != nil {
			return current, runs, err
		}
		current = res.FinalContext
		if len(e.activated) == before {
			break
		}
		if onRound != nil {
			current = onRound(current, round)
		}
	}
	return current, runs, nil
}

// #endregion converge
