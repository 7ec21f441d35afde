// Package sequence runs cascades across a series of actor
// perspectives, carrying state mutations from one perspective to the
// next. A context is always one actor's view: Who is the witness
// performing the evaluation (empty for the system view), and the
// state carries the facts that accumulate as the sequence advances.
package sequence

import (
	"time"

	"github.com/danielpatrickdp/latch/internal/engine"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region types
// Perspective is one actor's slot in a sequence. A zero When falls
// back to the run's initial timestamp.
type Perspective struct {
	Who   string
	Where string
	When  time.Time
}

// Step is one entry of an explicit timeline.
type Step struct {
	When  time.Time
	Who   string
	Where string
}

// Runner executes cascades perspective by perspective over one
// engine. Cascade settings apply to every perspective.
type Runner struct {
	eng     *engine.Engine
	Cascade engine.CascadeConfig
}

// NewRunner wires a runner over the engine with default cascade
// settings.
func NewRunner(e *engine.Engine) *Runner {
	return &Runner{eng: e, Cascade: engine.DefaultCascadeConfig()}
}

// #endregion types

// #region run
// Run executes one full cascade per perspective, in order. Each
// perspective sees the state left behind by the previous one; the
// returned state is the final accumulation. All activations come back
// in bind order across the whole sequence.
func (r *Runner) Run(perspectives []Perspective, initialState map[string]interface{}, initialWhen time.Time) ([]symbol.BoundSymbol, map[string]interface{}, error) {
	if initialWhen.IsZero() {
		initialWhen = time.Now()
	}
	current := symbol.CloneState(initialState)
	if current == nil {
		current = map[string]interface{}{}
	}

	var all []symbol.BoundSymbol
	for _, p := range perspectives {
		when := p.When
		if when.IsZero() {
			when = initialWhen
		}
		ctx := symbol.NewContext(p.Who, when, p.Where, current)

		res, err := r.eng.BindAllRegistered(ctx, r.Cascade)
		if err != nil {
			return all, current, err
		}
		all = append(all, res.Bound...)
		current = symbol.CloneState(res.FinalContext.State)
		if current == nil {
			current = map[string]interface{}{}
		}
	}
	return all, current, nil
}

// RunTimeline executes a sequence with explicit timestamps per step.
func (r *Runner) RunTimeline(steps []Step, initialState map[string]interface{}) ([]symbol.BoundSymbol, map[string]interface{}, error) {
	perspectives := make([]Perspective, len(steps))
	for i, s := range steps {
		perspectives[i] = Perspective{Who: s.Who, Where: s.Where, When: s.When}
	}
	var initialWhen time.Time
	if len(steps) > 0 {
		initialWhen = steps[0].When
	}
	return r.Run(perspectives, initialState, initialWhen)
}

// #endregion run
