// Package gate evaluates symbol activation predicates against contexts.
//
// Every check reports a structured FailureReason instead of an error:
// a failed gate is domain data, not a fault.
package gate

import (
	"fmt"
	"sort"
	"time"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region evaluate
// Evaluate runs every dimension check against the context and collects
// one FailureReason per failing dimension, cheap checks first and
// temporal last. An empty result means the symbol may bind. The
// activated set is consulted for dependency satisfaction only.
func Evaluate(sym symbol.Symbol, ctx symbol.Context, activated map[string]bool) []symbol.FailureReason {
	var reasons []symbol.FailureReason
	if r := checkDependencies(sym, activated); r != nil {
		reasons = append(reasons, *r)
	}
	if r := checkExpiration(sym, ctx); r != nil {
		reasons = append(reasons, *r)
	}
	if r := checkWho(sym, ctx); r != nil {
		reasons = append(reasons, *r)
	}
	if r := checkWhere(sym, ctx); r != nil {
		reasons = append(reasons, *r)
	}
	if r := checkState(sym, ctx); r != nil {
		reasons = append(reasons, *r)
	}
	if r := checkWhen(sym, ctx); r != nil {
		reasons = append(reasons, *r)
	}
	return reasons
}

// Eligible reports whether the four gate dimensions (who, where, state,
// when) pass for the context. Dependencies and lifecycle are not
// consulted.
func Eligible(sym symbol.Symbol, ctx symbol.Context) bool {
	return checkWho(sym, ctx) == nil &&
		checkWhere(sym, ctx) == nil &&
		checkState(sym, ctx) == nil &&
		checkWhen(sym, ctx) == nil
}

// #endregion evaluate

// #region dependency-check
// checkDependencies reports the first dependency, in declared order,
// that has not yet activated.
func checkDependencies(sym symbol.Symbol, activated map[string]bool) *symbol.FailureReason {
	for _, dep := range sym.DependsOn {
		if !activated[dep] {
			return &symbol.FailureReason{
				Category: symbol.FailureDependency,
				Expected: dep,
				Actual:   "not activated",
				Message:  fmt.Sprintf("dependency %q not yet activated", dep),
			}
		}
	}
	return nil
}

// #endregion dependency-check

// #region expiration-check
// checkExpiration reports a permanent expiry when the gate carries an
// absolute "before" deadline that the context time has reached.
// Symbolic befores never expire. A malformed expression is left to the
// when check to report.
func checkExpiration(sym symbol.Symbol, ctx symbol.Context) *symbol.FailureReason {
	if sym.Gate.When == "" {
		return nil
	}
	expr, err := symbol.ParseTemporal(sym.Gate.When)
	if err != nil {
		return nil
	}
	deadline, ok := expr.HardDeadline()
	if !ok || ctx.When.Before(deadline) {
		return nil
	}
	ref := deadline.Format(time.RFC3339)
	return &symbol.FailureReason{
		Category: symbol.FailureExpired,
		Expected: "before " + ref,
		Actual:   ctx.When.Format(time.RFC3339),
		Message:  fmt.Sprintf("symbol expired: deadline %q has passed", ref),
	}
}

// #endregion expiration-check

// #region who-check
func checkWho(sym symbol.Symbol, ctx symbol.Context) *symbol.FailureReason {
	if len(sym.Gate.Who) == 0 {
		return nil
	}
	for _, who := range sym.Gate.Who {
		if who == ctx.Who {
			return nil
		}
	}
	expected := append([]string(nil), sym.Gate.Who...)
	sort.Strings(expected)
	return &symbol.FailureReason{
		Category: symbol.FailureWho,
		Expected: expected,
		Actual:   ctx.Who,
		Message:  fmt.Sprintf("who: %q not in %v", ctx.Who, expected),
	}
}

// #endregion who-check

// #region where-check
func checkWhere(sym symbol.Symbol, ctx symbol.Context) *symbol.FailureReason {
	if len(sym.Gate.Where) == 0 {
		return nil
	}
	for _, where := range sym.Gate.Where {
		if where == ctx.Where {
			return nil
		}
	}
	expected := append([]string(nil), sym.Gate.Where...)
	sort.Strings(expected)
	return &symbol.FailureReason{
		Category: symbol.FailureWhere,
		Expected: expected,
		Actual:   ctx.Where,
		Message:  fmt.Sprintf("where: %q not in %v", ctx.Where, expected),
	}
}

// #endregion where-check

// #region state-check
// checkState reports the first required key, in sorted order, whose
// context value does not exactly match the gate's expectation. A
// missing key never matches.
func checkState(sym symbol.Symbol, ctx symbol.Context) *symbol.FailureReason {
	if len(sym.Gate.State) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sym.Gate.State))
	for k := range sym.Gate.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		expected := sym.Gate.State[k]
		actual := ctx.State[k]
		if !symbol.Equal(actual, expected) {
			return &symbol.FailureReason{
				Category: symbol.FailureState,
				Expected: map[string]interface{}{k: expected},
				Actual:   map[string]interface{}{k: actual},
				Message:  fmt.Sprintf("state[%q]: expected %v, got %v", k, expected, actual),
			}
		}
	}
	return nil
}

// #endregion state-check

// #region when-check
func checkWhen(sym symbol.Symbol, ctx symbol.Context) *symbol.FailureReason {
	if sym.Gate.When == "" {
		return nil
	}
	at := ctx.When.Format(time.RFC3339)
	expr, err := symbol.ParseTemporal(sym.Gate.When)
	if err != nil {
		return &symbol.FailureReason{
			Category: symbol.FailureWhen,
			Expected: sym.Gate.When,
			Actual:   at,
			Message:  fmt.Sprintf("when: temporal expression %q invalid: %v", sym.Gate.When, err),
		}
	}
	if expr.Evaluate(ctx) {
		return nil
	}
	return &symbol.FailureReason{
		Category: symbol.FailureWhen,
		Expected: sym.Gate.When,
		Actual:   at,
		Message:  fmt.Sprintf("when: temporal condition %q not satisfied at %s", sym.Gate.When, at),
	}
}

// #endregion when-check
