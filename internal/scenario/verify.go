package scenario

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region verify-types
// Check captures a single verification result.
type Check struct {
	Name   string
	Pass   bool
	Detail string
}

// Report is the outcome of verifying a run against an expectation.
type Report struct {
	Passed bool
	Checks []Check
	Reason string
}

// #endregion verify-types

// #region verify
// Verify compares a run's outcome against the expectation: exact
// bound order, declared final-state keys, and round count when the
// expectation pins one.
func Verify(expect *Expectation, bound []symbol.BoundSymbol, finalState map[string]interface{}, rounds int) Report {
	if expect == nil {
		return Report{Passed: true, Reason: "no expectations declared"}
	}

	var checks []Check
	passed := true
	var failReasons []string

	boundIDs := make([]string, len(bound))
	for i, b := range bound {
		boundIDs[i] = b.SymbolID
	}
	orderPass := len(boundIDs) == len(expect.Bound)
	if orderPass {
		for i := range boundIDs {
			if boundIDs[i] != expect.Bound[i] {
				orderPass = false
				break
			}
		}
	}
	checks = append(checks, Check{
		Name:   "bound_order",
		Pass:   orderPass,
		Detail: fmt.Sprintf("bound %v, want %v", boundIDs, expect.Bound),
	})
	if !orderPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("bound %v, want %v", boundIDs, expect.Bound))
	}

	keys := make([]string, 0, len(expect.FinalState))
	for k := range expect.FinalState {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want := expect.FinalState[k]
		got := finalState[k]
		statePass := symbol.Equal(got, want)
		checks = append(checks, Check{
			Name:   fmt.Sprintf("state_%s", k),
			Pass:   statePass,
			Detail: fmt.Sprintf("state[%q] = %v, want %v", k, got, want),
		})
		if !statePass {
			passed = false
			failReasons = append(failReasons, fmt.Sprintf("state[%q] = %v, want %v", k, got, want))
		}
	}

	if expect.Rounds > 0 {
		roundsPass := rounds == expect.Rounds
		checks = append(checks, Check{
			Name:   "rounds",
			Pass:   roundsPass,
			Detail: fmt.Sprintf("%d rounds, want %d", rounds, expect.Rounds),
		})
		if !roundsPass {
			passed = false
			failReasons = append(failReasons, fmt.Sprintf("%d rounds, want %d", rounds, expect.Rounds))
		}
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("verification failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("verification failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return Report{Passed: passed, Checks: checks, Reason: reason}
}

// #endregion verify
