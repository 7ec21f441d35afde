package symbol

import (
	"fmt"
	"strings"
	"time"
)

// #region temporal
// TemporalOp is the comparison direction of a "when" expression.
type TemporalOp string

const (
	OpAfter  TemporalOp = "after"
	OpBefore TemporalOp = "before"
)

// TemporalKind distinguishes absolute timestamp comparisons from
// symbolic references into context state.
type TemporalKind int

const (
	TemporalDateTime TemporalKind = iota
	TemporalStateRef
)

// timeLayouts are the accepted reference formats, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a timestamp in any of the accepted reference
// formats.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

// TemporalExpr is one parsed "when" gate: either an absolute comparison
// against a timestamp, or a symbolic reference to a context state key.
type TemporalExpr struct {
	Op        TemporalOp
	Kind      TemporalKind
	Reference time.Time // set when Kind == TemporalDateTime
	StateKey  string    // set when Kind == TemporalStateRef
	Raw       string
}

// ParseTemporal parses an expression of the form "<op>:<reference>".
// A reference starting with a digit is an absolute timestamp; anything
// else names a context state key.
func ParseTemporal(raw string) (TemporalExpr, error) {
	op, ref, ok := strings.Cut(raw, ":")
	if !ok {
		return TemporalExpr{}, fmt.Errorf("invalid temporal expression %q: missing ':'", raw)
	}
	tOp := TemporalOp(op)
	if tOp != OpAfter && tOp != OpBefore {
		return TemporalExpr{}, fmt.Errorf("invalid temporal operator %q (must be %q or %q)", op, OpAfter, OpBefore)
	}
	if ref == "" {
		return TemporalExpr{}, fmt.Errorf("invalid temporal expression %q: empty reference", raw)
	}
	if ref[0] >= '0' && ref[0] <= '9' {
		t, err := ParseTime(ref)
		if err != nil {
			return TemporalExpr{}, fmt.Errorf("invalid timestamp %q in temporal expression %q", ref, raw)
		}
		return TemporalExpr{Op: tOp, Kind: TemporalDateTime, Reference: t, Raw: raw}, nil
	}
	return TemporalExpr{Op: tOp, Kind: TemporalStateRef, StateKey: ref, Raw: raw}, nil
}

// Evaluate reports whether the condition holds for the context.
// Absolute comparisons are strict. Symbolic references gate on the
// state value being truthy, for either operator.
func (e TemporalExpr) Evaluate(ctx Context) bool {
	if e.Kind == TemporalStateRef {
		return Truthy(ctx.State[e.StateKey])
	}
	switch e.Op {
	case OpAfter:
		return ctx.When.After(e.Reference)
	case OpBefore:
		return ctx.When.Before(e.Reference)
	}
	return false
}

// HardDeadline returns the absolute "before" cutoff, if the expression
// has one. Symbolic befores never expire a symbol.
func (e TemporalExpr) HardDeadline() (time.Time, bool) {
	if e.Kind == TemporalDateTime && e.Op == OpBefore {
		return e.Reference, true
	}
	return time.Time{}, false
}

// NotYetOpen reports whether the expression is an absolute "after"
// whose moment has not yet arrived.
func (e TemporalExpr) NotYetOpen(at time.Time) bool {
	return e.Kind == TemporalDateTime && e.Op == OpAfter && !at.After(e.Reference)
}

// #endregion temporal
