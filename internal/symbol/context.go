package symbol

import (
	"bytes"
	"encoding/json"
	"time"
)

// #region context
// Context is one immutable evaluation perspective: an actor (empty Who is
// the system/omniscient perspective), a timestamp, a location, and the
// world-state map. Updates never mutate a Context in place; they produce a
// new value, so audit records keep exact historical snapshots.
type Context struct {
	Who   string                 `json:"who,omitempty"`
	When  time.Time              `json:"when"`
	Where string                 `json:"where,omitempty"`
	State map[string]interface{} `json:"state,omitempty"`
}

// NewContext builds a context with its own copy of the state map.
func NewContext(who string, when time.Time, where string, state map[string]interface{}) Context {
	return Context{Who: who, When: when, Where: where, State: CloneState(state)}
}

// WithStateUpdate returns a new context with one state key set.
func (c Context) WithStateUpdate(key string, value interface{}) Context {
	next := CloneState(c.State)
	if next == nil {
		next = make(map[string]interface{}, 1)
	}
	next[key] = value
	return Context{Who: c.Who, When: c.When, Where: c.Where, State: next}
}

// Clone returns a copy of the context with its own state map.
func (c Context) Clone() Context {
	return Context{Who: c.Who, When: c.When, Where: c.Where, State: CloneState(c.State)}
}

// CloneState copies a state map one level deep. Values are treated as
// immutable by the engine: keys are replaced, never mutated through.
func CloneState(state map[string]interface{}) map[string]interface{} {
	if state == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(state))
	for k, v := range state {
		cp[k] = v
	}
	return cp
}

// #endregion context

// #region values
// Equal compares two state values through their canonical JSON encoding,
// so equality is exact and type-sensitive across construction paths:
// 1 and "1" differ, while 1 and 1.0 are the same number.
func Equal(a, b interface{}) bool {
	ab, err := json.Marshal(&a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(&b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// AsNumber converts a payload or state value to float64 when it
// carries a numeric type. JSON decoding yields float64; Go callers may
// supply plain ints.
func AsNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// Truthy reports whether a state value counts as true for symbolic
// temporal references: false, zero, empty string/collection and nil are
// all false.
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case []interface{}:
		return len(x) > 0
	case map[string]interface{}:
		return len(x) > 0
	default:
		return true
	}
}

// #endregion values
