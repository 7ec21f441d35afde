package symbol

import "time"

// #region consumption
// Consumption controls whether a symbol may bind once or repeatedly.
type Consumption string

const (
	OneShot  Consumption = "one_shot"
	Reusable Consumption = "reusable"
)

// Valid reports whether c is a known consumption mode.
func (c Consumption) Valid() bool {
	return c == OneShot || c == Reusable
}

// #endregion consumption

// #region failure-category
// FailureCategory identifies which dimension of a binding attempt failed.
type FailureCategory string

const (
	FailureWho        FailureCategory = "who"
	FailureWhere      FailureCategory = "where"
	FailureWhen       FailureCategory = "when"
	FailureState      FailureCategory = "state"
	FailureDependency FailureCategory = "dependency"
	FailureExpired    FailureCategory = "expired"
	FailureConsumed   FailureCategory = "consumed"
)

// #endregion failure-category

// #region failure-reason
// FailureReason explains one failing dimension of a binding attempt.
type FailureReason struct {
	Category FailureCategory `json:"category"`
	Expected interface{}     `json:"expected"`
	Actual   interface{}     `json:"actual"`
	Message  string          `json:"message"`
}

// #endregion failure-reason

// #region state-change
// StateChange records one applied state mutation (old value → new value).
type StateChange struct {
	Key string      `json:"key"`
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// #endregion state-change

// #region bound-symbol
// BoundSymbol is the immutable record of one successful activation.
// Each activation is a distinct event: a reusable symbol that binds in
// several rounds produces several BoundSymbols with distinct EventIDs.
type BoundSymbol struct {
	EventID      string                 `json:"event_id"`
	SymbolID     string                 `json:"symbol_id"`
	SymbolType   string                 `json:"symbol_type"`
	Effect       map[string]interface{} `json:"effect"`
	Weight       float64                `json:"weight"`
	BoundAt      time.Time              `json:"bound_at"`
	Context      Context                `json:"context"`
	StateChanges []StateChange          `json:"state_changes,omitempty"`
}

// #endregion bound-symbol

// #region binding-attempt
// BindingAttempt is one append-only audit record: every explicit bind and
// every cascade activation produces exactly one.
type BindingAttempt struct {
	ID             string          `json:"id"`
	SymbolID       string          `json:"symbol_id"`
	AttemptedAt    time.Time       `json:"attempted_at"`
	Context        Context         `json:"context"`
	Success        bool            `json:"success"`
	BoundEventID   string          `json:"bound_event_id,omitempty"`
	FailureReasons []FailureReason `json:"failure_reasons,omitempty"`
	StateChanges   []StateChange   `json:"state_changes,omitempty"`
}

// #endregion binding-attempt
