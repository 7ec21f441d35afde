package registry

import (
	"fmt"
	"time"
)

// #region states
// State is the lifecycle position of a registered symbol.
type State string

const (
	StateCreated   State = "created"
	StateDormant   State = "dormant"
	StateActivated State = "activated"
	StateArchived  State = "archived"
	StateExpired   State = "expired"
)

// #endregion states

// #region machine
// transitions maps each state to the states reachable from it.
// One-shot symbols: created → dormant → activated → archived.
// Reusable symbols return from activated to dormant.
// Symbols whose absolute deadline passes go dormant → expired.
var transitions = map[State][]State{
	StateCreated:   {StateDormant},
	StateDormant:   {StateActivated, StateExpired},
	StateActivated: {StateArchived, StateDormant},
}

// ValidTransition reports whether to is reachable from from.
func ValidTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// #endregion machine

// #region transition-record
// StateTransition records one lifecycle move on the registry ledger.
type StateTransition struct {
	SymbolID string    `json:"symbol_id"`
	From     State     `json:"from_state"`
	To       State     `json:"to_state"`
	At       time.Time `json:"timestamp"`
	Reason   string    `json:"reason"`
}

func (t StateTransition) String() string {
	return fmt.Sprintf("%s: %s → %s (%s)", t.SymbolID, t.From, t.To, t.Reason)
}

// #endregion transition-record
