// Package audit keeps the append-only trail of binding attempts and
// answers the questions the trail exists for: what happened to a
// symbol, why did it not activate, and where are the systemic
// bottlenecks.
package audit

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region sink
// Sink receives every attempt as it is recorded. Implementations may
// buffer; Flush forces buffered attempts out and Close flushes before
// releasing resources.
type Sink interface {
	Write(attempt symbol.BindingAttempt) error
	Flush() error
	Close() error
}

// #endregion sink

// #region recorder
// Recorder is the in-memory audit trail, optionally mirrored to a
// sink. The trail is append-only: recorded attempts are never mutated
// or rewritten.
type Recorder struct {
	trail  []symbol.BindingAttempt
	sink   Sink
	closed bool
}

// NewRecorder returns an empty recorder. A nil sink keeps the trail
// in memory only.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record appends an attempt to the trail and forwards it to the sink.
func (r *Recorder) Record(attempt symbol.BindingAttempt) error {
	r.trail = append(r.trail, attempt)
	if r.sink != nil {
		if err := r.sink.Write(attempt); err != nil {
			return fmt.Errorf("audit sink write: %w", err)
		}
	}
	return nil
}

// Len returns the number of recorded attempts.
func (r *Recorder) Len() int {
	return len(r.trail)
}

// #endregion recorder

// #region queries
// Trail returns a copy of the full ordered trail.
func (r *Recorder) Trail() []symbol.BindingAttempt {
	return append([]symbol.BindingAttempt(nil), r.trail...)
}

// Attempts returns every attempt for one symbol, in order.
func (r *Recorder) Attempts(symbolID string) []symbol.BindingAttempt {
	var out []symbol.BindingAttempt
	for _, a := range r.trail {
		if a.SymbolID == symbolID {
			out = append(out, a)
		}
	}
	return out
}

// Failed returns every failed attempt for one symbol, in order.
func (r *Recorder) Failed(symbolID string) []symbol.BindingAttempt {
	var out []symbol.BindingAttempt
	for _, a := range r.trail {
		if a.SymbolID == symbolID && !a.Success {
			out = append(out, a)
		}
	}
	return out
}

// Stats aggregates failure counts by category across the whole trail.
func (r *Recorder) Stats() map[symbol.FailureCategory]int {
	stats := make(map[symbol.FailureCategory]int)
	for _, a := range r.trail {
		if a.Success {
			continue
		}
		for _, reason := range a.FailureReasons {
			stats[reason.Category]++
		}
	}
	return stats
}

// #endregion queries

// #region explain
// Explain renders a human-readable account of the most recent attempt
// for a symbol, listing every failing dimension when it failed.
func (r *Recorder) Explain(symbolID string) string {
	attempts := r.Attempts(symbolID)
	if len(attempts) == 0 {
		return fmt.Sprintf("Symbol %q was never attempted for binding", symbolID)
	}
	latest := attempts[len(attempts)-1]
	if latest.Success {
		return fmt.Sprintf("Symbol %q successfully activated", symbolID)
	}
	if len(latest.FailureReasons) == 0 {
		return fmt.Sprintf("Symbol %q failed to activate (no specific reason recorded)", symbolID)
	}
	lines := []string{fmt.Sprintf("Symbol %q failed to activate:", symbolID)}
	for _, reason := range latest.FailureReasons {
		lines = append(lines, "  - "+reason.Message)
	}
	return strings.Join(lines, "\n")
}

// #endregion explain

// #region flush-close
// Flush forces buffered sink writes out.
func (r *Recorder) Flush() error {
	if r.sink == nil {
		return nil
	}
	return r.sink.Flush()
}

// Close flushes and closes the sink. Safe to call twice.
func (r *Recorder) Close() error {
	if r.closed || r.sink == nil {
		r.closed = true
		return nil
	}
	r.closed = true
	return r.sink.Close()
}

// #endregion flush-close
