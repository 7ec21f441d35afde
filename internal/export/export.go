// Package export writes audit trails and lifecycle ledgers to JSON
// and JSONL files, with a metadata summary on the JSON form.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danielpatrickdp/latch/internal/registry"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// Version tags exported documents.
const Version = "0.1.0"

// #region metadata
// TrailMetadata summarizes an exported audit trail.
type TrailMetadata struct {
	ExportedAt       time.Time                      `json:"exported_at"`
	EngineVersion    string                         `json:"engine_version"`
	TotalAttempts    int                            `json:"total_attempts"`
	SuccessCount     int                            `json:"success_count"`
	FailureCount     int                            `json:"failure_count"`
	SuccessRate      float64                        `json:"success_rate"`
	FailureBreakdown map[symbol.FailureCategory]int `json:"failure_breakdown"`
}

// TrailMeta computes the summary for a set of attempts.
func TrailMeta(attempts []symbol.BindingAttempt, now time.Time) TrailMetadata {
	meta := TrailMetadata{
		ExportedAt:       now,
		EngineVersion:    Version,
		TotalAttempts:    len(attempts),
		FailureBreakdown: map[symbol.FailureCategory]int{},
	}
	for _, a := range attempts {
		if a.Success {
			meta.SuccessCount++
			continue
		}
		meta.FailureCount++
		for _, r := range a.FailureReasons {
			meta.FailureBreakdown[r.Category]++
		}
	}
	if meta.TotalAttempts > 0 {
		meta.SuccessRate = float64(meta.SuccessCount) / float64(meta.TotalAttempts) * 100
	}
	return meta
}

// LedgerMetadata summarizes an exported lifecycle ledger.
type LedgerMetadata struct {
	ExportedAt          time.Time      `json:"exported_at"`
	EngineVersion       string         `json:"engine_version"`
	TotalTransitions    int            `json:"total_transitions"`
	TransitionBreakdown map[string]int `json:"transition_breakdown"`
}

// LedgerMeta computes the summary for a set of transitions. Breakdown
// keys read "from → to".
func LedgerMeta(transitions []registry.StateTransition, now time.Time) LedgerMetadata {
	meta := LedgerMetadata{
		ExportedAt:          now,
		EngineVersion:       Version,
		TotalTransitions:    len(transitions),
		TransitionBreakdown: map[string]int{},
	}
	for _, t := range transitions {
		meta.TransitionBreakdown[fmt.Sprintf("%s → %s", t.From, t.To)]++
	}
	return meta
}

// #endregion metadata

// #region trail
type trailDocument struct {
	Metadata TrailMetadata           `json:"metadata"`
	Trail    []symbol.BindingAttempt `json:"audit_trail"`
}

// WriteTrailJSON writes attempts as one JSON document with a metadata
// header.
func WriteTrailJSON(attempts []symbol.BindingAttempt, path string) error {
	doc := trailDocument{
		Metadata: TrailMeta(attempts, time.Now()),
		Trail:    attempts,
	}
	if doc.Trail == nil {
		doc.Trail = []symbol.BindingAttempt{}
	}
	return writeJSON(path, doc)
}

// WriteTrailJSONL writes one attempt per line, no metadata.
func WriteTrailJSONL(attempts []symbol.BindingAttempt, path string) error {
	return writeLines(path, len(attempts), func(i int) (interface{}, error) {
		return attempts[i], nil
	})
}

// WriteTrailFiltered writes the attempts matching the success filter
// (nil keeps everything) and returns how many were written.
func WriteTrailFiltered(attempts []symbol.BindingAttempt, path, format string, success *bool) (int, error) {
	filtered := attempts
	if success != nil {
		filtered = nil
		for _, a := range attempts {
			if a.Success == *success {
				filtered = append(filtered, a)
			}
		}
	}

	switch format {
	case "json":
		return len(filtered), WriteTrailJSON(filtered, path)
	case "jsonl":
		return len(filtered), WriteTrailJSONL(filtered, path)
	default:
		return 0, fmt.Errorf("unsupported format %q (use \"json\" or \"jsonl\")", format)
	}
}

// #endregion trail

// #region ledger
type ledgerDocument struct {
	Metadata LedgerMetadata             `json:"metadata"`
	Ledger   []registry.StateTransition `json:"ledger"`
}

// WriteLedgerJSON writes transitions as one JSON document with a
// metadata header.
func WriteLedgerJSON(transitions []registry.StateTransition, path string) error {
	doc := ledgerDocument{
		Metadata: LedgerMeta(transitions, time.Now()),
		Ledger:   transitions,
	}
	if doc.Ledger == nil {
		doc.Ledger = []registry.StateTransition{}
	}
	return writeJSON(path, doc)
}

// WriteLedgerJSONL writes one transition per line, no metadata.
func WriteLedgerJSONL(transitions []registry.StateTransition, path string) error {
	return writeLines(path, len(transitions), func(i int) (interface{}, error) {
		return transitions[i], nil
	})
}

// WriteLedger dispatches on format like WriteTrailFiltered.
func WriteLedger(transitions []registry.StateTransition, path, format string) error {
	switch format {
	case "json":
		return WriteLedgerJSON(transitions, path)
	case "jsonl":
		return WriteLedgerJSONL(transitions, path)
	default:
		return fmt.Errorf("unsupported format %q (use \"json\" or \"jsonl\")", format)
	}
}

// #endregion ledger

// #region io
func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

func writeJSON(path string, doc interface{}) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func writeLines(path string, n int, item func(int) (interface{}, error)) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		v, err := item(i)
		if err != nil {
			return err
		}
		line, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal line %d: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// #endregion io
