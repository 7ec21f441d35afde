package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region jsonfile-sink
// JSONFile accumulates attempts in memory and writes one pretty-printed
// JSON array on Close. Suits small trails that should land in a single
// document. Nothing is written if no attempt arrived.
type JSONFile struct {
	path     string
	attempts []symbol.BindingAttempt
}

// NewJSONFile prepares a JSON array sink at path, creating parent
// directories as needed.
func NewJSONFile(path string) (*JSONFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	return &JSONFile{path: path}, nil
}

func (s *JSONFile) Write(a symbol.BindingAttempt) error {
	s.attempts = append(s.attempts, a)
	return nil
}

// Flush is a no-op; the array is written once on Close.
func (s *JSONFile) Flush() error { return nil }

// Close writes the accumulated attempts as a single JSON array.
func (s *JSONFile) Close() error {
	if len(s.attempts) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(s.attempts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	s.attempts = nil
	return nil
}

// #endregion jsonfile-sink

// #region jsonfile-reader
// ReadJSONFile loads a trail written by JSONFile.
func ReadJSONFile(path string) ([]symbol.BindingAttempt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	var attempts []symbol.BindingAttempt
	if err := json.Unmarshal(data, &attempts); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return attempts, nil
}

// #endregion jsonfile-reader
