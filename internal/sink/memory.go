package sink

import "github.com/danielpatrickdp/latch/internal/symbol"

// #region memory
// Memory collects attempts in memory. Used by tests and short-lived
// runs that inspect the trail without touching disk.
type Memory struct {
	attempts []symbol.BindingAttempt
	closed   bool
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(a symbol.BindingAttempt) error {
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *Memory) Flush() error { return nil }

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

// Attempts returns a copy of everything written so far.
func (m *Memory) Attempts() []symbol.BindingAttempt {
	return append([]symbol.BindingAttempt(nil), m.attempts...)
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	return m.closed
}

// #endregion memory
