// Package sink provides pluggable audit trail storage backends:
// in-memory, line-delimited JSON, single JSON array, SQLite, and Bolt,
// plus a fan-out combinator. Every backend satisfies audit.Sink and has
// a matching reader for loading a trail back.
package sink

import (
	"errors"

	"github.com/danielpatrickdp/latch/internal/audit"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region multi
// Multi fans every write out to all wrapped sinks. Errors from
// individual sinks are joined, so one failing backend does not starve
// the others.
type Multi struct {
	sinks []audit.Sink
}

// NewMulti wraps the given sinks. An empty Multi accepts and drops
// everything.
func NewMulti(sinks ...audit.Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Write(a symbol.BindingAttempt) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Flush() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// #endregion multi
