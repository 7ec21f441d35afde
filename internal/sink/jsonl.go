package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region options
// JSONLOptions configure the line-delimited sink.
type JSONLOptions struct {
	BufferSize int  // attempts buffered before an automatic flush
	Append     bool // append to an existing file instead of truncating
}

// DefaultJSONLOptions buffers ten attempts and appends.
func DefaultJSONLOptions() JSONLOptions {
	return JSONLOptions{BufferSize: 10, Append: true}
}

// #endregion options

// #region jsonl-sink
// JSONL streams attempts to a newline-delimited JSON file, one object
// per line. Suits large trails and line-based tooling.
type JSONL struct {
	f     *os.File
	buf   []symbol.BindingAttempt
	limit int
}

// NewJSONL opens (creating parent directories as needed) a JSONL sink
// at path.
func NewJSONL(path string, opts JSONLOptions) (*JSONL, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultJSONLOptions().BufferSize
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	flag := os.O_CREATE | os.O_WRONLY
	if opts.Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl: %w", err)
	}
	return &JSONL{f: f, limit: opts.BufferSize}, nil
}

// Write buffers the attempt and flushes once the buffer is full.
func (s *JSONL) Write(a symbol.BindingAttempt) error {
	s.buf = append(s.buf, a)
	if len(s.buf) >= s.limit {
		return s.Flush()
	}
	return nil
}

// Flush writes all buffered attempts as JSON lines.
func (s *JSONL) Flush() error {
	if s.f == nil || len(s.buf) == 0 {
		return nil
	}
	for _, a := range s.buf {
		line, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal attempt: %w", err)
		}
		if _, err := s.f.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
	}
	s.buf = s.buf[:0]
	return nil
}

// Close flushes the remaining buffer and closes the file.
func (s *JSONL) Close() error {
	if s.f == nil {
		return nil
	}
	if err := s.Flush(); err != nil {
		s.f.Close()
		s.f = nil
		return err
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// #endregion jsonl-sink

// #region jsonl-reader
// ReadJSONL loads a trail written by JSONL, skipping blank lines.
func ReadJSONL(path string) ([]symbol.BindingAttempt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl: %w", err)
	}
	defer f.Close()

	var attempts []symbol.BindingAttempt
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var a symbol.BindingAttempt
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		attempts = append(attempts, a)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return attempts, nil
}

// #endregion jsonl-reader
