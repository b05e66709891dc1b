// Package log is the debug log shared by every lazychangelist component.
//
// The log file is only known once configuration has loaded, so output is
// held in memory until SetFile picks a destination or turns logging off.
package log

import (
	"bytes"
	"io"
	"log"
	"os"
	"sync"
)

type sinkState int

const (
	buffering sinkState = iota
	writing
	discarding
)

// sink is the io.Writer behind the package logger.
type sink struct {
	mu      sync.Mutex
	state   sinkState
	pending bytes.Buffer
	file    *os.File
}

var (
	out    = &sink{}
	logger = log.New(out, "", log.LstdFlags|log.Lmicroseconds)
)

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case writing:
		n, err := s.file.Write(p)
		_ = s.file.Sync()
		return n, err
	case discarding:
		return len(p), nil
	default:
		return s.pending.Write(p)
	}
}

// closeFile must be called with mu held.
func (s *sink) closeFile() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// discard must be called with mu held.
func (s *sink) discard() {
	s.state = discarding
	s.pending.Reset()
}

// SetFile appends the log to path, flushing anything held so far. An empty
// path, or a file that cannot be opened, turns logging off.
func SetFile(path string) error {
	out.mu.Lock()
	defer out.mu.Unlock()

	_ = out.closeFile()
	if path == "" {
		out.discard()
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		out.discard()
		return err
	}

	out.file = f
	out.state = writing
	if _, err := io.Copy(f, &out.pending); err == nil {
		_ = f.Sync()
	}
	out.pending.Reset()
	return nil
}

// Printf writes a formatted debug message.
func Printf(format string, args ...any) {
	logger.Printf(format, args...)
}

// Prefixed returns a printf-style hook that tags every message with prefix.
// Components take such hooks instead of importing this package directly.
func Prefixed(prefix string) func(string, ...any) {
	return func(format string, args ...any) {
		logger.Printf(prefix+format, args...)
	}
}

// Close closes the log file. Later messages are dropped.
func Close() error {
	out.mu.Lock()
	defer out.mu.Unlock()

	if out.state == writing {
		out.state = discarding
	}
	return out.closeFile()
}
