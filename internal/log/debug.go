// Package log provides the debug file log and the console logger.
package log

import (
	"log"
	"os"
	"sync"
)

// pendingLimit caps what is held in memory before a destination is known.
const pendingLimit = 256 << 10

// sink collects debug lines. Until attach or drop is called, lines are kept
// in memory so that early pipeline steps are not lost once --debug-log is
// known.
type sink struct {
	mu      sync.Mutex
	out     *os.File
	pending []byte
	dropped bool
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.out != nil:
		n, err := s.out.Write(p)
		_ = s.out.Sync()
		return n, err
	case s.dropped:
		return len(p), nil
	}

	if len(s.pending)+len(p) <= pendingLimit {
		s.pending = append(s.pending, p...)
	}
	return len(p), nil
}

func (s *sink) attach(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	if path == "" {
		s.dropLocked()
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		s.dropLocked()
		return err
	}
	s.out = f
	s.dropped = false
	if len(s.pending) > 0 {
		_, _ = f.Write(s.pending)
		_ = f.Sync()
		s.pending = nil
	}
	return nil
}

func (s *sink) dropLocked() {
	s.dropped = true
	s.pending = nil
}

func (s *sink) closeLocked() error {
	if s.out == nil {
		return nil
	}
	err := s.out.Close()
	s.out = nil
	return err
}

var (
	debugSink   = &sink{}
	debugLogger = log.New(debugSink, "", log.LstdFlags|log.Lmicroseconds)
)

// SetFile sends debug lines to path, flushing what was collected so far.
// An empty path, or one that cannot be opened, drops them instead.
func SetFile(path string) error {
	return debugSink.attach(path)
}

// Printf writes a line to the debug log and mirrors it to the console
// logger at debug level.
func Printf(format string, args ...any) {
	debugLogger.Printf(format, args...)
	debugf(format, args...)
}

// Close closes the debug log file if one is open.
func Close() error {
	debugSink.mu.Lock()
	defer debugSink.mu.Unlock()
	return debugSink.closeLocked()
}
