// internal/store/file.go
package store

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// File appends one line per game to the result file.
type File struct {
	mu sync.Mutex
	f  *os.File
}

// OpenFile opens path for appending, creating it if needed.
func OpenFile(path string) (*File, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Write implements Sink.
func (s *File) Write(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.f, rec.Line()); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// AppendLine appends line to the file at path. It is used for the run log
// and the throughput file, which are written rarely.
func AppendLine(path, line string) error {
	f, err := openAppend(path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	return f.Close()
}
