package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileRecorder keeps the transcript as JSON lines.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

var _ Recorder = (*FileRecorder)(nil)

func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure transcript dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init transcript file: %w", err)
	}
	_ = f.Close()
	return &FileRecorder{path: path}, nil
}

func (r *FileRecorder) Path() string { return r.path }

func (r *FileRecorder) AppendInteraction(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(event); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}

func (r *FileRecorder) LoadInteractions() ([]Event, error) {
	return r.load(func(Event) bool { return true })
}

// LoadSince returns the events recorded at or after since.
func (r *FileRecorder) LoadSince(since time.Time) ([]Event, error) {
	return r.load(func(ev Event) bool { return !ev.Timestamp.Before(since) })
}

func (r *FileRecorder) load(keep func(Event) bool) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	var events []Event
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		// a torn last line is skipped rather than failing the whole read
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if keep(ev) {
			events = append(events, ev)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return events, nil
}

// Nop discards events. It stands in when no transcript path is configured.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) AppendInteraction(Event) error     { return nil }
func (Nop) LoadInteractions() ([]Event, error) { return nil, nil }
