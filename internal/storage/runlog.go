package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RunLog is the raw transcript of everything the server sent during a run.
type RunLog struct {
	mu sync.Mutex
	f  *os.File
}

func OpenRunLog(path string) (*RunLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure run log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &RunLog{f: f}, nil
}

// Write appends chunk verbatim.
func (l *RunLog) Write(chunk []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Write(chunk)
}

func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
