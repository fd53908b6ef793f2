package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const logSuffix = "_log.txt"

// ErrCorruptLog is returned when a log line is blank or not a JSON turn.
var ErrCorruptLog = errors.New("storage: corrupt log line")

var (
	keyEscaper   = strings.NewReplacer("%", "%25", "/", "%2F", `\`, "%5C")
	keyUnescaper = strings.NewReplacer("%25", "%", "%2F", "/", "%5C", `\`)
)

// FileRecorder keeps one JSON-lines file per key under dir,
// named <key>_log.txt.
type FileRecorder struct {
	dir string
	mu  sync.Mutex
}

func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	return &FileRecorder{dir: dir}, nil
}

// Path returns the log file used for key. Path separators and '%' are
// percent-escaped, so distinct keys never share a file.
func (r *FileRecorder) Path(key string) string {
	return filepath.Join(r.dir, sanitizeKey(key)+logSuffix)
}

func (r *FileRecorder) Append(key string, turns ...Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.Path(key), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, t := range turns {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode append: %w", err)
		}
	}
	return nil
}

// Load reads every turn of key's log. A blank or undecodable line fails the
// whole load with ErrCorruptLog.
func (r *FileRecorder) Load(key string) ([]Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Turn{}, nil
		}
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	turns := []Turn{}
	for n := 1; s.Scan(); n++ {
		line := bytes.TrimSpace(s.Bytes())
		if len(line) == 0 {
			return nil, fmt.Errorf("%w: %s:%d is blank", ErrCorruptLog, f.Name(), n)
		}
		var t Turn
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrCorruptLog, f.Name(), n, err)
		}
		turns = append(turns, t)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return turns, nil
}

// Keys lists the keys that have a log file, sorted.
func (r *FileRecorder) Keys() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		keys = append(keys, keyUnescaper.Replace(strings.TrimSuffix(name, logSuffix)))
	}
	sort.Strings(keys)
	return keys, nil
}

func sanitizeKey(key string) string {
	return keyEscaper.Replace(key)
}
