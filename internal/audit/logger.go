// Package audit appends one JSON line per committed project mutation to
// <project>/.cppx/audit.log.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cppx/internal/errs"
)

type Logger struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

type Event struct {
	Timestamp string            `json:"timestamp"`
	Operation string            `json:"operation"`
	Status    string            `json:"status"`
	Kind      string            `json:"kind,omitempty"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = l.now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// Record logs the outcome of op. A non-nil opErr is recorded with its
// error kind.
func (l *Logger) Record(op string, opErr error, fields map[string]string) error {
	ev := Event{Operation: op, Status: StatusOK, Fields: fields}
	if opErr != nil {
		ev.Status = StatusError
		ev.Kind = string(errs.KindOf(opErr))
		ev.Message = opErr.Error()
	}
	return l.Log(ev)
}

// Tail returns the last n events, oldest first. n <= 0 returns all of
// them. A missing log is empty; malformed lines are skipped.
func (l *Logger) Tail(n int) ([]Event, error) {
	if l == nil || l.path == "" {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var ev Event
		if json.Unmarshal(sc.Bytes(), &ev) != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}
