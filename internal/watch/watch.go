// Package watch polls a single directory and reports files appearing and
// disappearing between polls.
//
// Only the set of regular file names is compared; modification times are
// recorded but content edits are not events. The directory is not walked
// recursively.
package watch

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"cppx/internal/errs"
	"cppx/internal/logging"
)

// DefaultInterval is the time between polls.
const DefaultInterval = time.Second

// Op is the kind of change an Event reports.
type Op int

const (
	Created Op = iota
	Removed
)

func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one file appearing in or disappearing from the directory.
type Event struct {
	Name string
	Op   Op
}

// Snapshot maps file names to modification times.
type Snapshot map[string]time.Time

var readDir = os.ReadDir

// Capture lists the regular files directly inside dir.
func Capture(dir string) (Snapshot, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		snap[e.Name()] = info.ModTime()
	}
	return snap, nil
}

// Diff returns every Created event, then every Removed event, each group
// sorted by name.
func Diff(old, cur Snapshot) []Event {
	var created, removed []string
	for name := range cur {
		if _, ok := old[name]; !ok {
			created = append(created, name)
		}
	}
	for name := range old {
		if _, ok := cur[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(created)
	sort.Strings(removed)
	events := make([]Event, 0, len(created)+len(removed))
	for _, n := range created {
		events = append(events, Event{Name: n, Op: Created})
	}
	for _, n := range removed {
		events = append(events, Event{Name: n, Op: Removed})
	}
	return events
}

// Handler receives events one at a time, in the order Diff produced them.
// A returned error is logged and does not stop the watch.
type Handler func(ctx context.Context, ev Event) error

// State is the watcher lifecycle.
type State int

const (
	Idle State = iota
	Watching
)

func (s State) String() string {
	if s == Watching {
		return "watching"
	}
	return "idle"
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger for transient and handler errors.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// Watcher polls one directory.
type Watcher struct {
	dir      string
	handler  Handler
	interval time.Duration
	log      *log.Logger

	mu    sync.Mutex
	snap  Snapshot
	state State
}

// New captures the baseline snapshot of dir. Files already present are
// never reported as created.
func New(dir string, handler Handler, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		handler:  handler,
		interval: DefaultInterval,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	snap, err := Capture(dir)
	if err != nil {
		return nil, errs.Wrap(errs.KindPath, err, "watch %s", dir)
	}
	w.snap = snap
	return w, nil
}

func checkDir(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return errs.Wrap(errs.KindPath, err, "watch %s", dir)
	}
	if !st.IsDir() {
		return errs.New(errs.KindPath, "watch %s: not a directory", dir)
	}
	return nil
}

func (w *Watcher) Dir() string { return w.dir }

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns a copy of the last captured snapshot.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(Snapshot, len(w.snap))
	for k, v := range w.snap {
		out[k] = v
	}
	return out
}

// Poll runs one cycle: capture, diff, dispatch, replace the snapshot.
// Every event of the cycle reaches the handler even if ctx is cancelled
// midway.
// Only a vanished directory is returned as an error; other capture
// failures are logged and the previous snapshot is kept.
func (w *Watcher) Poll(ctx context.Context) error {
	cur, err := Capture(w.dir)
	if err != nil {
		if cerr := checkDir(w.dir); cerr != nil {
			return cerr
		}
		w.log.Warn("poll failed; keeping previous snapshot", "dir", w.dir, "err", err)
		return nil
	}

	w.mu.Lock()
	prev := w.snap
	w.mu.Unlock()

	for _, ev := range Diff(prev, cur) {
		w.log.Debug("change", "file", ev.Name, "op", ev.Op)
		if w.handler == nil {
			continue
		}
		if herr := w.handler(ctx, ev); herr != nil {
			w.log.Error("handler failed", "file", ev.Name, "op", ev.Op, "err", herr)
		}
	}

	w.mu.Lock()
	w.snap = cur
	w.mu.Unlock()
	return nil
}

// Run polls until ctx is cancelled (returning nil) or the directory
// disappears (returning a PathError).
func (w *Watcher) Run(ctx context.Context) error {
	w.setState(Watching)
	defer w.setState(Idle)
	w.log.Info("watching", "dir", w.dir, "interval", w.interval)

	timer := time.NewTimer(w.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		if err := w.Poll(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}
		timer.Reset(w.interval)
	}
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}
