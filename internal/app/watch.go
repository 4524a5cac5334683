package app

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"cppx/internal/config"
	"cppx/internal/document"
	"cppx/internal/errs"
	"cppx/internal/watch"
)

// DefaultWatchDir is watched when no directory is given.
const DefaultWatchDir = "src"

// WatchChange reports how one watch event affected the document.
type WatchChange struct {
	Event   watch.Event
	Entry   string
	Applied bool
	// Reason says why an event left the document alone.
	Reason string
}

var errUnchanged = errors.New("unchanged")

// Watcher builds a watcher over dir (relative to the project root unless
// absolute) that keeps source."src files" in step with it. notify, when
// set, sees every handled event.
func (s *Service) Watcher(dir string, notify func(WatchChange)) (*watch.Watcher, error) {
	pc, err := s.Current()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) == "" {
		dir = DefaultWatchDir
	}
	abs := dir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(pc.Path, dir)
	}
	rel, err := filepath.Rel(pc.Path, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, errs.New(errs.KindPath, "%s is outside the project %s", dir, pc.Path)
	}
	prefix := filepath.ToSlash(rel)

	handler := func(_ context.Context, ev watch.Event) error {
		change, err := s.applyWatchEvent(pc, prefix, ev)
		if notify != nil {
			notify(change)
		}
		return err
	}
	opts := []watch.Option{watch.WithLogger(s.Log.WithPrefix("watch"))}
	if s.WatchInterval > 0 {
		opts = append(opts, watch.WithInterval(s.WatchInterval))
	}
	return watch.New(abs, handler, opts...)
}

// Watch runs the watcher until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, dir string, notify func(WatchChange)) error {
	w, err := s.Watcher(dir, notify)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (s *Service) applyWatchEvent(pc config.ProjectConfig, prefix string, ev watch.Event) (WatchChange, error) {
	entry := ev.Name
	if prefix != "." {
		entry = path.Join(prefix, ev.Name)
	}
	change := WatchChange{Event: ev, Entry: entry}
	err := s.tx().Update(pc.DocPath(), func(doc *document.Document) error {
		switch ev.Op {
		case watch.Created:
			if config.IsIgnored(doc, ev.Name, entry) {
				change.Reason = "ignored"
				return errUnchanged
			}
			added, err := config.AddSourceFile(doc, entry)
			if err != nil {
				return err
			}
			if !added {
				change.Reason = "already listed"
				return errUnchanged
			}
		case watch.Removed:
			removed, err := config.RemoveSourceFile(doc, entry)
			if err != nil {
				return err
			}
			if !removed {
				change.Reason = "not listed"
				return errUnchanged
			}
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		s.Log.Debug("watch event skipped", "file", entry, "reason", change.Reason)
		return change, nil
	}
	op := "watch." + ev.Op.String()
	s.record(pc, op, err, map[string]string{"file": entry})
	if err != nil {
		return change, err
	}
	change.Applied = true
	s.Log.Info("configuration updated", "file", entry, "op", ev.Op)
	return change, nil
}
