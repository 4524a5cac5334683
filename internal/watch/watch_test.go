package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppx/internal/errs"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCaptureRegularFilesOnly(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.cpp"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	touch(t, filepath.Join(dir, "sub", "nested.cpp"))
	_ = os.Symlink(filepath.Join(dir, "a.cpp"), filepath.Join(dir, "link.cpp"))

	snap, err := Capture(dir)
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.Contains(t, snap, "a.cpp")
}

func TestDiffOrdering(t *testing.T) {
	now := time.Now()
	old := Snapshot{"keep.cpp": now, "gone_b.cpp": now, "gone_a.cpp": now}
	cur := Snapshot{"keep.cpp": now.Add(time.Hour), "new_b.cpp": now, "new_a.cpp": now}

	assert.Equal(t, []Event{
		{Name: "new_a.cpp", Op: Created},
		{Name: "new_b.cpp", Op: Created},
		{Name: "gone_a.cpp", Op: Removed},
		{Name: "gone_b.cpp", Op: Removed},
	}, Diff(old, cur))
	assert.Empty(t, Diff(cur, cur))
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), nil)
	assert.ErrorIs(t, err, errs.ErrPath)
}

func TestNewOnFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	touch(t, f)
	_, err := New(f, nil)
	assert.ErrorIs(t, err, errs.ErrPath)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) handle(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) got() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestPollBaselineNotReported(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "main.cpp"))
	rec := &recorder{}
	w, err := New(dir, rec.handle)
	require.NoError(t, err)

	require.NoError(t, w.Poll(context.Background()))
	assert.Empty(t, rec.got())

	touch(t, filepath.Join(dir, "util.cpp"))
	require.NoError(t, os.Remove(filepath.Join(dir, "main.cpp")))
	require.NoError(t, w.Poll(context.Background()))
	assert.Equal(t, []Event{{Name: "util.cpp", Op: Created}, {Name: "main.cpp", Op: Removed}}, rec.got())

	require.NoError(t, w.Poll(context.Background()))
	assert.Len(t, rec.got(), 2)
	assert.Contains(t, w.Snapshot(), "util.cpp")
}

func TestPollHandlerErrorDoesNotStop(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{err: errors.New("boom")}
	w, err := New(dir, rec.handle)
	require.NoError(t, err)

	touch(t, filepath.Join(dir, "a.cpp"))
	touch(t, filepath.Join(dir, "b.cpp"))
	require.NoError(t, w.Poll(context.Background()))
	assert.Len(t, rec.got(), 2)
	assert.Len(t, w.Snapshot(), 2)
}

func TestPollFinishesCycleAfterCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var handled []string
	w, err := New(dir, func(_ context.Context, ev Event) error {
		handled = append(handled, ev.Name)
		cancel()
		return nil
	})
	require.NoError(t, err)

	for _, name := range []string{"a.cpp", "b.cpp", "c.cpp"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, w.Poll(ctx))
	assert.Equal(t, []string{"a.cpp", "b.cpp", "c.cpp"}, handled)

	require.NoError(t, w.Poll(context.Background()))
	assert.Len(t, handled, 3)
	assert.Len(t, w.Snapshot(), 3)
}

func TestPollKeepsSnapshotOnTransientError(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "main.cpp"))
	rec := &recorder{}
	w, err := New(dir, rec.handle)
	require.NoError(t, err)

	orig := readDir
	t.Cleanup(func() { readDir = orig })
	readDir = func(string) ([]os.DirEntry, error) {
		return nil, errors.New("too many open files")
	}

	touch(t, filepath.Join(dir, "util.cpp"))
	require.NoError(t, w.Poll(context.Background()))
	assert.Empty(t, rec.got())
	assert.Equal(t, []string{"main.cpp"}, keys(w.Snapshot()))

	readDir = orig
	require.NoError(t, w.Poll(context.Background()))
	assert.Equal(t, []Event{{Name: "util.cpp", Op: Created}}, rec.got())
	assert.Len(t, w.Snapshot(), 2)
}

func keys(s Snapshot) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestPollDirectoryVanishes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.Mkdir(dir, 0o755))
	w, err := New(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	assert.ErrorIs(t, w.Poll(context.Background()), errs.ErrPath)
}

func TestRunUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(dir, rec.handle, WithInterval(10*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, Idle, w.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	touch(t, filepath.Join(dir, "late.cpp"))
	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, Watching, w.State())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, Idle, w.State())
}

func TestRunReturnsWhenDirRemoved(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.Mkdir(dir, 0o755))
	w, err := New(dir, nil, WithInterval(10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = w.Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrPath)
	assert.Equal(t, Idle, w.State())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "watching", Watching.String())
}
