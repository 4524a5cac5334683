package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cppx/internal/app"
	"cppx/internal/config"
	"cppx/internal/errs"
	"cppx/internal/github"
	"cppx/internal/runner"
	"cppx/internal/toolchain"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fn()
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

type fakePrompter struct {
	pick     int
	confirm  bool
	metadata config.Metadata
	asked    []string
}

func (f *fakePrompter) SelectCompiler(c []toolchain.Compiler) (toolchain.Compiler, error) {
	f.asked = append(f.asked, "compiler")
	return c[f.pick], nil
}

func (f *fakePrompter) Confirm(title string) (bool, error) {
	f.asked = append(f.asked, title)
	return f.confirm, nil
}

func (f *fakePrompter) Metadata(m *config.Metadata) error {
	f.asked = append(f.asked, "metadata")
	*m = f.metadata
	return nil
}

const testRegistry = `[toolchain]
compiler = "g++"
path = "/usr/bin/g++"
version = "g++ 13.2.0"
`

// setupRegistry writes a registry with a toolchain and returns its path.
func setupRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".cppxglobal.toml")
	if err := os.WriteFile(path, []byte(testRegistry), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func execute(t *testing.T, p prompter, args ...string) (string, error) {
	t.Helper()
	var err error
	out := captureStdout(t, func() {
		cmd := newRootCmdWith(p)
		cmd.SetArgs(args)
		err = cmd.Execute()
	})
	return out, err
}

func TestNewRootCmdIncludesCoreCommands(t *testing.T) {
	cmd := newRootCmd()
	got := map[string]bool{}
	for _, c := range cmd.Commands() {
		got[c.Name()] = true
	}
	for _, want := range []string{"project", "profile", "build", "run", "test", "clean", "watch", "ignore", "pkg", "export", "config", "metadata", "info", "doc", "format", "doctor", "history", "version"} {
		if !got[want] {
			t.Fatalf("expected command %q", want)
		}
	}
}

func TestPkgInstallRequiresVersionBeforeService(t *testing.T) {
	called := false
	cmd := newPkgCmd(func() (*app.Service, error) {
		called = true
		return nil, errors.New("should not be called")
	}, boolPtr(false), &fakePrompter{})
	cmd.SetArgs([]string{"install", "fmt"})
	err := cmd.Execute()
	if !errors.Is(err, errs.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if called {
		t.Fatalf("newSvc should not be called without a version")
	}
}

func TestExportRejectsUnknownFormatBeforeService(t *testing.T) {
	cmd := newExportCmd(func() (*app.Service, error) {
		t.Fatalf("newSvc should not be called")
		return nil, nil
	}, boolPtr(false))
	cmd.SetArgs([]string{"xml"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestPickCompiler(t *testing.T) {
	found := []toolchain.Compiler{{Name: "gcc", Path: "/usr/bin/gcc"}, {Name: "clang", Path: "/usr/bin/clang"}}

	if _, err := pickCompiler(nil, "", &fakePrompter{}); !errors.Is(err, errs.ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}

	p := &fakePrompter{}
	c, err := pickCompiler(found, "clang", p)
	if err != nil || c.Name != "clang" || len(p.asked) != 0 {
		t.Fatalf("named pick: %+v %v asked=%v", c, err, p.asked)
	}
	if _, err := pickCompiler(found, "icc", p); err == nil {
		t.Fatalf("expected error for missing compiler")
	}

	c, err = pickCompiler(found[:1], "", p)
	if err != nil || c.Name != "gcc" || len(p.asked) != 0 {
		t.Fatalf("single compiler should not prompt: %+v %v", c, err)
	}

	p = &fakePrompter{pick: 1}
	c, err = pickCompiler(found, "", p)
	if err != nil || c.Name != "clang" || len(p.asked) != 1 {
		t.Fatalf("prompted pick: %+v %v asked=%v", c, err, p.asked)
	}
}

func TestProjectLifecycle(t *testing.T) {
	registry := setupRegistry(t)
	parent := t.TempDir()
	p := &fakePrompter{}

	out, err := execute(t, p, "--registry", registry, "project", "new", "demo", "--dir", parent)
	if err != nil {
		t.Fatalf("project new: %v", err)
	}
	root := filepath.Join(parent, "demo")
	if !strings.Contains(out, "created project demo") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := execute(t, p, "--registry", registry, "project", "set", "--path", root); err != nil {
		t.Fatalf("project set: %v", err)
	}

	out, err = execute(t, p, "--registry", registry, "config", "set", "compiler=clang")
	if err != nil || !strings.Contains(out, "compiler = clang") {
		t.Fatalf("config set: %q %v", out, err)
	}
	if _, err := execute(t, p, "--registry", registry, "config", "set", "speed=fast"); !errors.Is(err, errs.ErrUnknownSetting) {
		t.Fatalf("expected unknown setting, got %v", err)
	}

	out, err = execute(t, p, "--registry", registry, "ignore", "include", "nope.cpp")
	if err != nil {
		t.Fatalf("ignore: %v", err)
	}
	if !strings.Contains(out, "include: directory") || !strings.Contains(out, "nope.cpp: missing") {
		t.Fatalf("unexpected ignore output %q", out)
	}

	out, err = execute(t, p, "--registry", registry, "--json", "export", "json")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var settings map[string]any
	if err := json.Unmarshal([]byte(out), &settings); err != nil {
		t.Fatalf("export output is not JSON: %v\n%s", err, out)
	}
	if settings["build_type"] != "executable" {
		t.Fatalf("unexpected build_type %v", settings["build_type"])
	}

	out, err = execute(t, p, "--registry", registry, "--json", "history", "-n", "0")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var events []map[string]any
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(events) < 4 {
		t.Fatalf("expected at least 4 events, got %d", len(events))
	}
}

func TestMetadataFlagsAndForm(t *testing.T) {
	registry := setupRegistry(t)
	parent := t.TempDir()
	p := &fakePrompter{metadata: config.Metadata{
		Version: "0.1.0", Authors: []string{"Ada"}, Description: "demo", License: "MIT",
	}}
	if _, err := execute(t, p, "--registry", registry, "project", "new", "demo", "--dir", parent); err != nil {
		t.Fatalf("project new: %v", err)
	}
	if _, err := execute(t, p, "--registry", registry, "project", "set", "--path", filepath.Join(parent, "demo")); err != nil {
		t.Fatalf("project set: %v", err)
	}

	if _, err := execute(t, p, "--registry", registry, "metadata", "--version", "1.0.0"); !errors.Is(err, errs.ErrSchema) {
		t.Fatalf("expected incomplete metadata to fail, got %v", err)
	}
	if _, err := execute(t, p, "--registry", registry, "metadata"); err != nil {
		t.Fatalf("metadata form: %v", err)
	}
	if len(p.asked) != 1 || p.asked[0] != "metadata" {
		t.Fatalf("expected the form to be shown once, asked=%v", p.asked)
	}
	out, err := execute(t, p, "--registry", registry, "--json", "metadata", "--version", "1.0.0")
	if err != nil {
		t.Fatalf("metadata flags: %v", err)
	}
	var m config.Metadata
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("metadata output: %v\n%s", err, out)
	}
	if m.Version != "1.0.0" || m.License != "MIT" {
		t.Fatalf("flags should overlay the stored metadata: %+v", m)
	}
}

func TestPkgRemoveAbortedWithoutConfirmation(t *testing.T) {
	rec := &runner.Recorder{}
	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{RegistryPath: setupRegistry(t), Runner: rec})
	}
	p := &fakePrompter{confirm: false}
	var err error
	out := captureStdout(t, func() {
		cmd := newPkgCmd(newSvc, boolPtr(false), p)
		cmd.SetArgs([]string{"remove", "fmt"})
		err = cmd.Execute()
	})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, "aborted") || len(rec.Calls) != 0 {
		t.Fatalf("expected abort without commands, out=%q calls=%v", out, rec.Commands())
	}
}

func TestRunWatchStopsOnCancel(t *testing.T) {
	registry := setupRegistry(t)
	svc, err := app.New(app.Options{RegistryPath: registry, Runner: &runner.Recorder{}, WatchInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	root, err := svc.NewProject(t.TempDir(), "demo")
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	if _, err := svc.SetProject("demo", root); err != nil {
		t.Fatalf("set project: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out := captureStdout(t, func() {
		err = runWatch(ctx, svc, "src")
	})
	if err != nil {
		t.Fatalf("runWatch: %v", err)
	}
	if !strings.Contains(out, "watching") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderInfoReportsGitHubFailure(t *testing.T) {
	info := app.Info{
		Settings: config.ProjectSettings{
			Project:      config.ProjectConfig{Name: "demo", Path: "/p"},
			BuildType:    config.BuildExecutable,
			Dependencies: map[string]string{"fmt": "10.2.1"},
		},
		RepoErr: github.ErrNotFound,
	}
	out := renderInfo(info)
	for _, want := range []string{"demo", "fmt", "not locked", "GH_NOT_FOUND"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func boolPtr(v bool) *bool { return &v }
