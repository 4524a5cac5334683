// Package docgen generates API documentation with doxygen.
package docgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"cppx/internal/errs"
	"cppx/internal/fsutil"
	"cppx/internal/logging"
	"cppx/internal/runner"
)

const (
	Doxyfile  = "Doxyfile"
	OutputDir = "docs"
)

// DefaultDoxyfile renders the configuration written for a project that
// has none.
func DefaultDoxyfile(project string) []byte {
	var b strings.Builder
	b.WriteString(fsutil.ManagedMarker + "\n")
	for _, kv := range [][2]string{
		{"PROJECT_NAME", fmt.Sprintf("%q", project)},
		{"OUTPUT_DIRECTORY", OutputDir},
		{"INPUT", "./src ./include"},
		{"RECURSIVE", "YES"},
		{"GENERATE_LATEX", "NO"},
		{"EXTRACT_ALL", "YES"},
		{"EXTRACT_PRIVATE", "YES"},
		{"EXTRACT_STATIC", "YES"},
	} {
		fmt.Fprintf(&b, "%-16s = %s\n", kv[0], kv[1])
	}
	return []byte(b.String())
}

type Generator struct {
	Runner runner.Runner
	Log    *log.Logger
}

// EnsureDoxyfile writes the default Doxyfile unless one exists. It
// reports whether a file was written.
func EnsureDoxyfile(root, project string) (bool, error) {
	path := filepath.Join(root, Doxyfile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errs.Wrap(errs.KindIO, err, "stat %s", path)
	}
	if err := fsutil.AtomicWrite(path, DefaultDoxyfile(project), 0o644); err != nil {
		return false, errs.Wrap(errs.KindIO, err, "write %s", path)
	}
	return true, nil
}

// Generate runs doxygen in root, creating the Doxyfile first if needed.
func (g Generator) Generate(ctx context.Context, root, project string) error {
	l := logging.OrDiscard(g.Log)
	created, err := EnsureDoxyfile(root, project)
	if err != nil {
		return err
	}
	if created {
		l.Info("wrote default Doxyfile", "path", filepath.Join(root, Doxyfile))
	}
	if err := g.Runner.Run(ctx, runner.Cmd{Name: "doxygen", Args: []string{Doxyfile}, Dir: root}); err != nil {
		return err
	}
	l.Info("documentation generated", "dir", filepath.Join(root, OutputDir))
	return nil
}
