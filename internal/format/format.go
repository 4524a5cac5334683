// Package format runs clang-format over project files.
package format

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"cppx/internal/config"
	"cppx/internal/errs"
	"cppx/internal/logging"
	"cppx/internal/runner"
)

// configNames are the files clang-format discovers with -style=file.
var configNames = []string{".clang-format", "_clang-format"}

type Formatter struct {
	Runner runner.Runner
	Log    *log.Logger
}

// Result lists what Format touched.
type Result struct {
	Formatted []string
	Skipped   []string
}

// Expand resolves each argument against root: globs through doublestar,
// plain paths as-is. Directories and missing paths are skipped.
func Expand(root string, args []string) (files, skipped []string, err error) {
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, arg := range args {
		if hasMeta(arg) {
			matches, gerr := doublestar.Glob(os.DirFS(root), filepath.ToSlash(arg), doublestar.WithFilesOnly())
			if gerr != nil {
				return nil, nil, errs.Wrap(errs.KindSchema, gerr, "pattern %q", arg)
			}
			if len(matches) == 0 {
				skipped = append(skipped, arg)
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(filepath.Join(root, filepath.FromSlash(m)))
			}
			continue
		}
		p := arg
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		st, serr := os.Stat(p)
		if serr != nil || st.IsDir() {
			skipped = append(skipped, arg)
			continue
		}
		add(p)
	}
	return files, skipped, nil
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// Format formats the files named by args in place. Per-file failures are
// collected and returned together.
func (f Formatter) Format(ctx context.Context, root string, opts config.FormatOptions, args []string) (Result, error) {
	l := logging.OrDiscard(f.Log)
	files, skipped, err := Expand(root, args)
	if err != nil {
		return Result{}, err
	}
	for _, s := range skipped {
		l.Warn("skipping: not a file or no matches", "path", s)
	}
	res := Result{Skipped: skipped}
	if len(files) == 0 {
		return res, nil
	}

	style, dir, err := styleArg(root, opts)
	if err != nil {
		return res, err
	}
	var failures []error
	for _, file := range files {
		err := f.Runner.Run(ctx, runner.Cmd{Name: "clang-format", Args: []string{style, "-i", file}, Dir: dir})
		if err != nil {
			failures = append(failures, err)
			continue
		}
		res.Formatted = append(res.Formatted, file)
	}
	if len(failures) > 0 {
		return res, errs.Wrap(errs.KindProcess, errors.Join(failures...), "%d of %d files failed to format", len(failures), len(files))
	}
	return res, nil
}

// styleArg picks -style=file (run from the config file's directory) or
// the named built-in style.
func styleArg(root string, opts config.FormatOptions) (string, string, error) {
	if !opts.UseConfigFile {
		style := opts.Style
		if style == "" {
			style = config.DefaultStyle
		}
		return "-style=" + style, root, nil
	}
	if opts.ConfigFile != "" {
		p := opts.ConfigFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		if _, err := os.Stat(p); err != nil {
			return "", "", errs.Wrap(errs.KindPath, err, "format config file")
		}
		return "-style=file:" + p, filepath.Dir(p), nil
	}
	for _, name := range configNames {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return "-style=file", root, nil
		}
	}
	return "", "", errs.New(errs.KindPath, "use_config_file is set but no .clang-format found in %s", root)
}
