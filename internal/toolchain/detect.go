// Package toolchain finds C/C++ compilers and turns project settings into
// compiler and archiver invocations.
package toolchain

import (
	"bufio"
	"bytes"
	"context"

	"cppx/internal/config"
	"cppx/internal/runner"
)

// Candidates are the compilers Detect probes, in display order.
var Candidates = []string{"gcc", "g++", "clang", "clang++"}

// Compiler is one compiler found on PATH.
type Compiler struct {
	Name    string
	Path    string
	Version string
}

func (c Compiler) Toolchain() config.Toolchain {
	return config.Toolchain{Compiler: c.Name, Path: c.Path, Version: c.Version}
}

// LookPathFunc resolves a program name on PATH.
type LookPathFunc func(name string) (string, error)

// Detect probes each candidate with `--version`. Candidates missing from
// PATH are skipped; a compiler that fails to report a version is kept with
// an empty version.
func Detect(ctx context.Context, r runner.Runner, lookPath LookPathFunc) []Compiler {
	if lookPath == nil {
		lookPath = runner.LookPath
	}
	var found []Compiler
	for _, name := range Candidates {
		path, err := lookPath(name)
		if err != nil {
			continue
		}
		c := Compiler{Name: name, Path: path}
		if out, err := r.Output(ctx, runner.Cmd{Name: path, Args: []string{"--version"}}); err == nil {
			c.Version = firstLine(out)
		}
		found = append(found, c)
	}
	return found
}

func firstLine(b []byte) string {
	s := bufio.NewScanner(bytes.NewReader(b))
	if s.Scan() {
		return string(bytes.TrimSpace(s.Bytes()))
	}
	return ""
}

// PickCompiler returns the compiler to invoke: extra.compiler when set,
// otherwise the registry toolchain path.
func PickCompiler(project config.ProjectConfig, s config.ProjectSettings) string {
	if c := s.Extra["compiler"]; c != "" {
		return c
	}
	if project.Toolchain.Path != "" {
		return project.Toolchain.Path
	}
	return project.Toolchain.Compiler
}
