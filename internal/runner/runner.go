// Package runner executes external tools (compilers, conan, doxygen,
// clang-format) on behalf of the other packages.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"cppx/internal/errs"
	"cppx/internal/logging"
)

// Cmd is one process invocation. Args never pass through a shell.
type Cmd struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command for logs and dry runs.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

type Runner interface {
	// Run executes c and fails with a ProcessError on a non-zero exit.
	Run(ctx context.Context, c Cmd) error
	// Output executes c and returns its stdout.
	Output(ctx context.Context, c Cmd) ([]byte, error)
}

// Exec runs commands with os/exec. When Stdout/Stderr are nil, output is
// captured and attached to the error on failure.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
	Log    *log.Logger
}

func (r Exec) Run(ctx context.Context, c Cmd) error {
	logging.OrDiscard(r.Log).Debug("exec", "cmd", c.String(), "dir", c.Dir)
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if r.Stdout == nil && r.Stderr == nil {
		out, err := cmd.CombinedOutput()
		return processError(c, err, out)
	}
	cmd.Stdout, cmd.Stderr = r.Stdout, r.Stderr
	return processError(c, cmd.Run(), nil)
}

func (r Exec) Output(ctx context.Context, c Cmd) ([]byte, error) {
	logging.OrDiscard(r.Log).Debug("exec", "cmd", c.String(), "dir", c.Dir)
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, processError(c, err, stderr.Bytes())
	}
	return out, nil
}

func processError(c Cmd, err error, out []byte) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return errs.Wrap(errs.KindProcess, err, "%s not found on PATH", c.Name)
	}
	msg := strings.TrimSpace(string(out))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg == "" {
			return errs.New(errs.KindProcess, "%s exited with status %d", c.Name, exitErr.ExitCode())
		}
		return errs.New(errs.KindProcess, "%s exited with status %d: %s", c.Name, exitErr.ExitCode(), msg)
	}
	return errs.Wrap(errs.KindProcess, err, "%s", c.Name)
}

// LookPath is the PATH lookup used when a caller does not inject one.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
