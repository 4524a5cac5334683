package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cppx/internal/config"
	"cppx/internal/docgen"
	"cppx/internal/errs"
	"cppx/internal/runner"
	"cppx/internal/toolchain"
)

// Build compiles the current project and returns the executed plan.
func (s *Service) Build(ctx context.Context, opts toolchain.BuildOptions) (toolchain.BuildPlan, error) {
	p, err := s.Open()
	if err != nil {
		return toolchain.BuildPlan{}, err
	}
	plan, err := toolchain.Plan(p.Config, p.Settings, opts)
	if err != nil {
		return toolchain.BuildPlan{}, err
	}
	for _, w := range plan.Warnings {
		s.Log.Warn(w)
	}
	s.Log.Info("building", "project", p.Config.Name, "type", p.Settings.BuildType, "artifact", plan.Artifact)
	if err := toolchain.Execute(ctx, s.Runner, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

// Run starts the project executable, building it first when it is
// missing.
func (s *Service) Run(ctx context.Context, args []string) error {
	p, err := s.Open()
	if err != nil {
		return err
	}
	if p.Settings.BuildType != config.BuildExecutable {
		return errs.New(errs.KindSchema, "only executables can be run; build_type is %s", p.Settings.BuildType)
	}
	bin := filepath.Join(p.Root(), toolchain.BuildDir, p.Settings.OutputName(""))
	if _, err := os.Stat(bin); os.IsNotExist(err) {
		s.Log.Warn("executable missing; building first", "path", bin)
		if _, err := s.Build(ctx, toolchain.BuildOptions{}); err != nil {
			return err
		}
	}
	return s.Runner.Run(ctx, runner.Cmd{Name: bin, Args: args, Dir: p.Root()})
}

// TestResult is the outcome of one test file.
type TestResult struct {
	Name     string
	Compiled bool
	Passed   bool
	Err      error
}

// Test compiles and runs every test file. A failing test does not stop
// the others; the returned error summarizes the failures.
func (s *Service) Test(ctx context.Context, opts toolchain.BuildOptions) ([]TestResult, error) {
	p, err := s.Open()
	if err != nil {
		return nil, err
	}
	plan, err := toolchain.PlanTests(p.Config, p.Settings, opts)
	if err != nil {
		return nil, err
	}
	if err := toolchain.Execute(ctx, s.Runner, toolchain.BuildPlan{Dirs: plan.Dirs}); err != nil {
		return nil, err
	}
	results := make([]TestResult, 0, len(plan.Tests))
	failed := 0
	for i, bin := range plan.Tests {
		res := TestResult{Name: filepath.Base(bin.Name)}
		if err := s.Runner.Run(ctx, plan.Steps[i]); err != nil {
			s.Log.Error("test compilation failed", "test", res.Name, "err", err)
			res.Err = err
		} else {
			res.Compiled = true
			if err := s.Runner.Run(ctx, bin); err != nil {
				s.Log.Error("test failed", "test", res.Name, "err", err)
				res.Err = err
			} else {
				res.Passed = true
			}
		}
		if !res.Passed {
			failed++
		}
		results = append(results, res)
	}
	if failed > 0 {
		return results, errs.New(errs.KindProcess, "%d of %d tests failed", failed, len(results))
	}
	return results, nil
}

// Clean removes the build and docs directories. It returns the ones that
// existed.
func (s *Service) Clean() ([]string, error) {
	pc, err := s.Current()
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, dir := range []string{toolchain.BuildDir, docgen.OutputDir} {
		path := filepath.Join(pc.Path, dir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			s.Log.Debug("nothing to remove", "dir", dir)
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return removed, errs.Wrap(errs.KindIO, err, "remove %s", path)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

// Doc generates the Doxygen documentation of the current project.
func (s *Service) Doc(ctx context.Context) error {
	pc, err := s.Current()
	if err != nil {
		return err
	}
	g := docgen.Generator{Runner: s.Runner, Log: s.Log}
	if err := g.Generate(ctx, pc.Path, pc.Name); err != nil {
		return fmt.Errorf("doc: %w", err)
	}
	return nil
}
