package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cppx/internal/config"
	"cppx/internal/errs"
	"cppx/internal/runner"
)

const (
	BuildDir = "build"
	TestDir  = "tests"
)

// BuildOptions are the per-invocation knobs of `cppx build`.
type BuildOptions struct {
	Debug   bool
	Profile string
}

// BuildPlan is an ordered list of commands plus the directories they
// write into.
type BuildPlan struct {
	Artifact string
	Dirs     []string
	Steps    []runner.Cmd
	// Tests holds the test binaries to run after Steps succeed.
	Tests    []runner.Cmd
	Warnings []string
}

// Plan assembles the build for the configured build type.
func Plan(project config.ProjectConfig, s config.ProjectSettings, opts BuildOptions) (BuildPlan, error) {
	compiler := PickCompiler(project, s)
	if compiler == "" {
		return BuildPlan{}, errs.New(errs.KindNotConfigured, "no compiler configured; run 'cppx profile'")
	}
	plan := BuildPlan{Dirs: []string{filepath.Join(project.Path, BuildDir)}}

	var flags []string
	if opts.Profile != "" {
		if c, ok := s.Configuration(opts.Profile); ok {
			flags = append(flags, c.Flags...)
		} else {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("configuration %q not found; using defaults", opts.Profile))
		}
	}
	if opts.Debug {
		flags = append(flags, "-g")
	}
	out := s.OutputName(opts.Profile)
	if out == "" {
		return BuildPlan{}, errs.New(errs.KindSchema, "project has no name to build")
	}
	includes := includeArgs(project, s)
	defines := defineArgs(s)

	switch s.BuildType {
	case config.BuildExecutable:
		plan.Artifact = filepath.Join(BuildDir, out)
		plan.Steps = append(plan.Steps, compile(project, compiler, flags, includes, s.SrcFiles, linkArgs(project, s), defines,
			"-o", filepath.ToSlash(plan.Artifact)))
	case config.BuildDynamicLibrary:
		plan.Artifact = filepath.Join(BuildDir, "lib"+out+".so")
		plan.Steps = append(plan.Steps, compile(project, compiler, flags, includes, s.SrcFiles, linkArgs(project, s), defines,
			"-shared", "-fPIC", "-o", filepath.ToSlash(plan.Artifact)))
	case config.BuildStaticLibrary:
		plan.Artifact = filepath.Join(BuildDir, "lib"+out+".a")
		objs := make([]string, 0, len(s.SrcFiles))
		seen := make(map[string]bool, len(s.SrcFiles))
		for _, src := range s.SrcFiles {
			obj := objectName(project, src, seen)
			objs = append(objs, obj)
			plan.Steps = append(plan.Steps, compile(project, compiler, flags, includes, nil, nil, defines,
				"-c", src, "-o", obj))
		}
		plan.Steps = append(plan.Steps, runner.Cmd{
			Name: "ar",
			Args: append([]string{"rcs", filepath.ToSlash(plan.Artifact)}, objs...),
			Dir:  project.Path,
		})
	default:
		return BuildPlan{}, errs.New(errs.KindSchema, "unsupported build type %v", s.BuildType)
	}
	return plan, nil
}

// PlanTests compiles each tests/*.cpp and tests/*.cc together with every
// project source except main.cpp, one binary per test file.
func PlanTests(project config.ProjectConfig, s config.ProjectSettings, opts BuildOptions) (BuildPlan, error) {
	compiler := PickCompiler(project, s)
	if compiler == "" {
		return BuildPlan{}, errs.New(errs.KindNotConfigured, "no compiler configured; run 'cppx profile'")
	}
	var tests []string
	for _, pat := range []string{"*.cpp", "*.cc"} {
		m, err := filepath.Glob(filepath.Join(project.Path, TestDir, pat))
		if err != nil {
			return BuildPlan{}, errs.Wrap(errs.KindPath, err, "list tests")
		}
		tests = append(tests, m...)
	}
	sort.Strings(tests)
	if len(tests) == 0 {
		return BuildPlan{}, errs.New(errs.KindPath, "no tests found in %s", filepath.Join(project.Path, TestDir))
	}

	var sources []string
	for _, src := range s.SrcFiles {
		if filepath.Base(src) != "main.cpp" {
			sources = append(sources, src)
		}
	}
	var flags []string
	if opts.Debug {
		flags = append(flags, "-g")
	}
	binDir := filepath.Join(BuildDir, TestDir)
	plan := BuildPlan{Dirs: []string{filepath.Join(project.Path, binDir)}}
	includes := includeArgs(project, s)
	defines := defineArgs(s)
	for _, t := range tests {
		rel, err := filepath.Rel(project.Path, t)
		if err != nil {
			rel = t
		}
		bin := filepath.Join(binDir, stem(t))
		srcs := append([]string{filepath.ToSlash(rel)}, sources...)
		plan.Steps = append(plan.Steps, compile(project, compiler, flags, includes, srcs, linkArgs(project, s), defines,
			"-o", filepath.ToSlash(bin)))
		plan.Tests = append(plan.Tests, runner.Cmd{Name: filepath.Join(project.Path, bin), Dir: project.Path})
	}
	return plan, nil
}

// Execute creates the plan's directories and runs its steps in order,
// stopping at the first failure.
func Execute(ctx context.Context, r runner.Runner, plan BuildPlan) error {
	for _, d := range plan.Dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return errs.Wrap(errs.KindIO, err, "create %s", d)
		}
	}
	for _, step := range plan.Steps {
		if err := r.Run(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func compile(project config.ProjectConfig, compiler string, flags, includes, sources, links, defines []string, tail ...string) runner.Cmd {
	args := make([]string, 0, len(flags)+len(includes)+len(sources)+len(links)+len(defines)+len(tail))
	args = append(args, flags...)
	args = append(args, includes...)
	args = append(args, sources...)
	args = append(args, links...)
	args = append(args, defines...)
	args = append(args, tail...)
	return runner.Cmd{Name: compiler, Args: args, Dir: project.Path}
}

func includeArgs(project config.ProjectConfig, s config.ProjectSettings) []string {
	out := make([]string, 0, len(s.IncludeDirs))
	for _, d := range s.IncludeDirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(project.Path, d)
		}
		out = append(out, "-I"+d)
	}
	return out
}

func linkArgs(project config.ProjectConfig, s config.ProjectSettings) []string {
	var out []string
	for _, lib := range s.StaticLinked {
		if isLibraryFile(lib) {
			out = append(out, lib)
		} else {
			out = append(out, "-l"+lib)
		}
	}
	for _, d := range s.StaticLinkedDirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(project.Path, d)
		}
		out = append(out, "-L"+d)
	}
	return out
}

func isLibraryFile(lib string) bool {
	for _, ext := range []string{".a", ".so", ".lib"} {
		if strings.HasSuffix(lib, ext) {
			return true
		}
	}
	return false
}

func defineArgs(s config.ProjectSettings) []string {
	keys := config.SortedKeys(s.Defines)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := s.Defines[k]; v != "" {
			out = append(out, "-D"+k+"="+v)
		} else {
			out = append(out, "-D"+k)
		}
	}
	return out
}

// objectName flattens src's project-relative path into a unique object
// file under BuildDir: src/a/util.cpp becomes build/src_a_util.o.
func objectName(project config.ProjectConfig, src string, seen map[string]bool) string {
	rel := src
	if filepath.IsAbs(src) {
		r, err := filepath.Rel(project.Path, src)
		if err != nil || strings.HasPrefix(r, "..") {
			r = filepath.Base(src)
		}
		rel = r
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	for strings.HasPrefix(rel, "../") {
		rel = rel[3:]
	}
	name := strings.ReplaceAll(rel, "/", "_")
	base := name
	for i := 2; seen[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	seen[name] = true
	return filepath.ToSlash(filepath.Join(BuildDir, name+".o"))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
