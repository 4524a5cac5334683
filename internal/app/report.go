package app

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"cppx/internal/config"
	"cppx/internal/doctor"
	"cppx/internal/errs"
	"cppx/internal/export"
	"cppx/internal/format"
	"cppx/internal/fsutil"
	"cppx/internal/github"
	"cppx/internal/store"
)

// Info is everything `cppx info` shows.
type Info struct {
	Settings config.ProjectSettings
	Locked   []store.LockPackage
	Problems []string
	// Repo is set when [metadata] names a GitHub repository and the
	// lookup succeeded; RepoErr carries the failure otherwise.
	Repo    *github.Repo
	RepoErr error
}

// Info loads the current project's settings, its lockfile and, when
// configured, its GitHub repository. A GitHub failure is not fatal.
func (s *Service) Info(ctx context.Context) (Info, error) {
	p, err := s.Open()
	if err != nil {
		return Info{}, err
	}
	out := Info{Settings: p.Settings, Problems: config.Problems(p.Settings)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lock, err := store.LoadLockfile(config.ProjectLockPath(p.Root()))
		if err != nil {
			return err
		}
		out.Locked = lock.Packages
		return nil
	})
	md := p.Settings.Metadata
	if md.GitHubUser != "" && md.GitHubRepo != "" {
		g.Go(func() error {
			repo, err := s.GitHub.RepoInfo(gctx, md.GitHubUser, md.GitHubRepo)
			if err != nil {
				s.Log.Warn("github lookup failed", "repo", md.GitHubUser+"/"+md.GitHubRepo, "err", err)
				out.RepoErr = err
				return nil
			}
			out.Repo = &repo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Info{}, err
	}
	return out, nil
}

// ExportResult is either a written file (cmake) or rendered bytes.
type ExportResult struct {
	Path string
	Data []byte
}

// Export renders the current settings. CMake output is written into the
// project; JSON and YAML are returned, or written to output when set.
func (s *Service) Export(f export.Format, output string, force bool) (ExportResult, error) {
	p, err := s.Open()
	if err != nil {
		return ExportResult{}, err
	}
	if f == export.FormatCMake {
		path, err := export.WriteCMake(p.Root(), p.Settings, force)
		if err != nil {
			return ExportResult{}, err
		}
		s.Log.Info("exported", "format", f, "path", path)
		return ExportResult{Path: path}, nil
	}
	data, err := export.Render(f, p.Settings)
	if err != nil {
		return ExportResult{}, err
	}
	if output == "" {
		return ExportResult{Data: data}, nil
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(p.Root(), output)
	}
	if err := fsutil.AtomicWrite(output, data, 0o644); err != nil {
		return ExportResult{}, errs.Wrap(errs.KindIO, err, "write %s", output)
	}
	return ExportResult{Path: output}, nil
}

// Format runs clang-format over args, or over the project's source and
// include files when args is empty.
func (s *Service) Format(ctx context.Context, args []string) (format.Result, error) {
	p, err := s.Open()
	if err != nil {
		return format.Result{}, err
	}
	if len(args) == 0 {
		args = append(append([]string{}, p.Settings.SrcFiles...), p.Settings.IncludeFiles...)
	}
	f := format.Formatter{Runner: s.Runner, Log: s.Log.WithPrefix("format")}
	return f.Format(ctx, p.Root(), p.Settings.Format, args)
}

// RunDoctor checks the registry, the current project and the tools.
func (s *Service) RunDoctor(ctx context.Context) doctor.Report {
	return s.Doctor.Run(ctx)
}
