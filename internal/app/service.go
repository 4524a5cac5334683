package app

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"cppx/internal/audit"
	"cppx/internal/config"
	"cppx/internal/doctor"
	"cppx/internal/document"
	"cppx/internal/github"
	"cppx/internal/logging"
	"cppx/internal/runner"
	"cppx/internal/toolchain"
)

type Options struct {
	RegistryPath string
	HTTPClient   *http.Client
	Runner       runner.Runner
	LookPath     toolchain.LookPathFunc
	Logger       *log.Logger
	// WatchInterval overrides the polling interval of Watch.
	WatchInterval time.Duration
}

// Service wires the cppx commands to the registry, the current project
// and the external tools.
type Service struct {
	RegistryPath  string
	Runner        runner.Runner
	LookPath      toolchain.LookPathFunc
	GitHub        *github.Client
	Doctor        *doctor.Service
	Log           *log.Logger
	WatchInterval time.Duration
}

func New(opts Options) (*Service, error) {
	registryPath := opts.RegistryPath
	if registryPath == "" {
		registryPath = config.DefaultRegistryPath()
	}
	expanded, err := config.ExpandPath(registryPath)
	if err != nil {
		return nil, err
	}
	r := opts.Runner
	if r == nil {
		r = runner.Exec{Log: opts.Logger}
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = runner.LookPath
	}
	return &Service{
		RegistryPath:  expanded,
		Runner:        r,
		LookPath:      lookPath,
		GitHub:        github.New(opts.HTTPClient),
		Doctor:        &doctor.Service{RegistryPath: expanded, LookPath: lookPath},
		Log:           logging.OrDiscard(opts.Logger),
		WatchInterval: opts.WatchInterval,
	}, nil
}

// Project is the current project with its loaded document and settings.
type Project struct {
	Config   config.ProjectConfig
	Doc      *document.Document
	Settings config.ProjectSettings
}

// Root is the project directory.
func (p Project) Root() string { return p.Config.Path }

// Current resolves the current project from the registry.
func (s *Service) Current() (config.ProjectConfig, error) {
	return config.LoadCurrentProject(s.RegistryPath)
}

// Open loads the current project's document and settings.
func (s *Service) Open() (Project, error) {
	pc, err := s.Current()
	if err != nil {
		return Project{}, err
	}
	doc, err := document.Load(pc.DocPath())
	if err != nil {
		return Project{}, err
	}
	settings, err := config.LoadSettings(doc, pc)
	if err != nil {
		return Project{}, err
	}
	return Project{Config: pc, Doc: doc, Settings: settings}, nil
}

// mutate runs fn against the current project's document under
// config.Update and records the outcome in the project's audit log.
func (s *Service) mutate(op string, fields map[string]string, fn func(pc config.ProjectConfig, doc *document.Document) error) (config.ProjectConfig, error) {
	pc, err := s.Current()
	if err != nil {
		return config.ProjectConfig{}, err
	}
	err = s.tx().Update(pc.DocPath(), func(doc *document.Document) error {
		return fn(pc, doc)
	})
	s.record(pc, op, err, fields)
	return pc, err
}

func (s *Service) tx() config.Tx {
	return config.Tx{Log: s.Log.WithPrefix("document")}
}

func (s *Service) audit(pc config.ProjectConfig) *audit.Logger {
	return audit.New(config.AuditLogPath(pc.Path))
}

func (s *Service) record(pc config.ProjectConfig, op string, opErr error, fields map[string]string) {
	if err := s.audit(pc).Record(op, opErr, fields); err != nil {
		s.Log.Warn("audit write failed", "op", op, "err", err)
	}
}

// History returns the last n audit events of the current project.
func (s *Service) History(n int) ([]audit.Event, error) {
	pc, err := s.Current()
	if err != nil {
		return nil, err
	}
	return s.audit(pc).Tail(n)
}
