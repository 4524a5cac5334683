package app

import (
	"context"
	"path/filepath"
	"strings"

	"cppx/internal/config"
	"cppx/internal/document"
	"cppx/internal/errs"
	"cppx/internal/scaffold"
	"cppx/internal/toolchain"
)

// NewProject scaffolds <parent>/<name>. It does not make it current.
func (s *Service) NewProject(parent, name string) (string, error) {
	root, err := scaffold.Create(parent, name)
	if err != nil {
		return "", err
	}
	s.Log.Info("project created", "name", name, "path", root)
	s.record(config.ProjectConfig{Name: name, Path: root}, "project.new", nil, map[string]string{"name": name})
	return root, nil
}

// SetProject makes the project at path current. An empty name falls back
// to the document's top-level name, then to the directory name.
func (s *Service) SetProject(name, path string) (config.ProjectConfig, error) {
	if strings.TrimSpace(path) == "" {
		return config.ProjectConfig{}, errs.New(errs.KindPath, "project path is required")
	}
	if strings.TrimSpace(name) == "" {
		name = projectName(path)
	}
	var canonical string
	err := s.tx().UpdateRegistry(s.RegistryPath, func(doc *document.Document) error {
		var err error
		canonical, err = config.SetCurrentProject(doc, name, path)
		return err
	})
	if err != nil {
		return config.ProjectConfig{}, err
	}
	pc := config.ProjectConfig{Name: name, Path: canonical}
	s.record(pc, "project.set", nil, map[string]string{"name": name})
	return pc, nil
}

func projectName(path string) string {
	if doc, err := document.Load(config.ProjectDocPath(path)); err == nil {
		if n, ok := doc.Root().Get("name"); ok {
			if str, ok := n.(string); ok && str != "" {
				return str
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Base(abs)
	}
	return filepath.Base(path)
}

// DetectCompilers probes PATH for the supported compilers.
func (s *Service) DetectCompilers(ctx context.Context) []toolchain.Compiler {
	return toolchain.Detect(ctx, s.Runner, s.LookPath)
}

// SetToolchain writes c into the registry's [toolchain].
func (s *Service) SetToolchain(c toolchain.Compiler) error {
	return s.tx().UpdateRegistry(s.RegistryPath, func(doc *document.Document) error {
		return config.SetToolchain(doc, c.Toolchain())
	})
}
