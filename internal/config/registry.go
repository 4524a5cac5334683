package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"cppx/internal/document"
	"cppx/internal/errs"
)

var placeholders = map[string]bool{
	PlaceholderName:     true,
	PlaceholderPath:     true,
	PlaceholderCompiler: true,
	PlaceholderVersion:  true,
}

// LoadRegistry reads the registry at path. A missing file yields the
// placeholder registry.
func LoadRegistry(path string) (*document.Document, error) {
	doc, err := document.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRegistry(), nil
		}
		return nil, err
	}
	return doc, nil
}

// LoadCurrentProject resolves the current project from the registry file.
func LoadCurrentProject(path string) (ProjectConfig, error) {
	doc, err := document.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ProjectConfig{}, errs.New(errs.KindNotConfigured, "no registry at %s; run 'cppx project set' first", path)
		}
		return ProjectConfig{}, err
	}
	return CurrentProject(doc)
}

// CurrentProject reads [project] and [toolchain]. Any missing, empty, or
// placeholder value means the project is not configured.
func CurrentProject(doc *document.Document) (ProjectConfig, error) {
	name, err := requireSetting(doc, "project", "name", "run 'cppx project set'")
	if err != nil {
		return ProjectConfig{}, err
	}
	path, err := requireSetting(doc, "project", "path", "run 'cppx project set'")
	if err != nil {
		return ProjectConfig{}, err
	}
	compiler, err := requireSetting(doc, "toolchain", "compiler", "run 'cppx profile'")
	if err != nil {
		return ProjectConfig{}, err
	}
	tcPath, err := requireSetting(doc, "toolchain", "path", "run 'cppx profile'")
	if err != nil {
		return ProjectConfig{}, err
	}
	version, err := requireSetting(doc, "toolchain", "version", "run 'cppx profile'")
	if err != nil {
		return ProjectConfig{}, err
	}
	return ProjectConfig{
		Name: name,
		Path: path,
		Toolchain: Toolchain{
			Compiler: compiler,
			Path:     tcPath,
			Version:  version,
		},
	}, nil
}

func requireSetting(doc *document.Document, section, key, hint string) (string, error) {
	if _, ok := doc.Section(section); !ok {
		return "", errs.New(errs.KindNotConfigured, "registry has no [%s] section; %s", section, hint)
	}
	v, ok := doc.GetString(section, key)
	v = strings.TrimSpace(v)
	if !ok || v == "" || placeholders[v] {
		return "", errs.New(errs.KindNotConfigured, "%s.%s is not set; %s", section, key, hint)
	}
	return v, nil
}

// SetCurrentProject records name and the canonical form of path in
// [project], keeping any other keys there. It returns the canonical path.
func SetCurrentProject(doc *document.Document, name, path string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errs.New(errs.KindSchema, "project name is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errs.Wrap(errs.KindPath, err, "resolve %s", path)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errs.Wrap(errs.KindPath, err, "project path %s", abs)
	}
	project, err := doc.EnsureSection("project")
	if err != nil {
		return "", err
	}
	project.Set("name", name)
	project.Set("path", canonical)
	return canonical, nil
}

// SetToolchain replaces [toolchain] with tc.
func SetToolchain(doc *document.Document, tc Toolchain) error {
	if tc.Compiler == "" || tc.Path == "" {
		return errs.New(errs.KindSchema, "toolchain needs a compiler and a path")
	}
	t := document.NewTable()
	t.Set("compiler", tc.Compiler)
	t.Set("path", tc.Path)
	version := tc.Version
	if version == "" {
		version = PlaceholderVersion
	}
	t.Set("version", version)
	doc.Root().Set("toolchain", t)
	return nil
}
