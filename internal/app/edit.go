package app

import (
	"strconv"
	"strings"

	"cppx/internal/config"
	"cppx/internal/document"
)

// Ignore adds paths to [ignore] of the current project.
func (s *Service) Ignore(paths []string) ([]config.IgnoreResult, error) {
	var results []config.IgnoreResult
	_, err := s.mutate("ignore", map[string]string{"paths": strings.Join(paths, ",")}, func(pc config.ProjectConfig, doc *document.Document) error {
		var err error
		results, err = config.IgnorePaths(doc, pc.Path, paths)
		return err
	})
	return results, err
}

// Unignore removes entries from [ignore]; it returns how many went.
func (s *Service) Unignore(paths []string) (int, error) {
	var n int
	_, err := s.mutate("unignore", map[string]string{"paths": strings.Join(paths, ",")}, func(_ config.ProjectConfig, doc *document.Document) error {
		var err error
		n, err = config.UnignorePaths(doc, paths)
		return err
	})
	return n, err
}

// SetConfig applies a "key=value" [extra] assignment.
func (s *Service) SetConfig(assignment string) (string, string, error) {
	key, value, err := config.ParseAssignment(assignment)
	if err != nil {
		return "", "", err
	}
	_, err = s.mutate("config.set", map[string]string{key: value}, func(_ config.ProjectConfig, doc *document.Document) error {
		return config.SetExtra(doc, key, value)
	})
	return key, value, err
}

// SetMetadata validates m and writes it to [metadata]. Empty optional
// fields are left as they are.
func (s *Service) SetMetadata(m config.Metadata) error {
	if err := config.ValidateMetadata(m); err != nil {
		return err
	}
	fields := map[string]string{"version": m.Version, "authors": strconv.Itoa(len(m.Authors))}
	_, err := s.mutate("metadata", fields, func(_ config.ProjectConfig, doc *document.Document) error {
		scalars := []struct{ key, value string }{
			{"version", m.Version},
			{"description", m.Description},
			{"license", m.License},
			{"github_username", m.GitHubUser},
			{"github_repo", m.GitHubRepo},
		}
		for _, f := range scalars {
			if strings.TrimSpace(f.value) == "" {
				continue
			}
			if err := config.SetMetadata(doc, f.key, strings.TrimSpace(f.value)); err != nil {
				return err
			}
		}
		return config.SetMetadataList(doc, "authors", m.Authors)
	})
	return err
}

// Metadata returns the current [metadata], for prefilling the form.
func (s *Service) Metadata() (config.Metadata, error) {
	p, err := s.Open()
	if err != nil {
		return config.Metadata{}, err
	}
	return p.Settings.Metadata, nil
}
