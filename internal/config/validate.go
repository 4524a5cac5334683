package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cppx/internal/errs"
)

// Problems lists settings that load fine but point at files or directories
// that do not exist.
func Problems(s ProjectSettings) []string {
	var out []string
	check := func(kind, p string, wantDir bool) {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(s.Project.Path, p)
		}
		st, err := os.Stat(abs)
		switch {
		case err != nil:
			out = append(out, fmt.Sprintf("%s %q does not exist", kind, p))
		case wantDir && !st.IsDir():
			out = append(out, fmt.Sprintf("%s %q is not a directory", kind, p))
		case !wantDir && st.IsDir():
			out = append(out, fmt.Sprintf("%s %q is a directory", kind, p))
		}
	}
	for _, f := range s.SrcFiles {
		check("source file", f, false)
	}
	for _, f := range s.IncludeFiles {
		check("include file", f, false)
	}
	for _, d := range s.IncludeDirs {
		check("include directory", d, true)
	}
	for _, d := range s.StaticLinkedDirs {
		check("library directory", d, true)
	}
	return out
}

// ValidateMetadata checks the fields `cppx metadata` requires.
func ValidateMetadata(m Metadata) error {
	missing := []string{}
	if strings.TrimSpace(m.Version) == "" {
		missing = append(missing, "version")
	}
	if len(m.Authors) == 0 {
		missing = append(missing, "authors")
	}
	if strings.TrimSpace(m.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(m.License) == "" {
		missing = append(missing, "license")
	}
	if strings.TrimSpace(m.GitHubRepo) != "" && strings.TrimSpace(m.GitHubUser) == "" {
		missing = append(missing, "github_username")
	}
	if len(missing) > 0 {
		return errs.New(errs.KindSchema, "metadata is missing %s", strings.Join(missing, ", "))
	}
	return nil
}
