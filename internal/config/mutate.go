package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"cppx/internal/document"
	"cppx/internal/errs"
)

// DependencyChange reports what AddDependency merged into [source].
type DependencyChange struct {
	Name             string
	Version          string
	IncludeDirsAdded int
	LibsAdded        int
	LibDirsAdded     int
}

// AddDependency records name = version and merges the package's paths
// into the source arrays without duplicating existing entries.
func AddDependency(doc *document.Document, name, version string, info PackageInfo) (DependencyChange, error) {
	if strings.TrimSpace(name) == "" {
		return DependencyChange{}, errs.New(errs.KindSchema, "dependency name is required")
	}
	deps, err := doc.EnsureSection("dependencies")
	if err != nil {
		return DependencyChange{}, err
	}
	deps.Set(name, version)

	change := DependencyChange{Name: name, Version: version}
	if change.IncludeDirsAdded, err = doc.AddUnique("source", "include directories", info.IncludeDirs...); err != nil {
		return DependencyChange{}, err
	}
	if change.LibsAdded, err = doc.AddUnique("source", "static_linked", info.Libs...); err != nil {
		return DependencyChange{}, err
	}
	if change.LibDirsAdded, err = doc.AddUnique("source", "static_linked_dirs", info.LibDirs...); err != nil {
		return DependencyChange{}, err
	}
	return change, nil
}

// RemoveDependency deletes name from [dependencies] and strips the paths
// the install recorded for it. A dependency lookup does not know about
// fails with NotInstalled and leaves doc untouched.
func RemoveDependency(doc *document.Document, name string, lookup InstallLookup) (PackageInfo, error) {
	info, ok, err := lookup.Lookup(name)
	if err != nil {
		return PackageInfo{}, err
	}
	if !ok {
		return PackageInfo{}, errs.New(errs.KindNotInstalled, "package %q is not installed", name)
	}
	if deps, ok := doc.Section("dependencies"); ok {
		deps.Delete(name)
	}
	if _, err := doc.RemoveValues("source", "include directories", info.IncludeDirs...); err != nil {
		return PackageInfo{}, err
	}
	if _, err := doc.RemoveValues("source", "static_linked", info.Libs...); err != nil {
		return PackageInfo{}, err
	}
	if _, err := doc.RemoveValues("source", "static_linked_dirs", info.LibDirs...); err != nil {
		return PackageInfo{}, err
	}
	return info, nil
}

// IgnoreOutcome says what IgnorePaths did with one path.
type IgnoreOutcome int

const (
	IgnoredFile IgnoreOutcome = iota
	IgnoredDir
	IgnoreAlready
	IgnoreMissing
)

func (o IgnoreOutcome) String() string {
	switch o {
	case IgnoredFile:
		return "file"
	case IgnoredDir:
		return "directory"
	case IgnoreAlready:
		return "already ignored"
	default:
		return "missing"
	}
}

type IgnoreResult struct {
	Path    string
	Outcome IgnoreOutcome
}

// IgnorePaths adds each existing path to ignore.dirs or ignore.files.
// Relative paths are checked against root. Missing paths are reported and
// skipped.
func IgnorePaths(doc *document.Document, root string, paths []string) ([]IgnoreResult, error) {
	results := make([]IgnoreResult, 0, len(paths))
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		st, err := os.Stat(abs)
		if err != nil {
			results = append(results, IgnoreResult{Path: p, Outcome: IgnoreMissing})
			continue
		}
		entry := filepath.ToSlash(filepath.Clean(p))
		key, outcome := "files", IgnoredFile
		if st.IsDir() {
			key, outcome = "dirs", IgnoredDir
		}
		added, err := doc.AddUnique("ignore", key, entry)
		if err != nil {
			return nil, err
		}
		if added == 0 {
			outcome = IgnoreAlready
		}
		results = append(results, IgnoreResult{Path: entry, Outcome: outcome})
	}
	return results, nil
}

// UnignorePaths removes paths from both ignore arrays.
func UnignorePaths(doc *document.Document, paths []string) (int, error) {
	entries := make([]string, len(paths))
	for i, p := range paths {
		entries[i] = filepath.ToSlash(filepath.Clean(p))
	}
	files, err := doc.RemoveValues("ignore", "files", entries...)
	if err != nil {
		return 0, err
	}
	dirs, err := doc.RemoveValues("ignore", "dirs", entries...)
	if err != nil {
		return 0, err
	}
	return files + dirs, nil
}

var metadataKeys = map[string]bool{
	"version":         true,
	"description":     true,
	"license":         true,
	"github_username": true,
	"github_repo":     true,
}

// SetMetadata sets a scalar [metadata] field.
func SetMetadata(doc *document.Document, key, value string) error {
	if !metadataKeys[key] {
		return errs.New(errs.KindUnknownSetting, "unknown metadata field %q", key)
	}
	t, err := doc.EnsureSection("metadata")
	if err != nil {
		return err
	}
	t.Set(key, value)
	return nil
}

// SetMetadataList sets a list-valued [metadata] field (authors).
func SetMetadataList(doc *document.Document, key string, values []string) error {
	if key != "authors" {
		return errs.New(errs.KindUnknownSetting, "unknown metadata list %q", key)
	}
	t, err := doc.EnsureSection("metadata")
	if err != nil {
		return err
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			clean = append(clean, v)
		}
	}
	t.Set(key, clean)
	return nil
}

var extraSettings = map[string]map[string]bool{
	"compiler": {"clang": true, "clang++": true, "gcc": true, "g++": true},
}

// SetExtra writes a whitelisted [extra] setting.
func SetExtra(doc *document.Document, key, value string) error {
	allowed, ok := extraSettings[key]
	if !ok {
		return errs.New(errs.KindUnknownSetting, "unknown setting %q", key)
	}
	if !allowed[value] {
		return errs.New(errs.KindSchema, "invalid %s %q; use clang, clang++, gcc or g++", key, value)
	}
	t, err := doc.EnsureSection("extra")
	if err != nil {
		return err
	}
	t.Set(key, value)
	return nil
}

// ParseAssignment splits "key=value".
func ParseAssignment(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if !ok || key == "" {
		return "", "", errs.New(errs.KindSchema, "expected key=value, got %q", s)
	}
	return key, value, nil
}

// AddSourceFile appends rel to source."src files" unless present.
func AddSourceFile(doc *document.Document, rel string) (bool, error) {
	n, err := doc.AddUnique("source", "src files", rel)
	return n > 0, err
}

// RemoveSourceFile drops rel from source."src files".
func RemoveSourceFile(doc *document.Document, rel string) (bool, error) {
	n, err := doc.RemoveValues("source", "src files", rel)
	return n > 0, err
}

// IsIgnored reports whether a file is covered by [ignore]. files entries
// match the bare name or the project-relative path, exactly or as a
// doublestar pattern; dirs entries match any ancestor of rel.
func IsIgnored(doc *document.Document, name, rel string) bool {
	rel = filepath.ToSlash(rel)
	if files, err := doc.GetArray("ignore", "files"); err == nil {
		for _, pat := range files {
			if pat == name || pat == rel {
				return true
			}
			if ok, _ := doublestar.Match(pat, rel); ok {
				return true
			}
			if ok, _ := doublestar.Match(pat, name); ok {
				return true
			}
		}
	}
	if dirs, err := doc.GetArray("ignore", "dirs"); err == nil {
		for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			for _, d := range dirs {
				if strings.TrimSuffix(d, "/") == dir {
					return true
				}
			}
		}
	}
	return false
}
