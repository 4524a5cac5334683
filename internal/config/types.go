package config

import "sort"

// Toolchain is the compiler recorded in the registry by `cppx profile`.
type Toolchain struct {
	Compiler string `json:"compiler" yaml:"compiler"`
	Path     string `json:"path" yaml:"path"`
	Version  string `json:"version" yaml:"version"`
}

// ProjectConfig is the current project as resolved from the registry.
type ProjectConfig struct {
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	Toolchain Toolchain `json:"toolchain" yaml:"toolchain"`
}

// DocPath returns the project's config.toml.
func (p ProjectConfig) DocPath() string { return ProjectDocPath(p.Path) }

// BuildType selects what the compiler produces.
type BuildType int

const (
	BuildExecutable BuildType = iota
	BuildDynamicLibrary
	BuildStaticLibrary
)

func (b BuildType) String() string {
	switch b {
	case BuildDynamicLibrary:
		return "shared"
	case BuildStaticLibrary:
		return "static"
	default:
		return "executable"
	}
}

func (b BuildType) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// Metadata is the descriptive [metadata] section.
type Metadata struct {
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	License     string   `json:"license,omitempty" yaml:"license,omitempty"`
	GitHubUser  string   `json:"github_username,omitempty" yaml:"github_username,omitempty"`
	GitHubRepo  string   `json:"github_repo,omitempty" yaml:"github_repo,omitempty"`
}

// Configuration is a named build profile from [configurations.<name>].
type Configuration struct {
	Name   string   `json:"name" yaml:"name"`
	Flags  []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Output string   `json:"output,omitempty" yaml:"output,omitempty"`
}

// FormatOptions controls `cppx format`.
type FormatOptions struct {
	Style         string `json:"style" yaml:"style"`
	UseConfigFile bool   `json:"use_config_file" yaml:"use_config_file"`
	ConfigFile    string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
}

// ProjectSettings is a read-only snapshot of a project's config.toml.
type ProjectSettings struct {
	Project ProjectConfig `json:"project" yaml:"project"`

	IncludeDirs      []string `json:"include_directories" yaml:"include_directories"`
	IncludeFiles     []string `json:"include_files" yaml:"include_files"`
	SrcFiles         []string `json:"src_files" yaml:"src_files"`
	StaticLinked     []string `json:"static_linked" yaml:"static_linked"`
	StaticLinkedDirs []string `json:"static_linked_dirs" yaml:"static_linked_dirs"`

	IgnoreDirs  []string `json:"ignore_dirs,omitempty" yaml:"ignore_dirs,omitempty"`
	IgnoreFiles []string `json:"ignore_files,omitempty" yaml:"ignore_files,omitempty"`

	Dependencies map[string]string `json:"dependencies" yaml:"dependencies"`
	Extra        map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
	Defines      map[string]string `json:"defines,omitempty" yaml:"defines,omitempty"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`

	BuildName      string                   `json:"build_name" yaml:"build_name"`
	BuildType      BuildType                `json:"build_type" yaml:"build_type"`
	Configurations map[string]Configuration `json:"configurations,omitempty" yaml:"configurations,omitempty"`

	Format FormatOptions `json:"format" yaml:"format"`
}

// Configuration returns the named profile.
func (s ProjectSettings) Configuration(name string) (Configuration, bool) {
	c, ok := s.Configurations[name]
	return c, ok
}

// OutputName is the artifact base name: the project name, overridden by
// build_name, overridden by the profile's output.
func (s ProjectSettings) OutputName(profile string) string {
	name := s.Project.Name
	if s.BuildName != "" {
		name = s.BuildName
	}
	if c, ok := s.Configuration(profile); ok && c.Output != "" {
		name = c.Output
	}
	return name
}

// SortedKeys returns m's keys in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PackageInfo is what the dependency tool installed for one reference.
type PackageInfo struct {
	Ref         string   `toml:"ref" json:"ref"`
	Libs        []string `toml:"libs" json:"libs"`
	IncludeDirs []string `toml:"include_dirs" json:"include_dirs"`
	LibDirs     []string `toml:"lib_dirs" json:"lib_dirs"`
}

// InstallLookup answers whether a dependency is installed and what it
// provides.
type InstallLookup interface {
	Lookup(name string) (PackageInfo, bool, error)
}
