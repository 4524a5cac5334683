package config

import (
	"strings"

	"cppx/internal/document"
	"cppx/internal/errs"
)

var sourceKeys = []string{
	"include directories",
	"include files",
	"src files",
	"static_linked",
	"static_linked_dirs",
}

// ParseBuildType maps a build_type value. Empty means executable.
func ParseBuildType(s string) (BuildType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "executable":
		return BuildExecutable, nil
	case "shared", "dynamic":
		return BuildDynamicLibrary, nil
	case "static":
		return BuildStaticLibrary, nil
	default:
		return 0, errs.New(errs.KindSchema, "invalid build_type %q; use executable, shared or static", s)
	}
}

// LoadSettings reads a project document into a typed snapshot.
func LoadSettings(doc *document.Document, project ProjectConfig) (ProjectSettings, error) {
	s := ProjectSettings{Project: project}

	if _, ok := doc.Section("source"); !ok {
		return ProjectSettings{}, errs.New(errs.KindSchema, "missing [source] section")
	}
	lists := make([][]string, len(sourceKeys))
	for i, key := range sourceKeys {
		v, err := doc.GetArray("source", key)
		if err != nil {
			return ProjectSettings{}, err
		}
		lists[i] = v
	}
	s.IncludeDirs, s.IncludeFiles, s.SrcFiles, s.StaticLinked, s.StaticLinkedDirs =
		lists[0], lists[1], lists[2], lists[3], lists[4]

	if ignore, ok := doc.Section("ignore"); ok {
		var err error
		if _, ok := ignore.Get("dirs"); ok {
			if s.IgnoreDirs, err = doc.GetArray("ignore", "dirs"); err != nil {
				return ProjectSettings{}, err
			}
		}
		if _, ok := ignore.Get("files"); ok {
			if s.IgnoreFiles, err = doc.GetArray("ignore", "files"); err != nil {
				return ProjectSettings{}, err
			}
		}
	}

	var err error
	if s.Dependencies, err = doc.GetStringMap("dependencies"); err != nil {
		return ProjectSettings{}, err
	}
	if s.Extra, err = doc.GetStringMap("extra"); err != nil {
		return ProjectSettings{}, err
	}
	if s.Defines, err = doc.GetStringMap("defines"); err != nil {
		return ProjectSettings{}, err
	}

	if s.Metadata, err = loadMetadata(doc); err != nil {
		return ProjectSettings{}, err
	}

	s.BuildName = project.Name
	if v, ok, err := optionalString(doc, "build", "build_name"); err != nil {
		return ProjectSettings{}, err
	} else if ok && v != "" {
		s.BuildName = v
	}
	bt, _, err := optionalString(doc, "build", "build_type")
	if err != nil {
		return ProjectSettings{}, err
	}
	if s.BuildType, err = ParseBuildType(bt); err != nil {
		return ProjectSettings{}, err
	}

	if s.Configurations, err = loadConfigurations(doc); err != nil {
		return ProjectSettings{}, err
	}
	if s.Format, err = loadFormat(doc); err != nil {
		return ProjectSettings{}, err
	}
	return s, nil
}

func loadMetadata(doc *document.Document) (Metadata, error) {
	var m Metadata
	fields := []struct {
		key string
		dst *string
	}{
		{"version", &m.Version},
		{"description", &m.Description},
		{"license", &m.License},
		{"github_username", &m.GitHubUser},
		{"github_repo", &m.GitHubRepo},
	}
	for _, f := range fields {
		v, _, err := optionalString(doc, "metadata", f.key)
		if err != nil {
			return Metadata{}, err
		}
		*f.dst = v
	}

	t, ok := doc.Section("metadata")
	if !ok {
		return m, nil
	}
	switch v, _ := t.Get("authors"); a := v.(type) {
	case nil:
	case []any:
		m.Authors = document.Strings(a)
	case string:
		if a != "" {
			m.Authors = []string{a}
		}
	default:
		return Metadata{}, errs.New(errs.KindSchema, "[metadata] authors must be a string or an array")
	}
	return m, nil
}

func loadConfigurations(doc *document.Document) (map[string]Configuration, error) {
	out := map[string]Configuration{}
	t, ok := doc.Section("configurations")
	if !ok {
		return out, nil
	}
	for _, name := range t.Keys() {
		profile, ok := t.Table(name)
		if !ok {
			return nil, errs.New(errs.KindSchema, "[configurations] %q must be a table", name)
		}
		c := Configuration{Name: name}
		if v, ok := profile.Get("flags"); ok {
			arr, ok := v.([]any)
			if !ok {
				return nil, errs.New(errs.KindSchema, "[configurations.%s] flags must be an array", name)
			}
			c.Flags = document.Strings(arr)
		}
		if v, ok := profile.Get("output"); ok {
			s, ok := v.(string)
			if !ok {
				return nil, errs.New(errs.KindSchema, "[configurations.%s] output must be a string", name)
			}
			c.Output = s
		}
		out[name] = c
	}
	return out, nil
}

func loadFormat(doc *document.Document) (FormatOptions, error) {
	f := FormatOptions{Style: DefaultStyle}
	t, ok := doc.Section("format")
	if !ok {
		return f, nil
	}
	if v, ok, err := optionalString(doc, "format", "style"); err != nil {
		return FormatOptions{}, err
	} else if ok && v != "" {
		f.Style = v
	}
	if v, ok := t.Get("use_config_file"); ok {
		b, ok := v.(bool)
		if !ok {
			return FormatOptions{}, errs.New(errs.KindSchema, "[format] use_config_file must be a boolean")
		}
		f.UseConfigFile = b
	}
	v, _, err := optionalString(doc, "format", "config_file")
	if err != nil {
		return FormatOptions{}, err
	}
	f.ConfigFile = v
	return f, nil
}

func optionalString(doc *document.Document, section, key string) (string, bool, error) {
	t, ok := doc.Section(section)
	if !ok {
		return "", false, nil
	}
	v, ok := t.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, errs.New(errs.KindSchema, "[%s] %s must be a string", section, key)
	}
	return s, true, nil
}
