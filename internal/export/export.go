// Package export renders project settings for other tools: a CMake
// build, or a JSON/YAML dump of the resolved settings.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cppx/internal/config"
	"cppx/internal/errs"
	"cppx/internal/fsutil"
)

const CMakeFile = "CMakeLists.txt"

// Format is an export target.
type Format string

const (
	FormatCMake Format = "cmake"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCMake, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errs.New(errs.KindUnknownSetting, "unknown export format %q; use cmake, json or yaml", s)
	}
}

// Render produces the export body.
func Render(f Format, s config.ProjectSettings) ([]byte, error) {
	switch f {
	case FormatCMake:
		return CMake(s), nil
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, errs.Wrap(errs.KindSchema, err, "encode json")
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, errs.Wrap(errs.KindSchema, err, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errs.Wrap(errs.KindSchema, err, "encode yaml")
		}
		return buf.Bytes(), nil
	default:
		return nil, errs.New(errs.KindUnknownSetting, "unknown export format %q", f)
	}
}

// CMake renders a CMakeLists.txt equivalent to `cppx build`.
func CMake(s config.ProjectSettings) []byte {
	var b strings.Builder
	name := s.OutputName("")
	b.WriteString(fsutil.ManagedMarker + "\n")
	b.WriteString("cmake_minimum_required(VERSION 3.10)\n")
	fmt.Fprintf(&b, "project(%s)\n\n", cmakeQuote(s.Project.Name))
	b.WriteString("set(CMAKE_CXX_STANDARD 17)\n\n")

	if len(s.Dependencies) > 0 {
		b.WriteString("# Dependencies (installed with conan into ./vendor):\n")
		for _, k := range config.SortedKeys(s.Dependencies) {
			fmt.Fprintf(&b, "#   %s/%s\n", k, s.Dependencies[k])
		}
		b.WriteString("\n")
	}

	sources := cmakeList(s.SrcFiles)
	switch s.BuildType {
	case config.BuildDynamicLibrary:
		fmt.Fprintf(&b, "add_library(%s SHARED%s)\n", name, sources)
	case config.BuildStaticLibrary:
		fmt.Fprintf(&b, "add_library(%s STATIC%s)\n", name, sources)
	default:
		fmt.Fprintf(&b, "add_executable(%s%s)\n", name, sources)
	}
	if len(s.IncludeDirs) > 0 {
		fmt.Fprintf(&b, "target_include_directories(%s PRIVATE%s)\n", name, cmakeList(s.IncludeDirs))
	}
	if len(s.StaticLinkedDirs) > 0 {
		fmt.Fprintf(&b, "target_link_directories(%s PRIVATE%s)\n", name, cmakeList(s.StaticLinkedDirs))
	}
	if len(s.StaticLinked) > 0 {
		fmt.Fprintf(&b, "target_link_libraries(%s PRIVATE%s)\n", name, cmakeList(s.StaticLinked))
	}
	if len(s.Defines) > 0 {
		defs := make([]string, 0, len(s.Defines))
		for _, k := range config.SortedKeys(s.Defines) {
			if v := s.Defines[k]; v != "" {
				defs = append(defs, k+"="+v)
			} else {
				defs = append(defs, k)
			}
		}
		fmt.Fprintf(&b, "target_compile_definitions(%s PRIVATE%s)\n", name, cmakeList(defs))
	}
	return []byte(b.String())
}

func cmakeList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(" ")
		b.WriteString(cmakeQuote(filepath.ToSlash(it)))
	}
	return b.String()
}

func cmakeQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"();#$\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

// WriteCMake writes CMakeLists.txt into root. An existing file cppx did
// not generate is only replaced when force is set.
func WriteCMake(root string, s config.ProjectSettings, force bool) (string, error) {
	path := filepath.Join(root, CMakeFile)
	if data, err := os.ReadFile(path); err == nil {
		if !force && !fsutil.IsManagedFile(data) {
			return "", errs.New(errs.KindPath, "%s exists and was not generated by cppx; use --force to overwrite", path)
		}
	} else if !os.IsNotExist(err) {
		return "", errs.Wrap(errs.KindIO, err, "read %s", path)
	}
	if err := fsutil.AtomicWrite(path, CMake(s), 0o644); err != nil {
		return "", errs.Wrap(errs.KindIO, err, "write %s", path)
	}
	return path, nil
}
