// Package doctor checks that the current project can be built: the
// registry resolves, the project document loads, and the external tools
// cppx drives are on PATH.
package doctor

import (
	"context"
	"os"
	"strings"

	"golang.org/x/mod/semver"

	"cppx/internal/config"
	"cppx/internal/document"
	"cppx/internal/errs"
	"cppx/internal/store"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy  bool      `json:"healthy"`
	Project  string    `json:"project,omitempty"`
	Findings []Finding `json:"findings"`
	Tools    []string  `json:"tools,omitempty"`
}

// Tools are the external programs cppx may invoke besides the compiler.
var Tools = []string{"conan", "doxygen", "clang-format", "ar"}

type Service struct {
	RegistryPath string
	LookPath     func(string) (string, error)
}

func (s *Service) Run(_ context.Context) Report {
	var findings []Finding
	add := func(code, level, msg string) {
		findings = append(findings, Finding{Code: code, Level: level, Message: msg})
	}
	report := Report{}

	for _, tool := range Tools {
		if s.LookPath == nil {
			break
		}
		if path, err := s.LookPath(tool); err != nil {
			add("TOOL_MISSING", "warn", tool+" not found on PATH")
		} else {
			report.Tools = append(report.Tools, tool+"="+path)
		}
	}

	project, err := config.LoadCurrentProject(s.RegistryPath)
	if err != nil {
		add(string(kindOr(err, errs.KindNotConfigured)), "error", err.Error())
		return finish(report, findings)
	}
	report.Project = project.Name

	if _, err := os.Stat(project.Toolchain.Path); err != nil {
		add("TOOLCHAIN_MISSING", "error", "compiler "+project.Toolchain.Path+" is not accessible; run 'cppx profile'")
	}

	doc, err := document.Load(project.DocPath())
	if err != nil {
		add(string(kindOr(err, errs.KindIO)), "error", err.Error())
		return finish(report, findings)
	}
	settings, err := config.LoadSettings(doc, project)
	if err != nil {
		add(string(kindOr(err, errs.KindSchema)), "error", err.Error())
		return finish(report, findings)
	}
	for _, p := range config.Problems(settings) {
		add("PRJ_PATH_MISSING", "warn", p)
	}

	if v := settings.Metadata.Version; v != "" {
		canonical := v
		if !strings.HasPrefix(canonical, "v") {
			canonical = "v" + canonical
		}
		if !semver.IsValid(canonical) {
			add("MTD_VERSION", "warn", "metadata version "+v+" is not a semantic version")
		}
	}

	lock, err := store.LoadLockfile(config.ProjectLockPath(project.Path))
	if err != nil {
		add(string(kindOr(err, errs.KindParse)), "error", err.Error())
	} else {
		for _, name := range config.SortedKeys(settings.Dependencies) {
			if _, ok, _ := lock.Lookup(name); !ok {
				add("PKG_UNLOCKED", "warn", "dependency "+name+" has no cppx.lock entry; reinstall it with 'cppx pkg install'")
			}
		}
	}
	return finish(report, findings)
}

func kindOr(err error, fallback errs.Kind) errs.Kind {
	if k := errs.KindOf(err); k != "" {
		return k
	}
	return fallback
}

func finish(r Report, findings []Finding) Report {
	if findings == nil {
		findings = []Finding{}
	}
	r.Findings = findings
	r.Healthy = true
	for _, f := range findings {
		if f.Level == "error" {
			r.Healthy = false
			break
		}
	}
	return r
}
