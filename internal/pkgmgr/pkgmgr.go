// Package pkgmgr drives conan to install and remove dependencies and reads
// back what an install produced.
package pkgmgr

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"cppx/internal/config"
	"cppx/internal/errs"
	"cppx/internal/logging"
	"cppx/internal/runner"
)

const (
	VendorDir  = "vendor"
	InstallLog = "install_log.json"
)

// Manager runs conan against one project's vendor directory.
type Manager struct {
	Root   string
	Vendor string
	Runner runner.Runner
	Log    *log.Logger
}

// New returns a Manager that installs into <root>/vendor.
func New(root string, r runner.Runner, l *log.Logger) *Manager {
	return &Manager{
		Root:   root,
		Vendor: filepath.Join(root, VendorDir),
		Runner: r,
		Log:    logging.OrDiscard(l),
	}
}

// LogPath is where conan writes its JSON install report.
func (m *Manager) LogPath() string {
	return filepath.Join(m.Vendor, InstallLog)
}

// SplitRef splits "name/version".
func SplitRef(ref string) (string, string, error) {
	name, version, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || name == "" || version == "" || strings.Contains(version, "/") {
		return "", "", errs.New(errs.KindSchema, "invalid package reference %q; use name/version", ref)
	}
	return name, version, nil
}

// Install runs conan install for ref and returns the paths it produced.
func (m *Manager) Install(ctx context.Context, ref string) (config.PackageInfo, error) {
	name, _, err := SplitRef(ref)
	if err != nil {
		return config.PackageInfo{}, err
	}
	if err := os.MkdirAll(m.Vendor, 0o755); err != nil {
		return config.PackageInfo{}, errs.Wrap(errs.KindIO, err, "create vendor dir")
	}
	m.Log.Info("installing", "ref", ref)
	err = m.Runner.Run(ctx, runner.Cmd{
		Name: "conan",
		Args: []string{
			"install",
			"--requires", ref,
			"--build", "missing",
			"-of", m.Vendor,
			"-f", "json",
			"--out-file", m.LogPath(),
		},
		Dir: m.Root,
	})
	if err != nil {
		return config.PackageInfo{}, err
	}
	info, ok, err := m.Lookup(name)
	if err != nil {
		return config.PackageInfo{}, err
	}
	if !ok {
		return config.PackageInfo{}, errs.New(errs.KindProcess, "conan reported success but %s has no entry for %q", m.LogPath(), name)
	}
	m.Log.Debug("installed", "ref", info.Ref, "libs", info.Libs)
	return info, nil
}

// Remove deletes ref from the conan cache and its vendor folder.
func (m *Manager) Remove(ctx context.Context, ref string) error {
	if _, _, err := SplitRef(ref); err != nil {
		return err
	}
	m.Log.Info("removing", "ref", ref)
	if err := m.Runner.Run(ctx, runner.Cmd{Name: "conan", Args: []string{"remove", ref, "-c"}, Dir: m.Root}); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(m.Vendor, filepath.FromSlash(ref))); err != nil {
		return errs.Wrap(errs.KindIO, err, "remove vendor folder")
	}
	return nil
}

// Lookup finds name in the install log. A missing log means nothing is
// installed.
func (m *Manager) Lookup(name string) (config.PackageInfo, bool, error) {
	data, err := os.ReadFile(m.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return config.PackageInfo{}, false, nil
		}
		return config.PackageInfo{}, false, errs.Wrap(errs.KindIO, err, "read install log")
	}
	if !gjson.ValidBytes(data) {
		return config.PackageInfo{}, false, errs.New(errs.KindParse, "%s is not valid JSON", m.LogPath())
	}
	info, ok := ParseInstallLog(data, name, m.Vendor)
	return info, ok, nil
}

// ParseInstallLog extracts the first graph node whose ref starts with
// name. Relative directories are resolved against base.
func ParseInstallLog(data []byte, name, base string) (config.PackageInfo, bool) {
	var (
		info  config.PackageInfo
		found bool
	)
	gjson.GetBytes(data, "graph.nodes").ForEach(func(_, node gjson.Result) bool {
		ref := node.Get("ref").String()
		if ref != name && !strings.HasPrefix(ref, name+"/") {
			return true
		}
		found = true
		info.Ref = strings.SplitN(ref, "#", 2)[0]

		root := node.Get("cpp_info.root")
		info.IncludeDirs = resolveAll(strs(root.Get("includedirs")), base)
		info.LibDirs = resolveAll(strs(root.Get("libdirs")), base)
		info.Libs = strs(root.Get("libs"))
		if len(info.Libs) == 0 {
			node.Get("cpp_info").ForEach(func(key, comp gjson.Result) bool {
				if key.String() == "root" {
					return true
				}
				if libs := strs(comp.Get("libs")); len(libs) > 0 {
					info.Libs = libs
					if len(info.LibDirs) == 0 {
						info.LibDirs = resolveAll(strs(comp.Get("libdirs")), base)
					}
					return false
				}
				return true
			})
		}
		return false
	})
	return info, found
}

func strs(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	var out []string
	for _, v := range r.Array() {
		if v.Type == gjson.String {
			out = append(out, v.String())
		}
	}
	return out
}

func resolveAll(dirs []string, base string) []string {
	for i, d := range dirs {
		if !filepath.IsAbs(d) {
			dirs[i] = filepath.Join(base, d)
		}
	}
	return dirs
}
