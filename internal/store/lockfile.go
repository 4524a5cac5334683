// Package store persists cppx.lock, the record of what each installed
// dependency contributed to the project document.
package store

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"

	"cppx/internal/config"
	"cppx/internal/errs"
	"cppx/internal/fsutil"
)

const LockVersion = 1

type Lockfile struct {
	Version  int           `toml:"version"`
	Packages []LockPackage `toml:"packages"`
}

type LockPackage struct {
	Name        string    `toml:"name"`
	Version     string    `toml:"version"`
	Ref         string    `toml:"ref"`
	Libs        []string  `toml:"libs"`
	IncludeDirs []string  `toml:"include_dirs"`
	LibDirs     []string  `toml:"lib_dirs"`
	InstalledAt time.Time `toml:"installed_at"`
}

// Info returns the install paths recorded for p.
func (p LockPackage) Info() config.PackageInfo {
	return config.PackageInfo{Ref: p.Ref, Libs: p.Libs, IncludeDirs: p.IncludeDirs, LibDirs: p.LibDirs}
}

func LoadLockfile(path string) (Lockfile, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Lockfile{Version: LockVersion}, nil
		}
		return Lockfile{}, errs.Wrap(errs.KindIO, err, "read lockfile")
	}
	var lock Lockfile
	if err := toml.Unmarshal(blob, &lock); err != nil {
		return Lockfile{}, errs.Wrap(errs.KindParse, err, "lockfile %s", path)
	}
	if lock.Version == 0 {
		lock.Version = LockVersion
	}
	if lock.Version != LockVersion {
		return Lockfile{}, errs.New(errs.KindSchema, "unsupported lockfile version %d", lock.Version)
	}
	seen := map[string]struct{}{}
	for _, p := range lock.Packages {
		if p.Name == "" {
			return Lockfile{}, errs.New(errs.KindSchema, "lockfile entry missing name")
		}
		if _, ok := seen[p.Name]; ok {
			return Lockfile{}, errs.New(errs.KindSchema, "duplicate lockfile entry %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return lock, nil
}

func SaveLockfile(path string, lock Lockfile) error {
	lock.Version = LockVersion
	sortPackages(lock.Packages)
	blob, err := toml.Marshal(lock)
	if err != nil {
		return errs.Wrap(errs.KindSchema, err, "encode lockfile")
	}
	if err := fsutil.AtomicWrite(path, blob, 0o644); err != nil {
		return errs.Wrap(errs.KindIO, err, "write lockfile")
	}
	return nil
}

// sortPackages orders by name, then by semantic version when both
// versions parse, falling back to plain string order.
func sortPackages(pkgs []LockPackage) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].Name != pkgs[j].Name {
			return pkgs[i].Name < pkgs[j].Name
		}
		vi, vj := canonical(pkgs[i].Version), canonical(pkgs[j].Version)
		if semver.IsValid(vi) && semver.IsValid(vj) {
			return semver.Compare(vi, vj) < 0
		}
		return pkgs[i].Version < pkgs[j].Version
	})
}

func canonical(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

func UpsertLock(lock *Lockfile, rec LockPackage) {
	for i := range lock.Packages {
		if lock.Packages[i].Name == rec.Name {
			lock.Packages[i] = rec
			return
		}
	}
	lock.Packages = append(lock.Packages, rec)
}

func RemoveLock(lock *Lockfile, name string) bool {
	for i := range lock.Packages {
		if lock.Packages[i].Name == name {
			lock.Packages = append(lock.Packages[:i], lock.Packages[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup makes a Lockfile usable as a config.InstallLookup.
func (l Lockfile) Lookup(name string) (config.PackageInfo, bool, error) {
	for _, p := range l.Packages {
		if p.Name == name {
			return p.Info(), true, nil
		}
	}
	return config.PackageInfo{}, false, nil
}
