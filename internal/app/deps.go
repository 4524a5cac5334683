package app

import (
	"context"
	"strings"
	"time"

	"cppx/internal/config"
	"cppx/internal/document"
	"cppx/internal/errs"
	"cppx/internal/pkgmgr"
	"cppx/internal/store"
)

func (s *Service) packages(pc config.ProjectConfig) *pkgmgr.Manager {
	return pkgmgr.New(pc.Path, s.Runner, s.Log.WithPrefix("pkg"))
}

// InstallPackage installs name/version with conan, merges its paths into
// the project document and records them in the lockfile.
func (s *Service) InstallPackage(ctx context.Context, name, version string) (config.DependencyChange, error) {
	name, version = strings.TrimSpace(name), strings.TrimSpace(version)
	if name == "" || version == "" {
		return config.DependencyChange{}, errs.New(errs.KindSchema, "package name and version are required")
	}
	pc, err := s.Current()
	if err != nil {
		return config.DependencyChange{}, err
	}
	ref := name + "/" + version
	info, err := s.packages(pc).Install(ctx, ref)
	if err != nil {
		s.record(pc, "pkg.install", err, map[string]string{"ref": ref})
		return config.DependencyChange{}, err
	}

	var change config.DependencyChange
	_, err = s.mutate("pkg.install", map[string]string{"ref": ref}, func(_ config.ProjectConfig, doc *document.Document) error {
		var err error
		change, err = config.AddDependency(doc, name, version, info)
		return err
	})
	if err != nil {
		return config.DependencyChange{}, err
	}
	if err := s.updateLock(pc, func(lock *store.Lockfile) {
		store.UpsertLock(lock, store.LockPackage{
			Name:        name,
			Version:     version,
			Ref:         info.Ref,
			Libs:        info.Libs,
			IncludeDirs: info.IncludeDirs,
			LibDirs:     info.LibDirs,
			InstalledAt: time.Now().UTC(),
		})
	}); err != nil {
		return change, err
	}
	return change, nil
}

// RemovePackage uninstalls name and strips the paths its install added.
// name may carry a version ("fmt/10.2.1"); only the name part is used.
func (s *Service) RemovePackage(ctx context.Context, name string) (config.PackageInfo, error) {
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return config.PackageInfo{}, errs.New(errs.KindSchema, "package name is required")
	}
	pc, err := s.Current()
	if err != nil {
		return config.PackageInfo{}, err
	}
	lock, err := store.LoadLockfile(config.ProjectLockPath(pc.Path))
	if err != nil {
		return config.PackageInfo{}, err
	}
	mgr := s.packages(pc)
	lookup := chainLookup{mgr, lock}

	info, ok, err := lookup.Lookup(name)
	if err != nil {
		return config.PackageInfo{}, err
	}
	if !ok {
		err := errs.New(errs.KindNotInstalled, "package %q is not installed", name)
		s.record(pc, "pkg.remove", err, map[string]string{"name": name})
		return config.PackageInfo{}, err
	}
	if info.Ref == "" {
		info.Ref = s.recordedRef(pc, name)
	}
	if err := mgr.Remove(ctx, info.Ref); err != nil {
		s.record(pc, "pkg.remove", err, map[string]string{"name": name})
		return config.PackageInfo{}, err
	}

	_, err = s.mutate("pkg.remove", map[string]string{"name": name, "ref": info.Ref}, func(_ config.ProjectConfig, doc *document.Document) error {
		_, err := config.RemoveDependency(doc, name, lookup)
		return err
	})
	if err != nil {
		return config.PackageInfo{}, err
	}
	if err := s.updateLock(pc, func(lock *store.Lockfile) { store.RemoveLock(lock, name) }); err != nil {
		return info, err
	}
	return info, nil
}

// Lookup reports whether name is installed in the current project,
// consulting the install log first and the lockfile second.
func (s *Service) Lookup(name string) (config.PackageInfo, bool, error) {
	pc, err := s.Current()
	if err != nil {
		return config.PackageInfo{}, false, err
	}
	lock, err := store.LoadLockfile(config.ProjectLockPath(pc.Path))
	if err != nil {
		return config.PackageInfo{}, false, err
	}
	return chainLookup{s.packages(pc), lock}.Lookup(name)
}

// recordedRef rebuilds name/version from [dependencies].
func (s *Service) recordedRef(pc config.ProjectConfig, name string) string {
	doc, err := document.Load(pc.DocPath())
	if err != nil {
		return name
	}
	if v, ok := doc.GetString("dependencies", name); ok && v != "" {
		return name + "/" + v
	}
	return name
}

func (s *Service) updateLock(pc config.ProjectConfig, fn func(*store.Lockfile)) error {
	path := config.ProjectLockPath(pc.Path)
	lock, err := store.LoadLockfile(path)
	if err != nil {
		return err
	}
	fn(&lock)
	return store.SaveLockfile(path, lock)
}

// chainLookup returns the first hit among its lookups.
type chainLookup []config.InstallLookup

func (c chainLookup) Lookup(name string) (config.PackageInfo, bool, error) {
	for _, l := range c {
		info, ok, err := l.Lookup(name)
		if err != nil {
			return config.PackageInfo{}, false, err
		}
		if ok {
			return info, true, nil
		}
	}
	return config.PackageInfo{}, false, nil
}
