package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	RegistryFile = ".cppxglobal.toml"
	DocFile      = "config.toml"
	LockFile     = "cppx.lock"
	stateDir     = ".cppx"
	auditFile    = "audit.log"

	maxAncestorSearch = 50
)

// DefaultRegistryPath is $CPPX_REGISTRY, else ~/.cppxglobal.toml.
func DefaultRegistryPath() string {
	if p := strings.TrimSpace(os.Getenv("CPPX_REGISTRY")); p != "" {
		if expanded, err := ExpandPath(p); err == nil {
			return expanded
		}
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return RegistryFile
	}
	return filepath.Join(home, RegistryFile)
}

// ProjectDocPath returns <root>/config.toml.
func ProjectDocPath(root string) string {
	return filepath.Join(root, DocFile)
}

// ProjectLockPath returns <root>/cppx.lock.
func ProjectLockPath(root string) string {
	return filepath.Join(root, LockFile)
}

// AuditLogPath returns <root>/.cppx/audit.log.
func AuditLogPath(root string) string {
	return filepath.Join(root, stateDir, auditFile)
}

// FindProjectRoot walks up from startDir looking for config.toml.
func FindProjectRoot(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for i := 0; i < maxAncestorSearch; i++ {
		if st, err := os.Stat(filepath.Join(dir, DocFile)); err == nil && st.Mode().IsRegular() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
