// Package scaffold creates the directory layout for a new project.
package scaffold

import (
	"os"
	"path/filepath"
	"strings"

	"cppx/internal/config"
	"cppx/internal/errs"
	"cppx/internal/fsutil"
)

const mainSource = `#include <main.hpp>

int main()
{
    print_hello();
    return 0;
}
`

const mainHeader = `#pragma once
#include <iostream>

/**
 * @brief Prints a greeting to standard output.
 */
inline void print_hello()
{
    std::cout << "Hello, world!\n";
}
`

const mainTest = `#include <cassert>
#include <main.hpp>

int main()
{
    // Placeholder; swap in GoogleTest or Catch2 for real suites.
    print_hello();
    assert(true);
    return 0;
}
`

const gitignore = `# Build artifacts
build/
*.o
*.a
*.so
*.dll
*.exe

# Doxygen output
docs/

# Dependencies installed by conan
vendor/

# cppx state
.cppx/

# Editors
.vscode/
.idea/
*.suo
*.user
`

// Files maps each scaffolded file to its contents.
var Files = map[string]string{
	"src/main.cpp":        mainSource,
	"include/main.hpp":    mainHeader,
	"tests/main.test.cpp": mainTest,
	".gitignore":          gitignore,
}

// Create makes <parent>/<name> with a hello-world project and its
// config.toml. It refuses to write into a non-empty directory.
func Create(parent, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errs.New(errs.KindSchema, "invalid project name %q", name)
	}
	root, err := filepath.Abs(filepath.Join(parent, name))
	if err != nil {
		return "", errs.Wrap(errs.KindPath, err, "resolve %s", name)
	}
	if entries, err := os.ReadDir(root); err == nil && len(entries) > 0 {
		return "", errs.New(errs.KindPath, "%s already exists and is not empty", root)
	}

	for rel, body := range Files {
		if err := fsutil.AtomicWrite(filepath.Join(root, filepath.FromSlash(rel)), []byte(body), 0o644); err != nil {
			return "", errs.Wrap(errs.KindIO, err, "write %s", rel)
		}
	}
	if err := config.DefaultProjectDocument(name).Save(config.ProjectDocPath(root)); err != nil {
		return "", err
	}
	return root, nil
}
