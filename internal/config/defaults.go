package config

import "cppx/internal/document"

// Registry placeholders. A registry freshly written by cppx holds these
// until `project set` and `profile` fill them in; they count as unset.
const (
	PlaceholderName     = "no name"
	PlaceholderPath     = "no path"
	PlaceholderCompiler = "no compiler"
	PlaceholderVersion  = "no version"
)

// DefaultStyle is the clang-format style used when none is configured.
const DefaultStyle = "Microsoft"

// DefaultRegistry returns a registry document holding only placeholders.
func DefaultRegistry() *document.Document {
	doc := document.New()
	project, _ := doc.EnsureSection("project")
	project.Set("name", PlaceholderName)
	project.Set("path", PlaceholderPath)
	toolchain, _ := doc.EnsureSection("toolchain")
	toolchain.Set("compiler", PlaceholderCompiler)
	toolchain.Set("path", PlaceholderPath)
	toolchain.Set("version", PlaceholderVersion)
	return doc
}

// DefaultProjectDocument returns the config.toml written by `project new`.
func DefaultProjectDocument(name string) *document.Document {
	doc := document.New()
	doc.Root().Set("name", name)

	source, _ := doc.EnsureSection("source")
	source.Set("src files", []string{"src/main.cpp"})
	source.Set("include files", []string{"include/main.hpp"})
	source.Set("include directories", []string{"include"})
	source.Set("static_linked", []string{})
	source.Set("static_linked_dirs", []string{})

	_, _ = doc.EnsureSection("dependencies")

	ignore, _ := doc.EnsureSection("ignore")
	ignore.Set("files", []string{})
	ignore.Set("dirs", []string{})

	build, _ := doc.EnsureSection("build")
	build.Set("build_name", name)
	build.Set("build_type", BuildExecutable.String())
	return doc
}
