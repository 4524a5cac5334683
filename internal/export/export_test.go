package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"cppx/internal/config"
	"cppx/internal/errs"
)

func sample() config.ProjectSettings {
	return config.ProjectSettings{
		Project:          config.ProjectConfig{Name: "demo", Path: "/p"},
		IncludeDirs:      []string{"include"},
		SrcFiles:         []string{"src/main.cpp", "src/my file.cpp"},
		StaticLinked:     []string{"fmt"},
		StaticLinkedDirs: []string{"vendor/lib"},
		Dependencies:     map[string]string{"fmt": "10.2.1"},
		Defines:          map[string]string{"DEBUG": "1"},
		BuildName:        "demo",
		BuildType:        config.BuildExecutable,
	}
}

func TestCMake(t *testing.T) {
	out := string(CMake(sample()))
	assert.Contains(t, out, "# cppx:managed\n")
	assert.Contains(t, out, "project(demo)\n")
	assert.Contains(t, out, "#   fmt/10.2.1\n")
	assert.Contains(t, out, `add_executable(demo src/main.cpp "src/my file.cpp")`)
	assert.Contains(t, out, "target_include_directories(demo PRIVATE include)")
	assert.Contains(t, out, "target_link_directories(demo PRIVATE vendor/lib)")
	assert.Contains(t, out, "target_link_libraries(demo PRIVATE fmt)")
	assert.Contains(t, out, "target_compile_definitions(demo PRIVATE DEBUG=1)")
}

func TestCMakeLibraries(t *testing.T) {
	s := sample()
	s.BuildType = config.BuildStaticLibrary
	assert.Contains(t, string(CMake(s)), "add_library(demo STATIC")
	s.BuildType = config.BuildDynamicLibrary
	assert.Contains(t, string(CMake(s)), "add_library(demo SHARED")
}

func TestRenderJSONAndYAML(t *testing.T) {
	data, err := Render(FormatJSON, sample())
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "executable", decoded["build_type"])
	assert.Equal(t, map[string]any{"fmt": "10.2.1"}, decoded["dependencies"])

	data, err = Render(FormatYAML, sample())
	require.NoError(t, err)
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(data, &y))
	assert.Equal(t, "executable", y["build_type"])
	assert.Equal(t, []any{"src/main.cpp", "src/my file.cpp"}, y["src_files"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("bazel")
	assert.ErrorIs(t, err, errs.ErrUnknownSetting)
}

func TestWriteCMakeRefusesUnmanaged(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, CMakeFile)
	require.NoError(t, os.WriteFile(path, []byte("project(handwritten)\n"), 0o644))

	_, err := WriteCMake(root, sample(), false)
	assert.ErrorIs(t, err, errs.ErrPath)

	_, err = WriteCMake(root, sample(), true)
	require.NoError(t, err)

	_, err = WriteCMake(root, sample(), false)
	require.NoError(t, err, "managed file may be regenerated")
}
