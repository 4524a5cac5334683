package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppx/internal/errs"
)

const sample = `name = "demo"

[source]
"include directories" = ["include"]
"include files" = ["include/main.hpp"]
"src files" = ["src/main.cpp", 3]
static_linked = []
static_linked_dirs = []

[dependencies]
fmt = "10.2.1"

[configurations.debug]
flags = ["-O0"]
output = "demo-dbg"

[build]
build_type = "executable"
`

func TestParseKeepsOrder(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "source", "dependencies", "configurations", "build"}, doc.Root().Keys())
	src, ok := doc.Section("source")
	require.True(t, ok)
	assert.Equal(t, []string{"include directories", "include files", "src files", "static_linked", "static_linked_dirs"}, src.Keys())
	assert.NotZero(t, doc.Checksum())
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte("[source\nx = 1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrParse)
	assert.Contains(t, err.Error(), "line ")
}

func TestGetArraySkipsNonStrings(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	files, err := doc.GetArray("source", "src files")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.cpp"}, files)
}

func TestGetArraySchemaErrors(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	_, err = doc.GetArray("missing", "x")
	assert.ErrorIs(t, err, errs.ErrSchema)
	_, err = doc.GetArray("source", "nope")
	assert.ErrorIs(t, err, errs.ErrSchema)
	_, err = doc.GetArray("build", "build_type")
	assert.ErrorIs(t, err, errs.ErrSchema)
}

func TestGetStringMap(t *testing.T) {
	doc, err := Parse([]byte(sample + "\n[defines]\nDEBUG = 1\n"))
	require.NoError(t, err)

	deps, err := doc.GetStringMap("dependencies")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"fmt": "10.2.1"}, deps)

	empty, err := doc.GetStringMap("extra")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = doc.GetStringMap("defines")
	assert.ErrorIs(t, err, errs.ErrSchema)
}

func TestEncodeRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	first, err := doc.Encode()
	require.NoError(t, err)
	again, err := Parse(first)
	require.NoError(t, err)
	second, err := again.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	files, err := again.GetArray("source", "include directories")
	require.NoError(t, err)
	assert.Equal(t, []string{"include"}, files)
	out, ok := again.GetString("configurations", "output")
	assert.False(t, ok, "nested profile must not leak into parent: %q", out)
	cfg, ok := again.Section("configurations")
	require.True(t, ok)
	debug, ok := cfg.Table("debug")
	require.True(t, ok)
	v, _ := debug.Get("output")
	assert.Equal(t, "demo-dbg", v)
}

func TestEncodeArrayOfTables(t *testing.T) {
	doc, err := Parse([]byte("[[target]]\nname = \"a\"\n\n[[target]]\nname = \"b\"\n"))
	require.NoError(t, err)

	data, err := doc.Encode()
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)
	v, ok := back.Root().Get("target")
	require.True(t, ok)
	arr := v.([]any)
	require.Len(t, arr, 2)
	name, _ := arr[1].(*Table).Get("name")
	assert.Equal(t, "b", name)
}

func TestEncodeKeepsTablesInMixedArrays(t *testing.T) {
	doc, err := Parse([]byte("[source]\nx = [\"a\", {k = \"v\", n = 2}]\n"))
	require.NoError(t, err)

	data, err := doc.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "{}")

	back, err := Parse(data)
	require.NoError(t, err)
	src, ok := back.Section("source")
	require.True(t, ok)
	v, ok := src.Get("x")
	require.True(t, ok)
	arr := v.([]any)
	require.Len(t, arr, 2)
	assert.Equal(t, "a", arr[0])
	inline, ok := arr[1].(*Table)
	require.True(t, ok)
	k, _ := inline.Get("k")
	n, _ := inline.Get("n")
	assert.Equal(t, "v", k)
	assert.Equal(t, int64(2), n)
}

func TestEncodeKeepsLocalDateTimes(t *testing.T) {
	in := "[metadata]\n" +
		"released = 2024-01-02\n" +
		"at = 07:30:00\n" +
		"stamp = 2024-01-02T07:30:00\n" +
		"when = 2024-01-02T07:30:00Z\n"
	doc, err := Parse([]byte(in))
	require.NoError(t, err)

	data, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, in, string(data))
}

func TestEncodeEmptySectionSurvives(t *testing.T) {
	doc := New()
	_, err := doc.EnsureSection("dependencies")
	require.NoError(t, err)

	data, err := doc.Encode()
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)
	_, ok := back.Section("dependencies")
	assert.True(t, ok)
}

func TestEnsureSectionOnScalar(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)
	_, err = doc.EnsureSection("name")
	assert.ErrorIs(t, err, errs.ErrSchema)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	_, err = doc.AddUnique("source", "src files", "src/util.cpp")
	require.NoError(t, err)
	require.NoError(t, doc.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	files, err := loaded.GetArray("source", "src files")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.cpp", "src/util.cpp"}, files)
	assert.Equal(t, loaded.Checksum(), doc.Checksum())
}

func TestSaveOverwritesExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	var logs bytes.Buffer
	doc.SetLogger(log.New(&logs))
	require.NoError(t, os.WriteFile(path, []byte(sample+"\n[extra]\ncompiler = \"gcc\"\n"), 0o644))

	require.NoError(t, doc.Save(path))
	assert.Contains(t, logs.String(), "changed on disk")
	back, err := Load(path)
	require.NoError(t, err)
	_, ok := back.Section("extra")
	assert.False(t, ok)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTableSetKeepsPosition(t *testing.T) {
	tbl := NewTable()
	tbl.Set("a", 1)
	tbl.Set("b", []string{"x"})
	tbl.Set("a", 2)

	assert.Equal(t, []string{"a", "b"}, tbl.Keys())
	v, _ := tbl.Get("a")
	assert.Equal(t, int64(2), v)
	v, _ = tbl.Get("b")
	assert.Equal(t, []any{"x"}, v)

	assert.True(t, tbl.Delete("a"))
	assert.False(t, tbl.Delete("a"))
	assert.Equal(t, []string{"b"}, tbl.Keys())
}
