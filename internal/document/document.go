// Package document is cppx's in-memory model of a TOML configuration file.
//
// A Document keeps key order from the file it was parsed from, so a
// mutation that touches one array rewrites the file with every other
// section where the user left it.
package document

import (
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"cppx/internal/errs"
	"cppx/internal/fsutil"
	"cppx/internal/logging"
)

// Document is a parsed configuration file.
type Document struct {
	root     *Table
	checksum uint64
	log      *log.Logger
}

// New returns an empty document.
func New() *Document {
	return &Document{root: NewTable()}
}

// Root returns the top-level table.
func (d *Document) Root() *Table { return d.root }

// SetLogger sets the logger Save warns on. A nil logger discards.
func (d *Document) SetLogger(l *log.Logger) { d.log = l }

// Checksum is the xxhash of the bytes the document was parsed from, or 0.
func (d *Document) Checksum() uint64 { return d.checksum }

// Parse decodes TOML data.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, errs.New(errs.KindParse, "line %d: %s", perr.Position.Line, perr.Message)
		}
		return nil, errs.Wrap(errs.KindParse, err, "")
	}
	order := newKeyOrder()
	for _, k := range md.Keys() {
		order.add(k)
	}
	return &Document{
		root:     fromMap(raw, order, nil),
		checksum: fsutil.Checksum(data),
	}, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, err, "read %s", path)
	}
	doc, err := Parse(data)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			e.Msg = path + ": " + e.Msg
		}
		return nil, err
	}
	return doc, nil
}

// Save encodes the document and atomically replaces path. When the file
// changed on disk since it was loaded, the write still happens and a
// warning is logged.
func (d *Document) Save(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if d.checksum != 0 {
		if sum, ok, err := fsutil.FileChecksum(path); err == nil && ok && sum != d.checksum {
			logging.OrDiscard(d.log).Warn("file changed on disk since it was loaded; overwriting", "path", path)
		}
	}
	if err := fsutil.AtomicWrite(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindIO, err, "write %s", path)
	}
	d.checksum = fsutil.Checksum(data)
	return nil
}

// Section returns the top-level table name.
func (d *Document) Section(name string) (*Table, bool) {
	return d.root.Table(name)
}

// EnsureSection returns the top-level table name, creating it if needed.
func (d *Document) EnsureSection(name string) (*Table, error) {
	return d.root.EnsureTable(name)
}

// GetArray returns the string elements of section.key. Non-string
// elements are skipped.
func (d *Document) GetArray(section, key string) ([]string, error) {
	t, ok := d.Section(section)
	if !ok {
		return nil, errs.New(errs.KindSchema, "missing [%s] section", section)
	}
	v, ok := t.Get(key)
	if !ok {
		return nil, errs.New(errs.KindSchema, "missing %q in [%s]", key, section)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, errs.New(errs.KindSchema, "%q in [%s] must be an array, got %s", key, section, typeName(v))
	}
	return Strings(arr), nil
}

// GetString returns section.key when it holds a string.
func (d *Document) GetString(section, key string) (string, bool) {
	t, ok := d.Section(section)
	if !ok {
		return "", false
	}
	v, ok := t.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetStringMap returns every key of section as a string map. An absent
// section is an empty map; a non-string value is a schema error.
func (d *Document) GetStringMap(section string) (map[string]string, error) {
	out := map[string]string{}
	t, ok := d.Section(section)
	if !ok {
		return out, nil
	}
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		s, ok := v.(string)
		if !ok {
			return nil, errs.New(errs.KindSchema, "[%s] %q must be a string, got %s", section, k, typeName(v))
		}
		out[k] = s
	}
	return out, nil
}

// Strings returns the string elements of arr in order.
func Strings(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

type keyOrder struct {
	children map[string][]string
	seen     map[string]bool
}

func newKeyOrder() *keyOrder {
	return &keyOrder{children: map[string][]string{}, seen: map[string]bool{}}
}

// add records k and every prefix of it, so implicit parents such as
// "configurations" in [configurations.debug] keep their position.
func (o *keyOrder) add(k toml.Key) {
	for i := 1; i <= len(k); i++ {
		parent := strings.Join(k[:i-1], "\x00")
		id := parent + "\x01" + k[i-1]
		if o.seen[id] {
			continue
		}
		o.seen[id] = true
		o.children[parent] = append(o.children[parent], k[i-1])
	}
}

func (o *keyOrder) of(path []string) []string {
	if o == nil {
		return nil
	}
	return o.children[strings.Join(path, "\x00")]
}

// fromMap rebuilds an ordered table from decoded data. Keys the decoder
// reported come first in file order; anything else follows sorted.
func fromMap(m map[string]any, order *keyOrder, path []string) *Table {
	t := NewTable()
	placed := map[string]bool{}
	for _, k := range order.of(path) {
		if v, ok := m[k]; ok && !placed[k] {
			placed[k] = true
			t.Set(k, convert(v, order, child(path, k)))
		}
	}
	var rest []string
	for k := range m {
		if !placed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		t.Set(k, convert(m[k], order, child(path, k)))
	}
	return t
}

func convert(v any, order *keyOrder, path []string) any {
	switch x := v.(type) {
	case map[string]any:
		return fromMap(x, order, path)
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = fromMap(m, order, path)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = convert(el, order, path)
		}
		return out
	}
	return v
}

func child(path []string, k string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = k
	return out
}
