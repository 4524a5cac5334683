package document

import (
	"time"

	"cppx/internal/errs"
)

// Table is an ordered TOML table. Keys keep the position they were first
// inserted at; replacing a value does not move it.
type Table struct {
	keys   []string
	values map[string]any
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: map[string]any{}}
}

// Keys returns the keys in document order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Table) Len() int { return len(t.keys) }

func (t *Table) Get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Set stores v under key. []string and int values are normalized to the
// decoded forms ([]any, int64).
func (t *Table) Set(key string, v any) {
	v = normalize(v)
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Delete removes key and reports whether it was present.
func (t *Table) Delete(key string) bool {
	if _, ok := t.values[key]; !ok {
		return false
	}
	delete(t.values, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// Table returns the nested table stored at key.
func (t *Table) Table(key string) (*Table, bool) {
	v, ok := t.values[key]
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Table)
	return sub, ok
}

// EnsureTable returns the nested table at key, creating it when absent.
func (t *Table) EnsureTable(key string) (*Table, error) {
	v, ok := t.values[key]
	if !ok {
		sub := NewTable()
		t.Set(key, sub)
		return sub, nil
	}
	sub, ok := v.(*Table)
	if !ok {
		return nil, errs.New(errs.KindSchema, "%q is a %s, not a table", key, typeName(v))
	}
	return sub, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case map[string]any:
		return fromMap(x, nil, nil)
	}
	return v
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int64:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case time.Time:
		return "datetime"
	case []any:
		return "array"
	case *Table:
		return "table"
	default:
		return "value"
	}
}
