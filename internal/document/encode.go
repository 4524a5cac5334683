package document

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"

	"cppx/internal/errs"
)

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Encode renders the document as TOML. Output is deterministic for a given
// document: root values first, then each section in document order.
func (d *Document) Encode() ([]byte, error) {
	var b bytes.Buffer
	if err := encodeTable(&b, d.root, nil, false); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func encodeTable(b *bytes.Buffer, t *Table, path []string, arrayElem bool) error {
	var plain, nested []string
	for _, k := range t.keys {
		if isNested(t.values[k]) {
			nested = append(nested, k)
		} else {
			plain = append(plain, k)
		}
	}

	switch {
	case arrayElem:
		sectionBreak(b)
		b.WriteString("[[" + headerPath(path) + "]]\n")
	case len(path) > 0 && (len(plain) > 0 || t.Len() == 0):
		sectionBreak(b)
		b.WriteString("[" + headerPath(path) + "]\n")
	}

	for _, k := range plain {
		line, err := gotoml.Marshal(map[string]any{k: encodable(t.values[k])})
		if err != nil {
			return errs.Wrap(errs.KindSchema, err, "encode %s", headerPath(child(path, k)))
		}
		b.Write(line)
	}

	for _, k := range nested {
		p := child(path, k)
		switch v := t.values[k].(type) {
		case *Table:
			if err := encodeTable(b, v, p, false); err != nil {
				return err
			}
		case []any:
			for _, el := range v {
				if err := encodeTable(b, el.(*Table), p, true); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// isNested reports values that need their own header: tables and
// non-empty arrays made only of tables.
func isNested(v any) bool {
	switch x := v.(type) {
	case *Table:
		return true
	case []any:
		if len(x) == 0 {
			return false
		}
		for _, el := range x {
			if _, ok := el.(*Table); !ok {
				return false
			}
		}
		return true
	}
	return false
}

// encodable converts a value to the forms go-toml writes faithfully:
// tables inside mixed arrays become maps (emitted inline) and local
// date/time values decoded by BurntSushi become go-toml local types.
func encodable(v any) any {
	switch x := v.(type) {
	case *Table:
		m := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			m[k] = encodable(x.values[k])
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = encodable(el)
		}
		return out
	case time.Time:
		return localTime(x)
	}
	return v
}

// localTime maps the zones BurntSushi assigns to local TOML values.
func localTime(t time.Time) any {
	date := gotoml.LocalDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
	clock := gotoml.LocalTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
	switch t.Location().String() {
	case "date-local":
		return date
	case "time-local":
		return clock
	case "datetime-local":
		return gotoml.LocalDateTime{LocalDate: date, LocalTime: clock}
	}
	return t
}

func sectionBreak(b *bytes.Buffer) {
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
}

func headerPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = quoteKey(p)
	}
	return strings.Join(parts, ".")
}

func quoteKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range k {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
