package document

import "cppx/internal/errs"

// UpsertUnique appends value unless a string element already equals it.
// It reports whether arr changed.
func UpsertUnique(arr []any, value string) ([]any, bool) {
	for _, v := range arr {
		if s, ok := v.(string); ok && s == value {
			return arr, false
		}
	}
	return append(arr, value), true
}

// RemoveMatching drops every string element listed in values, keeping the
// relative order of the rest. Non-string elements are kept. It returns the
// new array and the number of elements removed.
func RemoveMatching(arr []any, values []string) ([]any, int) {
	drop := make(map[string]bool, len(values))
	for _, v := range values {
		drop[v] = true
	}
	out := make([]any, 0, len(arr))
	removed := 0
	for _, v := range arr {
		if s, ok := v.(string); ok && drop[s] {
			removed++
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

// AddUnique upserts each value into section.key, creating the section and
// the array when absent. It returns how many values were appended.
func (d *Document) AddUnique(section, key string, values ...string) (int, error) {
	t, err := d.EnsureSection(section)
	if err != nil {
		return 0, err
	}
	var arr []any
	if v, ok := t.Get(key); ok {
		arr, ok = v.([]any)
		if !ok {
			return 0, errs.New(errs.KindSchema, "%q in [%s] must be an array, got %s", key, section, typeName(v))
		}
	} else {
		arr = []any{}
	}
	added := 0
	for _, v := range values {
		var changed bool
		if arr, changed = UpsertUnique(arr, v); changed {
			added++
		}
	}
	t.Set(key, arr)
	return added, nil
}

// RemoveValues drops values from section.key. A missing section or key
// removes nothing.
func (d *Document) RemoveValues(section, key string, values ...string) (int, error) {
	t, ok := d.Section(section)
	if !ok {
		return 0, nil
	}
	v, ok := t.Get(key)
	if !ok {
		return 0, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return 0, errs.New(errs.KindSchema, "%q in [%s] must be an array, got %s", key, section, typeName(v))
	}
	arr, removed := RemoveMatching(arr, values)
	if removed > 0 {
		t.Set(key, arr)
	}
	return removed, nil
}
