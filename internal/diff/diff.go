// Package diff computes structured differences between two decoded JSON
// documents. Maps are compared by key, arrays element-wise by index; no
// reordering or element matching is attempted.
package diff

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"apidiff/internal/model"
)

// Compare walks old and new structurally and returns one entry per
// path-level difference. An empty result means the documents match.
func Compare(oldDoc, newDoc any) []model.DiffEntry {
	var entries []model.DiffEntry
	walk("", oldDoc, newDoc, &entries)
	return entries
}

func walk(path string, oldVal, newVal any, out *[]model.DiffEntry) {
	switch o := oldVal.(type) {
	case map[string]any:
		n, ok := newVal.(map[string]any)
		if !ok {
			changed(path, oldVal, newVal, out)
			return
		}
		for _, key := range unionKeys(o, n) {
			ov, inOld := o[key]
			nv, inNew := n[key]
			p := join(path, key)
			switch {
			case inOld && inNew:
				walk(p, ov, nv, out)
			case inOld:
				*out = append(*out, model.DiffEntry{Path: p, Kind: model.KindRemoved, Old: ov})
			default:
				*out = append(*out, model.DiffEntry{Path: p, Kind: model.KindAdded, New: nv})
			}
		}
	case []any:
		n, ok := newVal.([]any)
		if !ok {
			changed(path, oldVal, newVal, out)
			return
		}
		for i := 0; i < len(o) || i < len(n); i++ {
			p := fmt.Sprintf("%s[%d]", path, i)
			switch {
			case i < len(o) && i < len(n):
				walk(p, o[i], n[i], out)
			case i < len(o):
				*out = append(*out, model.DiffEntry{Path: p, Kind: model.KindRemoved, Old: o[i]})
			default:
				*out = append(*out, model.DiffEntry{Path: p, Kind: model.KindAdded, New: n[i]})
			}
		}
	default:
		if !reflect.DeepEqual(oldVal, newVal) {
			changed(path, oldVal, newVal, out)
		}
	}
}

func changed(path string, oldVal, newVal any, out *[]model.DiffEntry) {
	if path == "" {
		path = "$"
	}
	*out = append(*out, model.DiffEntry{Path: path, Kind: model.KindChanged, Old: oldVal, New: newVal})
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func unionKeys(a, b map[string]any) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Render formats the entries for the report's diff column, one per line.
func Render(entries []model.DiffEntry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		switch e.Kind {
		case model.KindAdded:
			lines[i] = fmt.Sprintf("%s: added %v", e.Path, e.New)
		case model.KindRemoved:
			lines[i] = fmt.Sprintf("%s: removed %v", e.Path, e.Old)
		default:
			lines[i] = fmt.Sprintf("%s: %v -> %v", e.Path, e.Old, e.New)
		}
	}
	return strings.Join(lines, "\n")
}

// IsEmpty reports whether v is an empty JSON-like value: null, empty
// object/array/string, zero number or false.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}
