// Package normalize converts weakly-typed upstream documents into the
// canonical item and stream-format models used across the service. Upstream
// payloads arrive as decoded JSON (map[string]any, []any, scalars) whose
// shape varies between library versions; nothing past this package should
// ever touch an untyped document.
package normalize

import "sort"

// CoerceToArray turns an arbitrary decoded JSON value into a slice.
// nil becomes an empty slice, a slice is returned as-is, a record with a
// string "name" field becomes a one-element slice wrapping that record, any
// other record becomes the slice of its own values with falsy entries
// dropped, and a scalar becomes a one-element slice.
func CoerceToArray(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	case map[string]any:
		if name, ok := t["name"].(string); ok && name != "" {
			return []any{map[string]any{"name": name}}
		}
		out := make([]any, 0, len(t))
		for _, k := range sortedKeys(t) {
			if truthy(t[k]) {
				out = append(out, t[k])
			}
		}
		return out
	default:
		return []any{v}
	}
}

// DisplayName extracts a human-readable name from an artist-like entry.
// A string entry is its own name; a record entry yields the first present
// field among name, title, artist.
func DisplayName(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if t != "" {
			return t, true
		}
	case map[string]any:
		if s := firstString(t, "name", "title", "artist"); s != "" {
			return s, true
		}
	}
	return "", false
}

// firstString returns the first non-empty string value among the given keys.
func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// truthy mirrors the loose presence check the upstream payloads were
// designed around: nil, false, zero and the empty string are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

// sortedKeys gives map traversal a stable order. The upstream contract has
// no field ordering to preserve, so lexicographic is as good as any.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
