// Package config holds the configuration adapters. Values is the flattened
// key space shared by the TOML file store and the in-memory store.
package config

import (
	"sort"
	"strings"
)

// Values maps dot-notation keys ("llm.provider") to decoded values.
// TOML decodes integers as int64 and arrays as []any; the accessors accept
// those alongside the native Go types written by Set.
type Values map[string]any

// String returns the string under key, or "" for a missing or non-string value.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the integer under key. Floats are truncated.
func (v Values) Int(key string) int {
	switch n := v[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Float returns the number under key. Integers are widened.
func (v Values) Float(key string) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Bool returns the boolean under key.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// StringSlice returns the string list under key, skipping non-string items.
func (v Values) StringSlice(key string) []string {
	switch list := v[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Keys returns the sorted keys starting with prefix.
func (v Values) Keys(prefix string) []string {
	var keys []string
	for k := range v {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Flatten converts nested tables to dot-notation keys:
// {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(nested map[string]any) Values {
	out := make(Values)
	flattenInto(out, nested, "")
	return out
}

func flattenInto(out Values, m map[string]any, prefix string) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flattenInto(out, table, key)
			continue
		}
		out[key] = value
	}
}

// Nest is the inverse of Flatten. A scalar and a table under the same name
// keep the table.
func (v Values) Nest() map[string]any {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	// Shallow keys first so deeper tables replace clashing scalars.
	sort.Slice(keys, func(i, j int) bool {
		return strings.Count(keys[i], ".") < strings.Count(keys[j], ".")
	})

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		last := parts[len(parts)-1]
		if _, isTable := node[last].(map[string]any); isTable {
			continue
		}
		node[last] = v[key]
	}
	return root
}
