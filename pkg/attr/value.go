package attr

import (
	"encoding/json"
	"fmt"
)

// Clone deep-copies maps and sequences so the tree never shares nodes with
// its callers. Scalars are returned as-is.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	default:
		return value
	}
}

// Sequence returns value as a sequence. Anything that is not a sequence yields
// an empty one.
func Sequence(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return []any{}
	}
}

// Strings returns the string elements of a sequence, formatting non-strings.
func Strings(value any) []string {
	seq := Sequence(value)
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		switch s := item.(type) {
		case string:
			out = append(out, s)
		case nil:
		default:
			out = append(out, fmt.Sprint(s))
		}
	}
	return out
}

// Normalize converts a decoded JSON tree into the canonical value set:
// nil, bool, int64, float64, string, map[string]any and []any.
func Normalize(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		for k, item := range v {
			v[k] = Normalize(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = Normalize(item)
		}
		return v
	default:
		return value
	}
}

// NormalizeMap is Normalize for a whole attribute tree.
func NormalizeMap(items map[string]any) map[string]any {
	if items == nil {
		return nil
	}
	return Normalize(items).(map[string]any)
}
