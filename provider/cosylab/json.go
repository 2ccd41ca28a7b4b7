package cosylab

import (
	"strconv"
	"strings"
)

// Object returns v as an object, unwrapping the first of keys that holds a
// nested object. Non-objects yield an empty map.
func Object(v any, keys ...string) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	for _, k := range keys {
		if inner, ok := m[k].(map[string]any); ok {
			return inner
		}
	}
	return m
}

// List returns v when it is a list, otherwise the first of keys on v that
// holds a list. A lone object is returned as a one element list when wrap is
// set, matching endpoints that collapse single results.
func List(v any, wrap bool, keys ...string) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range keys {
			if l, ok := t[k].([]any); ok {
				return l
			}
		}
		if wrap && len(t) > 0 {
			return []any{t}
		}
	}
	return nil
}

// String returns the first non-empty string value among keys.
func String(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Strings reads a list of strings from the first present key. A bare string
// becomes a one element list.
func Strings(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch t := m[k].(type) {
		case string:
			if t != "" {
				return []string{t}
			}
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				switch s := item.(type) {
				case string:
					if s != "" {
						out = append(out, s)
					}
				case map[string]any:
					if name := String(s, "name"); name != "" {
						out = append(out, name)
					}
				}
			}
			return out
		}
	}
	return []string{}
}

// Float returns the first numeric value among keys.
func Float(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch t := m[k].(type) {
		case float64:
			return t, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// FloatPtr is Float with nil for a missing value.
func FloatPtr(m map[string]any, keys ...string) *float64 {
	if f, ok := Float(m, keys...); ok {
		return &f
	}
	return nil
}

// Scalar renders an identifier that may arrive as a number or a string.
func Scalar(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch t := m[k].(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		}
	}
	return ""
}
