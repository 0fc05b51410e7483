package bridge

import (
	"encoding/json"
	"math"
)

// Args is the loosely typed argument bag of a call. Numbers may arrive as
// float64, json.Number or Go integers depending on the decoder.
type Args map[string]any

// Has reports whether key is present and non-null.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns a required string argument.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", missingArg(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", badArg(key, "must be a string, got %T", v)
	}
	return s, nil
}

// OptString returns key as a string or def when absent.
func (a Args) OptString(key, def string) (string, error) {
	if !a.Has(key) {
		return def, nil
	}
	return a.String(key)
}

// Int returns key as an int or def when absent.
func (a Args) Int(key string, def int) (int, error) {
	if !a.Has(key) {
		return def, nil
	}
	n, ok := toInt64(a[key])
	if !ok || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, badArg(key, "must be an integer, got %v", a[key])
	}
	return int(n), nil
}

// Bool returns key as a bool or def when absent.
func (a Args) Bool(key string, def bool) (bool, error) {
	if !a.Has(key) {
		return def, nil
	}
	b, ok := a[key].(bool)
	if !ok {
		return false, badArg(key, "must be a boolean, got %T", a[key])
	}
	return b, nil
}

// OptBool returns a pointer to key's value, or nil when absent.
func (a Args) OptBool(key string) (*bool, error) {
	if !a.Has(key) {
		return nil, nil
	}
	b, err := a.Bool(key, false)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Map returns key as a nested argument bag; nil when absent.
func (a Args) Map(key string) (Args, error) {
	if !a.Has(key) {
		return nil, nil
	}
	switch m := a[key].(type) {
	case map[string]any:
		return Args(m), nil
	case Args:
		return m, nil
	default:
		return nil, badArg(key, "must be an object, got %T", a[key])
	}
}

// List returns key as a list; nil when absent.
func (a Args) List(key string) ([]any, error) {
	if !a.Has(key) {
		return nil, nil
	}
	l, ok := a[key].([]any)
	if !ok {
		return nil, badArg(key, "must be a list, got %T", a[key])
	}
	return l, nil
}

// Int64List returns key as a list of integers; nil when absent.
func (a Args) Int64List(key string) ([]int64, error) {
	if !a.Has(key) {
		return nil, nil
	}
	switch v := a[key].(type) {
	case []int64:
		return append([]int64(nil), v...), nil
	case []int:
		out := make([]int64, len(v))
		for i, n := range v {
			out[i] = int64(n)
		}
		return out, nil
	case []any:
		out := make([]int64, len(v))
		for i, item := range v {
			n, ok := toInt64(item)
			if !ok {
				return nil, badArg(key, "element %d must be an integer, got %v", i, item)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, badArg(key, "must be a list of integers, got %T", a[key])
	}
}

// StringList returns key as a list of strings; nil when absent.
func (a Args) StringList(key string) ([]string, error) {
	if !a.Has(key) {
		return nil, nil
	}
	switch v := a[key].(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, badArg(key, "element %d must be a string, got %T", i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, badArg(key, "must be a list of strings, got %T", a[key])
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
