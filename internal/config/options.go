package config

import "unicode/utf8"

// Options is a free-form option bag, decoded straight from JSON. The typed
// accessors coerce loosely and fall back to the caller's default instead of
// failing; structural checks belong in ValidatePipeline, readers just want a
// value.
type Options map[string]any

// Any returns the raw value for key, or nil when absent.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// Has reports whether key is present at all, regardless of its value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the string at key, or def when absent or not a string.
func (o Options) String(key, def string) string {
	if s, ok := o.Any(key).(string); ok {
		return s
	}
	return def
}

// Bool returns the bool at key, or def when absent or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o.Any(key).(bool); ok {
		return b
	}
	return def
}

// Int returns the integer at key, or def. JSON numbers arrive as float64 and
// are truncated.
func (o Options) Int(key string, def int) int {
	switch n := o.Any(key).(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Float returns the number at key, or def.
func (o Options) Float(key string, def float64) float64 {
	switch n := o.Any(key).(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Rune returns the first rune of the string at key, or def when absent or
// empty. Single-character options such as delimiters ride in JSON as
// one-character strings.
func (o Options) Rune(key string, def rune) rune {
	s := o.String(key, "")
	if s == "" {
		return def
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// Strings returns the string list at key. Non-string elements of a mixed
// JSON array are skipped; anything else yields nil.
func (o Options) Strings(key string) []string {
	switch v := o.Any(key).(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		var out []string
		for _, it := range v {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// StringMap returns the string-to-string map at key. JSON objects contribute
// only their string-valued entries; the result is never nil.
func (o Options) StringMap(key string) map[string]string {
	res := make(map[string]string)
	switch m := o.Any(key).(type) {
	case map[string]string:
		for k, v := range m {
			res[k] = v
		}
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				res[k] = s
			}
		}
	}
	return res
}
