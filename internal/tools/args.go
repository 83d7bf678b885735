package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Args is the canonical form of tool input.
type Args map[string]any

// Normalize converts heterogeneous tool input into Args. Mappings pass
// through; text is parsed as a JSON object, then as loose key=value
// tokens, then as a bare scalar stored under "value". Anything else yields
// an empty map. Normalize never fails and Normalize(Normalize(x)) equals
// Normalize(x).
func Normalize(raw any) Args {
	switch v := raw.(type) {
	case nil:
		return Args{}
	case Args:
		if v == nil {
			return Args{}
		}
		return v
	case map[string]any:
		if v == nil {
			return Args{}
		}
		return Args(v)
	case map[string]string:
		out := make(Args, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	case json.RawMessage:
		return parseText(string(v))
	case []byte:
		return parseText(string(v))
	case string:
		return parseText(v)
	default:
		return Args{}
	}
}

func parseText(s string) Args {
	s = strings.TrimSpace(s)
	if s == "" {
		return Args{}
	}

	if strings.HasPrefix(s, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil && m != nil {
			return Args(m)
		}
		s = strings.TrimSuffix(s[1:], "}")
	}

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	out := Args{}
	sawPair := false
	for _, tok := range tokens {
		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		sawPair = true
		key = strings.Trim(key, "\"'} ")
		if key == "" {
			continue
		}
		out[key] = scalar(strings.Trim(val, "\"'"))
	}
	if sawPair {
		return out
	}

	if len(tokens) == 1 {
		if v := strings.Trim(tokens[0], "\"'"); v != "" {
			return Args{"value": scalar(v)}
		}
	}
	return Args{}
}

// scalar converts numeric text to int, then float64, leaving other text as is.
func scalar(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}

// Has reports whether key is present with a non-empty value.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the first present key rendered as trimmed text.
func (a Args) String(keys ...string) string {
	for _, k := range keys {
		if !a.Has(k) {
			continue
		}
		switch v := a[k].(type) {
		case string:
			return strings.TrimSpace(v)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// Int returns key as an integer. Integral floats and numeric text are accepted.
func (a Args) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Float returns key as a float64. Integers and numeric text are accepted.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
