package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rendis/storetap/internal/model"
)

// Extractor pulls one candidate value out of a raw record.
type Extractor func(model.RawRecord) any

// Path walks nested objects by key and returns nil when any step is missing.
func Path(keys ...string) Extractor {
	return func(raw model.RawRecord) any {
		return safeGet(map[string]any(raw), keys...)
	}
}

// Literal always yields v. Useful as the last link of a chain.
func Literal(v any) Extractor {
	return func(model.RawRecord) any { return v }
}

// Chain is an ordered list of extractors for one field. The first non-empty
// value wins.
type Chain []Extractor

// First returns a chain of Path extractors, one per dotted key.
func First(paths ...string) Chain {
	c := make(Chain, 0, len(paths))
	for _, p := range paths {
		c = append(c, Path(strings.Split(p, ".")...))
	}
	return c
}

// Value returns the first non-empty value, or nil.
func (c Chain) Value(raw model.RawRecord) any {
	for _, ex := range c {
		if v := ex(raw); !isEmpty(v) {
			return v
		}
	}
	return nil
}

// String returns the first value that renders to a non-blank string.
func (c Chain) String(raw model.RawRecord) string {
	for _, ex := range c {
		if s := strings.TrimSpace(safeString(ex(raw))); s != "" {
			return s
		}
	}
	return ""
}

// Float returns the first value that parses as a number.
func (c Chain) Float(raw model.RawRecord) (float64, bool) {
	for _, ex := range c {
		if f, ok := safeFloat(ex(raw)); ok {
			return f, true
		}
	}
	return 0, false
}

func safeGet(data any, keys ...string) any {
	current := data
	for _, k := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			if rr, isRaw := current.(model.RawRecord); isRaw {
				m = rr
			} else {
				return nil
			}
		}
		current = m[k]
	}
	return current
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func safeString(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []any, map[string]any:
		if isEmpty(v) {
			return ""
		}
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}

func safeFloat(data any) (float64, bool) {
	switch v := data.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
