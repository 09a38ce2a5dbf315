// Package llm provides helpers for normalizing untrusted generative
// model output before it enters the typed data model.
package llm

import (
	"encoding/json"
	"strings"
)

// ExtractObject pulls the first balanced-looking JSON object out of raw
// model output and parses it. Models frequently wrap JSON in prose or
// code fences; everything before the first '{' and after the last '}'
// is discarded. Returns false when no parseable object is present.
func ExtractObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return nil, false
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text[first:last+1]), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// Str coerces a JSON value to a trimmed string, empty when not a string.
func Str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// StrList coerces a JSON value to a list of trimmed non-empty strings,
// capped to max entries (0 means no cap).
func StrList(v any, max int) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if max > 0 && len(out) >= max {
			break
		}
		s, ok := item.(string)
		if !ok {
			continue
		}
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ObjList coerces a JSON value to a list of objects, capped to max (0
// means no cap). Non-object entries are dropped.
func ObjList(v any, max int) []map[string]any {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, item := range raw {
		if max > 0 && len(out) >= max {
			break
		}
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
