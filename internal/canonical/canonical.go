// Package canonical normalizes free text into comparison keys used for
// fuzzy de-duplication at every aggregation level.
package canonical

import "strings"

// Key lowercases text, collapses whitespace runs to a single space, and
// strips every character other than alphanumerics, '$', '%', '.', '-',
// '/' and space. Two bullets are considered duplicates when their keys
// match.
func Key(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '$', r == '%', r == '.', r == '-', r == '/':
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// AppendUnique appends item to list when its canonical key is non-empty
// and not already present in seen, preserving first-seen order. It
// returns the (possibly extended) list. seen is mutated in place.
func AppendUnique(list []string, seen map[string]bool, item string, cap int) []string {
	if cap > 0 && len(list) >= cap {
		return list
	}
	trimmed := strings.TrimSpace(item)
	key := Key(trimmed)
	if key == "" || seen[key] {
		return list
	}
	seen[key] = true
	return append(list, trimmed)
}

// Dedupe returns items with canonical duplicates removed, first
// occurrence wins, capped to max entries (0 means no cap). Entries with
// an empty canonical key are dropped.
func Dedupe(items []string, max int) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		out = AppendUnique(out, seen, it, max)
	}
	return out
}
