// Package prompt builds serialized payloads for generative calls under a
// hard character budget.
package prompt

import "encoding/json"

// PackJSON greedily serializes whole items into a JSON array until the
// budget is reached. Trailing items that would push the payload over the
// cap are dropped wholesale; a serialized object is never truncated
// mid-structure. Items that fail to marshal are skipped.
func PackJSON(items []any, budgetChars int) (payload string, included int) {
	if budgetChars <= 0 || len(items) == 0 {
		return "[]", 0
	}

	out := []byte{'['}
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			continue
		}
		// +2 covers the separator and the closing bracket.
		if len(out)+len(b)+2 > budgetChars {
			break
		}
		if included > 0 {
			out = append(out, ',')
		}
		out = append(out, b...)
		included++
	}
	out = append(out, ']')
	return string(out), included
}
