package prompt

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPackJSONIncludesWholeItems(t *testing.T) {
	items := []any{
		map[string]string{"ticker": "AAPL"},
		map[string]string{"ticker": "NVDA"},
		map[string]string{"ticker": "TSLA"},
	}

	payload, included := PackJSON(items, 10000)
	if included != 3 {
		t.Fatalf("Expected all 3 items included, got %d", included)
	}

	var parsed []map[string]string
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}
	if len(parsed) != 3 {
		t.Errorf("Expected 3 parsed items, got %d", len(parsed))
	}
}

func TestPackJSONDropsTrailingItems(t *testing.T) {
	big := strings.Repeat("x", 500)
	items := []any{
		map[string]string{"a": big},
		map[string]string{"b": big},
		map[string]string{"c": big},
	}

	payload, included := PackJSON(items, 600)
	if included != 1 {
		t.Fatalf("Expected 1 item under budget, got %d", included)
	}

	// The payload must remain valid JSON even when items are dropped.
	var parsed []map[string]string
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		t.Fatalf("Truncated payload is not valid JSON: %v", err)
	}
}

func TestPackJSONZeroBudget(t *testing.T) {
	payload, included := PackJSON([]any{map[string]string{"a": "b"}}, 0)
	if included != 0 || payload != "[]" {
		t.Errorf("Expected empty array for zero budget, got %q (%d)", payload, included)
	}
}

func TestPackJSONNeverExceedsBudget(t *testing.T) {
	items := []any{}
	for i := 0; i < 50; i++ {
		items = append(items, map[string]int{"n": i})
	}

	for _, budget := range []int{10, 50, 100, 300} {
		payload, _ := PackJSON(items, budget)
		if len(payload) > budget && payload != "[]" {
			t.Errorf("Budget %d exceeded: payload length %d", budget, len(payload))
		}
	}
}
