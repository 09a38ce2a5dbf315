package canonical

import "testing"

func TestKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Demand is strong.", "demand is strong."},
		{"demand   is \t STRONG", "demand is strong"},
		{"  Margins up 5% Q/Q!  ", "margins up 5% q/q"},
		{"$AAPL: beat, (again)", "$aapl beat again"},
		{"!!!", ""},
		{"", ""},
	}

	for _, c := range cases {
		if got := Key(c.in); got != c.want {
			t.Errorf("Key(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestKeyInsensitivity(t *testing.T) {
	a := Key("Demand is strong.")
	b := Key("demand is STRONG")
	if a != b {
		t.Errorf("Expected matching keys, got %q and %q", a, b)
	}
}

func TestDedupe(t *testing.T) {
	in := []string{"Demand is strong.", "demand is STRONG", "Margins improving", "", "   "}
	out := Dedupe(in, 10)

	if len(out) != 2 {
		t.Fatalf("Expected 2 unique bullets, got %d: %v", len(out), out)
	}
	if out[0] != "Demand is strong." {
		t.Errorf("Expected first occurrence to win, got %q", out[0])
	}
}

func TestDedupeCap(t *testing.T) {
	in := []string{"a1", "a2", "a3", "a4"}
	out := Dedupe(in, 2)
	if len(out) != 2 {
		t.Errorf("Expected cap of 2, got %d", len(out))
	}
}

func TestDedupeNoCanonicalCollision(t *testing.T) {
	in := []string{"NVDA beat", "nvda BEAT", "NVDA guided up"}
	out := Dedupe(in, 0)

	seen := map[string]bool{}
	for _, s := range out {
		k := Key(s)
		if seen[k] {
			t.Errorf("Duplicate canonical key %q in output %v", k, out)
		}
		seen[k] = true
	}
}
