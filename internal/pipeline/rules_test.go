package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRulesCompile(t *testing.T) {
	rs := DefaultRules()
	if len(rs.agent) == 0 {
		t.Error("expected built-in agent phrase rules")
	}
	if len(rs.customer) == 0 {
		t.Error("expected built-in customer response rules")
	}
}

func TestMatchedAgentRules(t *testing.T) {
	rs := DefaultRules()

	tests := []struct {
		name      string
		text      string
		wantCount int
	}{
		{"no match", "jakis zwykly tekst bez sygnalu", 0},
		{"greeting", "Dzień dobry, w czym mogę pomóc", 1},
		{"multiple distinct", "dzień dobry, nazywam się Anna, dzwonię z firmy", 3},
		{"repeated phrase counts once", "dzień dobry, dzień dobry, dzień dobry", 1},
		{"price", "to kosztuje 120 zł za pobraniem", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, weight := rs.MatchedAgentRules(tt.text)
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if want := float64(tt.wantCount) * 3.0; weight != want {
				t.Errorf("weight = %v, want %v", weight, want)
			}
		})
	}
}

func TestCustomerResponseWeight(t *testing.T) {
	rs := DefaultRules()

	tests := []struct {
		text      string
		wantMatch bool
	}{
		{"tak", true},
		{"tak.", true},
		{"nie", true},
		{"no dobrze", true},
		{"aha", true},
		{"tak, poproszę o więcej informacji", false},
		{"dzień dobry", false},
	}

	for _, tt := range tests {
		weight, ok := rs.CustomerResponseWeight(tt.text)
		if ok != tt.wantMatch {
			t.Errorf("CustomerResponseWeight(%q) matched = %v, want %v", tt.text, ok, tt.wantMatch)
			continue
		}
		if ok && weight != -2.0 {
			t.Errorf("CustomerResponseWeight(%q) = %v, want -2.0", tt.text, weight)
		}
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - pattern: "good morning"
    weight: 4.5
    category: agent_phrase
  - pattern: "^yes$"
    weight: -1.0
    category: customer_response
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	count, weight := rs.MatchedAgentRules("Good Morning everyone")
	if count != 1 || weight != 4.5 {
		t.Errorf("count = %d weight = %v, want 1 and 4.5", count, weight)
	}
	if w, ok := rs.CustomerResponseWeight("yes"); !ok || w != -1.0 {
		t.Errorf("customer weight = %v matched = %v, want -1.0 and true", w, ok)
	}
}

func TestLoadRulesRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("rules: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(empty); err == nil {
		t.Error("expected error for empty rule table")
	}

	badPattern := filepath.Join(dir, "bad.yaml")
	content := "rules:\n  - pattern: \"[\"\n    weight: 1\n    category: agent_phrase\n"
	if err := os.WriteFile(badPattern, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(badPattern); err == nil {
		t.Error("expected error for invalid regexp")
	}

	badCategory := []Rule{{Pattern: "x", Weight: 1, Category: "unknown"}}
	if _, err := CompileRules(badCategory); err == nil {
		t.Error("expected error for unknown category")
	}

	if _, err := LoadRules(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
