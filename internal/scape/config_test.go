package scape

import "testing"

func TestConfigCloneIsolation(t *testing.T) {
	original := Config{
		"lives":   3,
		"enemies": []any{map[string]any{"route": []any{1, 2, 3}}},
	}

	clone, err := original.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	clone["lives"] = 1
	clone["enemies"] = []any{}

	if got := original["lives"]; got != 3 {
		t.Fatalf("original lives mutated through clone: got=%v want=3", got)
	}
	if got := len(original["enemies"].([]any)); got != 1 {
		t.Fatalf("original enemies mutated through clone: got=%d want=1", got)
	}
}

func TestConfigCloneNil(t *testing.T) {
	var c Config
	clone, err := c.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone != nil {
		t.Fatalf("nil config clone: got=%v want=nil", clone)
	}
}

func TestConfigDiffNormalizesNumbers(t *testing.T) {
	written := Config{"lives": 3, "box_bonus": 50}
	read := Config{"lives": 3.0, "box_bonus": 50.0}

	if diffs := written.Diff(read); diffs != nil {
		t.Fatalf("int/float forms of the same number must not diff, got %v", diffs)
	}
}

func TestConfigDiffReportsMismatchedFields(t *testing.T) {
	written := Config{"lives": 3, "enemies": []any{}}
	read := Config{"lives": 1, "enemies": []any{}, "extra": true}

	diffs := written.Diff(read)
	if len(diffs) != 2 {
		t.Fatalf("diff count: got=%d want=2 (%v)", len(diffs), diffs)
	}
	if diffs[0].Field != "extra" || diffs[1].Field != "lives" {
		t.Fatalf("diff fields must be sorted, got %v", diffs)
	}
}

func TestConfigDiffEqualDocuments(t *testing.T) {
	doc := Config{
		"board":   []any{"==", "=="},
		"enemies": []any{map[string]any{"route": []any{0, 1}}},
	}
	if diffs := doc.Diff(doc); diffs != nil {
		t.Fatalf("document must not diff against itself, got %v", diffs)
	}
}
