package scoring

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestIsEliminationCode(t *testing.T) {
	tests := map[string]bool{
		"ELIM":          true,
		"ELIMINATED":    true,
		"VOTED_OUT":     true,
		"MEDEVAC":       true,
		"QUIT":          true,
		"ELIM_TRIBAL":   true,
		"IMMUNITY_WIN":  false,
		"FOUND_IDOL":    false,
		"SURVIVED_ELIM": false,
	}
	for code, want := range tests {
		if got := IsEliminationCode(code); got != want {
			t.Fatalf("IsEliminationCode(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestCastawayTotals(t *testing.T) {
	scores := []Score{
		{CastawayID: "x", RuleID: "immunity", Quantity: 1, Points: 25},
		{CastawayID: "x", RuleID: "confessional", Quantity: 4, Points: 12},
		{CastawayID: "y", RuleID: "penalty", Quantity: 2, Points: -4},
	}
	got := CastawayTotals(scores)
	if got["x"] != 37 || got["y"] != -4 {
		t.Fatalf("unexpected totals: %v", got)
	}
}

func TestEliminatedCastaways(t *testing.T) {
	rules := []Rule{
		{ID: "r-vote", Code: "VOTED_OUT", Elimination: true},
		{ID: "r-quit", Code: "QUIT"},
		{ID: "r-imm", Code: "IMMUNITY_WIN"},
	}
	scores := []Score{
		{CastawayID: "z", RuleID: "r-vote", Quantity: 1},
		{CastawayID: "q", RuleID: "r-quit", Quantity: 1},
		{CastawayID: "a", RuleID: "r-imm", Quantity: 1},
		{CastawayID: "z", RuleID: "r-quit", Quantity: 1},
	}

	got := EliminatedCastaways(scores, rules)
	if !reflect.DeepEqual(got, []string{"q", "z"}) {
		t.Fatalf("unexpected eliminated list: %v", got)
	}
	again := EliminatedCastaways(scores, rules)
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("result not repeatable: %v vs %v", got, again)
	}
}

func TestSessionStatus_Next(t *testing.T) {
	next, err := SessionDraft.Next(SessionOpFinalize)
	if err != nil || next != SessionFinalized {
		t.Fatalf("draft finalize: %s, %v", next, err)
	}
	if _, err := SessionFinalized.Next(SessionOpSave); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := SessionFinalized.Next(SessionOpFinalize); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	doc := `
rules:
  - id: global-voted-out
    code: voted_out
    description: Voted out at tribal council
    points: -10
    category: elimination
  - id: global-immunity
    code: IMMUNITY_WIN
    points: 5
    category: challenge
`
	rules, err := LoadCatalog(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadCatalog error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Code != "VOTED_OUT" || !rules[0].Elimination || !rules[0].IsGlobal() {
		t.Fatalf("unexpected first rule: %+v", rules[0])
	}
	if rules[1].Elimination || rules[1].Points != 5 {
		t.Fatalf("unexpected second rule: %+v", rules[1])
	}
}

func TestLoadCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing code": "rules:\n  - id: a\n    points: 1\n",
		"duplicate id": "rules:\n  - id: a\n    code: X\n  - id: a\n    code: Y\n",
		"unknown key":  "rules:\n  - id: a\n    code: X\n    weight: 2\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadCatalog(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	rules, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog error: %v", err)
	}
	eliminations := 0
	for _, r := range rules {
		if !r.IsGlobal() {
			t.Fatalf("expected global rule, got %+v", r)
		}
		if r.Elimination {
			eliminations++
		}
	}
	if eliminations != 3 {
		t.Fatalf("expected 3 elimination rules, got %d", eliminations)
	}
}
