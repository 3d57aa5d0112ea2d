package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltinRulesFixRecognizerOutput(t *testing.T) {
	t.Parallel()

	n, err := New(Options{})
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}

	cases := map[string]string{
		"  im   kinda tired  ":    "i'm kind of tired",
		"I dont know":             "I don't know",
		"hey mic":                 "hey mike",
		"Hello  Mick how are you": "Hello mike how are you",
		"that’s it":               "that's it",
		"i'm fine":                "i'm fine",
		"timid":                   "timid",
		"":                        "",
	}
	for input, want := range cases {
		got, err := n.Apply(input)
		if err != nil {
			t.Fatalf("apply %q failed: %v", input, err)
		}
		if got != want {
			t.Fatalf("Apply(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestUserRulesRunAfterBuiltins(t *testing.T) {
	t.Parallel()

	path := writeRules(t, `
# literal
podcast => podcast
pod cast => podcast
s/\bmind\s*full\s*ness\b/mindfulness/g
`)
	n, err := New(Options{Path: path})
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}

	got, _ := n.Apply("a pod cast or some mind full ness")
	if got != "a podcast or some mindfulness" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestApplyIteratesUntilStable(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "a => b\nb => c\n")
	n, err := New(Options{Path: path, SkipBuiltin: true, Passes: 5})
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}
	if n.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", n.Len())
	}

	got, _ := n.Apply("a")
	if got != "c" {
		t.Fatalf("expected c, got %q", got)
	}
}

func TestApplyStopsAtPassLimit(t *testing.T) {
	t.Parallel()

	path := writeRules(t, "x => x x\n")
	n, err := New(Options{Path: path, SkipBuiltin: true, Passes: 3})
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}

	got, _ := n.Apply("x")
	if strings.Count(got, "x") != 8 {
		t.Fatalf("expected three doublings, got %q", got)
	}
}

func TestMissingRulesFileIsIgnored(t *testing.T) {
	t.Parallel()

	n, err := New(Options{Path: filepath.Join(t.TempDir(), "absent.rules"), SkipBuiltin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Len() != 0 {
		t.Fatalf("expected no rules, got %d", n.Len())
	}
}

func TestLiteralRulesMatchWholeWords(t *testing.T) {
	t.Parallel()

	rule, err := parseLine("sad => down")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got, changed := rule.Rewrite("SAD but not crusade")
	if !changed || got != "down but not crusade" {
		t.Fatalf("unexpected rewrite: %q changed=%v", got, changed)
	}
}

func TestLiteralRuleStartingWithS(t *testing.T) {
	t.Parallel()

	rule, err := parseLine("so so => okay")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got, _ := rule.Rewrite("feeling so so today")
	if got != "feeling okay today" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestSubstitutionWithoutGlobalReplacesFirstMatch(t *testing.T) {
	t.Parallel()

	rule, err := parseLine(`s/(\w+)ed/$1/`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got, changed := rule.Rewrite("walked talked")
	if !changed || got != "walk talked" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestSubstitutionEscapedDelimiter(t *testing.T) {
	t.Parallel()

	rule, err := parseLine(`s/and\/or/or/g`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got, _ := rule.Rewrite("tea and/or coffee")
	if got != "tea or coffee" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"not-a-rule", " => empty", "s/unterminated", "s/a/b/x", "s/(/x/"} {
		if _, err := Parse(strings.NewReader(line)); err == nil {
			t.Fatalf("expected error for %q", line)
		}
	}

	_, err := Parse(strings.NewReader("# ok\n\nbroken"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func writeRules(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speech.rules")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}
