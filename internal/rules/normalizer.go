// Package rules rewrites recognized speech before the conversation layer
// matches keywords against it.
//
// A rules file holds one rule per line:
//
//	im => i'm                     whole-word literal, case-insensitive
//	s/\bmike\s+check\b/mikecheck/g  regular expression, first match unless g
//
// Blank lines and lines starting with # are ignored.
package rules

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

//go:embed speech.rules
var builtinRules string

const defaultPasses = 10

// Rule rewrites text, reporting whether anything changed.
type Rule interface {
	Rewrite(text string) (string, bool)
}

// Options configures a Normalizer.
type Options struct {
	// Path is an optional user rules file applied after the built-in rules.
	// A missing file is not an error.
	Path string
	// Passes bounds how often the rule set is reapplied while it keeps changing the text.
	Passes int
	// SkipBuiltin disables the embedded speech fixups.
	SkipBuiltin bool
}

// Normalizer implements ports.TextNormalizer.
type Normalizer struct {
	rules  []Rule
	passes int
}

var spaces = regexp.MustCompile(`\s+`)

func New(opts Options) (*Normalizer, error) {
	n := &Normalizer{passes: opts.Passes}
	if n.passes <= 0 {
		n.passes = defaultPasses
	}

	if !opts.SkipBuiltin {
		builtin, err := Parse(strings.NewReader(builtinRules))
		if err != nil {
			return nil, fmt.Errorf("built-in rules: %w", err)
		}
		n.rules = append(n.rules, builtin...)
	}

	if path := strings.TrimSpace(opts.Path); path != "" {
		user, err := load(path)
		if err != nil {
			return nil, err
		}
		n.rules = append(n.rules, user...)
	}
	return n, nil
}

func load(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file %q: %w", path, err)
	}
	defer f.Close()

	parsed, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}
	return parsed, nil
}

// Len reports the number of loaded rules.
func (n *Normalizer) Len() int {
	return len(n.rules)
}

// Apply collapses whitespace and runs the rules until the text is stable or
// the pass limit is reached.
func (n *Normalizer) Apply(text string) (string, error) {
	out := strings.TrimSpace(spaces.ReplaceAllString(text, " "))
	if out == "" {
		return "", nil
	}
	for i := 0; i < n.passes; i++ {
		dirty := false
		for _, rule := range n.rules {
			if next, changed := rule.Rewrite(out); changed {
				out, dirty = next, true
			}
		}
		if !dirty {
			break
		}
	}
	return out, nil
}

// Parse reads rules from r.
func Parse(r io.Reader) ([]Rule, error) {
	var parsed []Rule
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		parsed = append(parsed, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return parsed, nil
}

func parseLine(line string) (Rule, error) {
	if isSubstitution(line) {
		return parseSubstitution(line)
	}
	if from, to, ok := strings.Cut(line, "=>"); ok {
		return newWordRule(strings.TrimSpace(from), strings.TrimSpace(to))
	}
	return nil, errors.New("unsupported rule format")
}

// wordRule replaces whole-word occurrences of a phrase.
type wordRule struct {
	re *regexp.Regexp
	to string
}

func newWordRule(from, to string) (Rule, error) {
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("invalid literal source: %w", err)
	}
	return wordRule{re: re, to: to}, nil
}

func (r wordRule) Rewrite(text string) (string, bool) {
	out := r.re.ReplaceAllLiteralString(text, r.to)
	return out, out != text
}

// patternRule is a sed-style substitution.
type patternRule struct {
	re     *regexp.Regexp
	to     string
	global bool
}

func isSubstitution(line string) bool {
	return len(line) > 2 && line[0] == 's' && isDelimiter(line[1])
}

func isDelimiter(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	case c == ' ', c == '\t', c == '\\':
		return false
	}
	return true
}

func parseSubstitution(line string) (Rule, error) {
	delim := line[1]
	fields, rest, err := splitDelimited(line[2:], delim, 2)
	if err != nil {
		return nil, err
	}

	rule := patternRule{to: fields[1]}
	prefix := "i"
	for _, flag := range strings.TrimSpace(rest) {
		switch flag {
		case 'g':
			rule.global = true
		case 'i':
		case 'm', 's':
			prefix += string(flag)
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", flag)
		}
	}

	rule.re, err = regexp.Compile("(?" + prefix + ")" + fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return rule, nil
}

// splitDelimited reads n delimiter-terminated fields, keeping backslash
// escapes intact for the regexp compiler, and returns what follows them.
func splitDelimited(s string, delim byte, n int) ([]string, string, error) {
	fields := make([]string, 0, n)
	var field strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			if s[i+1] == delim {
				field.WriteByte(delim)
			} else {
				field.WriteByte(c)
				field.WriteByte(s[i+1])
			}
			i++
		case c == delim:
			fields = append(fields, field.String())
			field.Reset()
			if len(fields) == n {
				return fields, s[i+1:], nil
			}
		default:
			field.WriteByte(c)
		}
	}
	return nil, "", errors.New("unterminated expression")
}

func (r patternRule) Rewrite(text string) (string, bool) {
	var out string
	if r.global {
		out = r.re.ReplaceAllString(text, r.to)
	} else {
		loc := r.re.FindStringSubmatchIndex(text)
		if loc == nil {
			return text, false
		}
		replaced := r.re.ExpandString(nil, r.to, text, loc)
		out = text[:loc[0]] + string(replaced) + text[loc[1]:]
	}
	return out, out != text
}
