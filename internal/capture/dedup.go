package capture

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/samber/lo"
)

const (
	recentLimit        = 10
	duplicateThreshold = 0.2
)

// nearDuplicate reports whether two recognized phrases should count as the
// same utterance: identical, one containing the other, or an edit distance
// below a fifth of the longer phrase.
func nearDuplicate(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return true
	}
	return float64(levenshtein.ComputeDistance(a, b))/float64(longest) < duplicateThreshold
}

// recentFinals remembers the last final results in arrival order.
type recentFinals []string

func (r recentFinals) matches(text string) bool {
	return lo.SomeBy(r, func(seen string) bool { return nearDuplicate(text, seen) })
}

func (r recentFinals) add(text string) recentFinals {
	r = append(r, text)
	if overflow := len(r) - recentLimit; overflow > 0 {
		r = lo.Drop(r, overflow)
	}
	return r
}
