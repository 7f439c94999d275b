// Package similar suggests near matches for mistyped names.
package similar

import (
	"sort"
	"strings"
)

const (
	DefaultMaxDistance    = 2
	DefaultMaxSuggestions = 3
)

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(ar)+1)
	curr := make([]int, len(ar)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(br); i++ {
		curr[0] = i
		for j := 1; j <= len(ar); j++ {
			if br[i-1] == ar[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j-1], curr[j-1], prev[j])
		}
		prev, curr = curr, prev
	}
	return prev[len(ar)]
}

// Find returns up to DefaultMaxSuggestions candidates within
// DefaultMaxDistance of input, closest first. Comparison ignores case.
func Find(input string, candidates []string) []string {
	return FindN(input, candidates, DefaultMaxDistance, DefaultMaxSuggestions)
}

func FindN(input string, candidates []string, maxDistance, maxSuggestions int) []string {
	type scored struct {
		value    string
		distance int
	}
	normalized := strings.ToLower(input)
	var hits []scored
	for _, c := range candidates {
		d := Levenshtein(normalized, strings.ToLower(c))
		if d <= maxDistance {
			hits = append(hits, scored{value: c, distance: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.value)
	}
	return out
}

// Hint renders suggestions as a "Did you mean" sentence, or "" when empty.
func Hint(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	return "Did you mean: " + strings.Join(suggestions, ", ") + "?"
}
