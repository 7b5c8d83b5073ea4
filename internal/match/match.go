// Package match joins records by free-text organization name. Stakeholder
// names are not stable identifiers across the assessment, sentiment and user
// datasets (casing, separators and suffixes vary), so every cross-dataset
// lookup goes through one tiered scoring function instead of exact equality.
package match

import (
	"strings"
)

// Confidence tiers, highest first. A zero score means no plausible match and
// callers must treat it as absence, never fall back to an arbitrary element.
const (
	scoreExact        = 1000
	scorePrefix       = 900
	scoreContains     = 800
	scoreContained    = 700
	scoreWordsOverlap = 600
)

// Score rates how plausibly candidate names the same organization as needle.
func Score(needle, candidate string) int {
	n := normalize(needle)
	c := normalize(candidate)
	if n == "" || c == "" {
		return 0
	}

	switch {
	case n == c:
		return scoreExact
	case strings.HasPrefix(c, n) || strings.HasPrefix(n, c):
		return scorePrefix
	case strings.Contains(c, n):
		return scoreContains
	case strings.Contains(n, c):
		return scoreContained
	}

	if significantWordsCovered(n, c) {
		return scoreWordsOverlap
	}
	return 0
}

// Best returns the highest-scoring candidate and its score. Ties prefer the
// longer, more specific candidate name. A score of 0 means nothing matched;
// the returned value is T's zero value and must not be used.
func Best[T any](needle string, candidates []T, name func(T) string) (T, int) {
	var best T
	bestScore := 0
	bestLen := -1

	for _, candidate := range candidates {
		candidateName := name(candidate)
		score := Score(needle, candidateName)
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && len(candidateName) > bestLen) {
			best = candidate
			bestScore = score
			bestLen = len(candidateName)
		}
	}

	return best, bestScore
}

// BestName is Best over a plain list of names.
func BestName(needle string, names []string) (string, int) {
	return Best(needle, names, func(s string) string { return s })
}

// Same reports whether two names plausibly refer to the same organization.
func Same(a, b string) bool {
	return Score(a, b) > 0
}

// normalize lowercases and collapses separators so "Kunta_Kinteh-Island "
// and "kunta kinteh island" compare equal.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// significantWordsCovered reports whether every significant word (length > 2)
// of the shorter name appears as a substring of some word in the longer name.
func significantWordsCovered(a, b string) bool {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	longerWords := strings.Fields(longer)
	matched := 0
	for _, word := range strings.Fields(shorter) {
		if len(word) <= 2 {
			continue
		}
		found := false
		for _, lw := range longerWords {
			if strings.Contains(lw, word) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		matched++
	}

	return matched > 0
}
