package command

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultSimilarityThreshold is the minimum ratio for a near-miss verb to be accepted
const DefaultSimilarityThreshold = 0.6

// similarity returns 1 - editDistance/maxLen, in [0, 1]
func similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

// nearest returns the single candidate most similar to word with a ratio of at least threshold.
// A tie for the best score is ambiguous and yields no match.
func nearest(word string, candidates []string, threshold float64) (string, bool) {
	best := ""
	bestScore := -1.0
	tied := false

	for _, candidate := range candidates {
		score := similarity(word, candidate)
		switch {
		case score > bestScore:
			best, bestScore, tied = candidate, score, false
		case score == bestScore:
			tied = true
		}
	}

	if bestScore < threshold || tied {
		return "", false
	}
	return best, true
}
