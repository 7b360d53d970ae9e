// README: Closest-match helper over normalised candidates (difflib-style cutoff).
package text

import "github.com/agnivade/levenshtein"

// Similarity returns an edit-distance ratio in [0,1]; 1 means equal strings.
// Inputs are compared as-is, callers normalise first.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// ClosestMatch returns the candidate whose normalised form is most similar to
// the normalised input, provided the similarity reaches cutoff. The second
// return value is false when nothing clears the cutoff.
func ClosestMatch(input string, candidates []string, cutoff float64) (string, bool) {
	needle := Normalize(input)
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := Similarity(needle, Normalize(c))
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore >= cutoff {
		return best, true
	}
	return "", false
}
