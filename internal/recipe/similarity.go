package recipe

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Cutoffs for approximate name matching. Scores are SequenceMatcher ratios in [0,1].
const (
	IngredientCutoff = 0.5
	ArticleCutoff    = 0.55
)

// Similarity is 2*M/T over the characters of both names, case-insensitive.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(b, ""), strings.Split(a, ""))
	return m.Ratio()
}

// BestMatch returns the index of the candidate most similar to name, or -1 when
// none reaches cutoff. Equal scores keep the earlier candidate.
// Unlike difflib's get_close_matches, case is ignored and ties are not ranked by name.
func BestMatch(name string, candidates []string, cutoff float64) int {
	target := strings.Split(strings.ToLower(name), "")
	best, bestScore := -1, 0.0

	m := difflib.NewMatcher(nil, nil)
	m.SetSeq2(target)
	for i, c := range candidates {
		m.SetSeq1(strings.Split(strings.ToLower(c), ""))
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		score := m.Ratio()
		if score >= cutoff && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
