package rank

import (
	"fmt"
	"strings"

	"github.com/campusworks/studyrank/internal/domain/resource"
)

// fallbackScore is the lexical degraded-mode scorer: for each query term,
// +2 when the term occurs in the title, +1 when it occurs anywhere else
// in the search text. No IDF weighting.
func fallbackScore(query string, res *resource.Resource) float64 {
	text := strings.ToLower(res.SearchText())
	title := strings.ToLower(res.Title())

	var score float64
	for _, term := range strings.Fields(strings.ToLower(query)) {
		switch {
		case strings.Contains(title, term):
			score += 2
		case strings.Contains(text, term):
			score++
		}
	}
	return score
}

// fallbackRank scores every candidate lexically and returns the
// positive-scoring ones sorted descending, ties in input order.
func fallbackRank(query string, candidates []resource.Resource) []resource.Scored {
	results := make([]resource.Scored, 0, len(candidates))
	for i := range candidates {
		score := fallbackScore(query, &candidates[i])
		if score <= 0 {
			continue
		}
		explanation := fmt.Sprintf("Matched %q - keyword match", query)
		results = append(results, resource.NewScored(candidates[i], score, explanation))
	}
	sortByScore(results)
	return results
}
