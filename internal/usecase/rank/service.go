// Package rank orders study resources against a free-text query using
// TF-IDF cosine similarity, with a lexical fallback when vectorization
// degenerates. Services here are stateless and safe for concurrent use.
package rank

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/campusworks/studyrank/internal/domain/resource"
	"github.com/campusworks/studyrank/internal/logger"
	"github.com/campusworks/studyrank/internal/metrics"
	"github.com/campusworks/studyrank/internal/vectorspace"
)

// Service ranks candidate resources against a query.
type Service struct {
	vec Vectorizer
}

// New creates a ranking service.
func New(vec Vectorizer) *Service {
	return &Service{vec: vec}
}

// Rank scores every candidate against the query and returns matches
// sorted by descending score. Resources with score <= 0 are excluded: a
// non-match is not returned. Ties preserve the input order of the
// candidate set (the external store's natural ordering).
//
// When the vectorizer fails, or every vector score is zero while both
// the query and candidate set are non-empty, every candidate is
// re-scored with the lexical fallback instead. The fallback is a
// documented degraded mode: weaker (no IDF weighting) but never empty
// purely due to a vectorization defect.
func (s *Service) Rank(ctx context.Context, query string, candidates []resource.Resource) []resource.Scored {
	if query == "" || len(candidates) == 0 {
		return nil
	}

	texts := make([]string, len(candidates))
	for i := range candidates {
		texts[i] = candidates[i].SearchText()
	}

	queryVec, docVecs, err := s.vec.BuildVectors(query, texts)
	if err != nil {
		logger.FromContext(ctx).Warn("vectorization failed, using lexical fallback",
			zap.String("query", query), zap.Error(err))
		metrics.RankFallbackTotal.Inc()
		return fallbackRank(query, candidates)
	}

	scores := make([]float64, len(candidates))
	allZero := true
	for i, dv := range docVecs {
		scores[i] = vectorspace.Cosine(queryVec, dv)
		if scores[i] > 0 {
			allZero = false
		}
	}
	if allZero {
		logger.FromContext(ctx).Warn("vector scores degenerate, using lexical fallback",
			zap.String("query", query), zap.Int("candidates", len(candidates)))
		metrics.RankFallbackTotal.Inc()
		return fallbackRank(query, candidates)
	}

	results := make([]resource.Scored, 0, len(candidates))
	for i := range candidates {
		if scores[i] <= 0 {
			continue
		}
		explanation := fmt.Sprintf("Matched %q - %.1f%% relevance", query, scores[i]*100)
		results = append(results, resource.NewScored(candidates[i], scores[i], explanation))
	}
	sortByScore(results)
	return results
}

// RankGrouped ranks candidates and partitions the results by category
// slug, truncating each category's list to perCategoryLimit.
func (s *Service) RankGrouped(
	ctx context.Context, query string, candidates []resource.Resource, perCategoryLimit int,
) map[string][]resource.Scored {
	grouped := make(map[string][]resource.Scored, len(resource.AllCategories()))
	for _, c := range resource.AllCategories() {
		grouped[c.Slug()] = []resource.Scored{}
	}
	for _, sc := range s.Rank(ctx, query, candidates) {
		slug := sc.Resource().Category().Slug()
		if perCategoryLimit > 0 && len(grouped[slug]) >= perCategoryLimit {
			continue
		}
		grouped[slug] = append(grouped[slug], sc)
	}
	return grouped
}

// Statistics summarizes grouped search results for display.
type Statistics struct {
	Query        string
	TotalResults int
	PerCategory  map[string]int
}

// Stats counts grouped results per category.
func Stats(query string, grouped map[string][]resource.Scored) Statistics {
	st := Statistics{Query: query, PerCategory: make(map[string]int, len(grouped))}
	for slug, list := range grouped {
		st.PerCategory[slug] = len(list)
		st.TotalResults += len(list)
	}
	return st
}

// sortByScore sorts descending by score; the stable sort keeps ties in
// input order.
func sortByScore(results []resource.Scored) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
}
