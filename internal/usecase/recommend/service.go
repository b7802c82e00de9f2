// Package recommend composes per-user study material recommendations:
// trending (popularity within a faculty), similar (content similarity to
// a given resource), and personalized (similarity expansion of recent
// activity with a trending fallback).
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusworks/studyrank/internal/domain"
	"github.com/campusworks/studyrank/internal/domain/resource"
	"github.com/campusworks/studyrank/internal/logger"
)

const (
	// similarityThreshold is the minimum content similarity for a
	// resource to count as "similar". Arbitrary but fixed; keeps
	// near-unrelated content out of recommendations.
	similarityThreshold = 0.1

	// activityWindow bounds how far back personalized recommendations
	// look into the activity log.
	activityWindow = 30 * 24 * time.Hour

	// seedResources is how many of the most recent distinct accessed
	// resources seed the similarity expansion.
	seedResources = 3

	// similarPerSeed is the Similar() limit per seed resource.
	similarPerSeed = 3
)

// Service composes recommendations.
type Service struct {
	resources ResourceReader
	activity  ActivityReader
	profiles  ProfileReader
	scorer    Scorer
	cache     BundleCache
	now       func() time.Time
}

// New creates a recommendation service. cache may be nil (no memoization).
func New(
	resources ResourceReader,
	activity ActivityReader,
	profiles ProfileReader,
	scorer Scorer,
	cache BundleCache,
) *Service {
	return &Service{
		resources: resources,
		activity:  activity,
		profiles:  profiles,
		scorer:    scorer,
		cache:     cache,
		now:       time.Now,
	}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Trending returns the most popular approved resources within a faculty,
// popularity descending, ties broken by most recent view. A faculty with
// zero candidates falls back to GlobalTrending so the tier is never
// empty purely because a faculty is young.
func (s *Service) Trending(ctx context.Context, faculty string, limit int) ([]resource.Scored, error) {
	if faculty == "" {
		return nil, nil
	}
	candidates, err := s.resources.ListApproved(ctx, faculty)
	if err != nil {
		return nil, fmt.Errorf("list approved in %q: %w", faculty, err)
	}
	if len(candidates) == 0 {
		return s.GlobalTrending(ctx, limit)
	}

	sortByPopularity(candidates)
	results := make([]resource.Scored, 0, limit)
	for i := range candidates {
		if len(results) >= limit {
			break
		}
		res := candidates[i]
		results = append(results, resource.NewScored(res, res.Popularity(), trendingExplanation(&res)))
	}
	return results, nil
}

// GlobalTrending is Trending across every faculty; explanations name the
// originating faculty of each result.
func (s *Service) GlobalTrending(ctx context.Context, limit int) ([]resource.Scored, error) {
	candidates, err := s.resources.ListApproved(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list approved globally: %w", err)
	}
	sortByPopularity(candidates)

	results := make([]resource.Scored, 0, limit)
	for i := range candidates {
		if len(results) >= limit {
			break
		}
		res := candidates[i]
		results = append(results, resource.NewScored(res, res.Popularity(), globalTrendingExplanation(&res)))
	}
	return results, nil
}

// Similar returns approved resources from the same faculty whose content
// similarity to res exceeds the threshold, most similar first.
func (s *Service) Similar(ctx context.Context, res resource.Resource, limit int) ([]resource.Scored, error) {
	if res.Faculty() == "" {
		return nil, nil
	}
	candidates, err := s.resources.ListApproved(ctx, res.Faculty())
	if err != nil {
		return nil, fmt.Errorf("list approved in %q: %w", res.Faculty(), err)
	}

	base := res.SimilarityText()
	scored := make([]resource.Scored, 0, len(candidates))
	for i := range candidates {
		other := candidates[i]
		if other.Key() == res.Key() {
			continue
		}
		sim, err := s.scorer.Similarity(base, other.SimilarityText())
		if err != nil {
			// One bad candidate never fails the whole call.
			logger.FromContext(ctx).Warn("similarity scoring failed",
				zap.String("resource", res.Key()), zap.String("candidate", other.Key()), zap.Error(err))
			continue
		}
		if sim <= similarityThreshold {
			continue
		}
		explanation := fmt.Sprintf("Similar to '%s' - %.1f%% content match", res.Title(), sim*100)
		scored = append(scored, resource.NewScored(other, sim, explanation))
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score() > scored[j].Score() })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Personalized recommends resources by expanding the user's recent
// activity through content similarity, padding with faculty trending
// when the expansion runs short. A user with no activity gets their
// faculty's trending list, or nothing at all when no faculty is known
// (strict scoping: no signal, no cross-faculty content).
func (s *Service) Personalized(ctx context.Context, user string, limit int) ([]resource.Scored, error) {
	faculty := s.userFaculty(ctx, user)

	since := s.now().Add(-activityWindow)
	entries, err := s.activity.Recent(ctx, user, since)
	if err != nil {
		return nil, fmt.Errorf("recent activity for %q: %w", user, err)
	}

	accessed := s.resolveAccessed(ctx, entries)
	if len(accessed) == 0 {
		if faculty == "" {
			return nil, nil
		}
		return s.Trending(ctx, faculty, limit)
	}

	accessedKeys := make(map[string]struct{}, len(accessed))
	for i := range accessed {
		accessedKeys[accessed[i].Key()] = struct{}{}
	}

	seeds := accessed
	if len(seeds) > seedResources {
		seeds = seeds[:seedResources]
	}

	chosen := make([]resource.Scored, 0, limit)
	chosenKeys := make(map[string]struct{}, limit)
	for i := range seeds {
		similar, err := s.Similar(ctx, seeds[i], similarPerSeed)
		if err != nil {
			logger.FromContext(ctx).Warn("similar expansion failed",
				zap.String("seed", seeds[i].Key()), zap.Error(err))
			continue
		}
		for _, sc := range similar {
			res := sc.Resource()
			key := res.Key()
			if _, dup := chosenKeys[key]; dup {
				continue
			}
			if _, acc := accessedKeys[key]; acc {
				continue
			}
			chosenKeys[key] = struct{}{}
			chosen = append(chosen, sc)
		}
	}

	if len(chosen) < limit && faculty != "" {
		trending, err := s.Trending(ctx, faculty, limit)
		if err != nil {
			return nil, err
		}
		for _, sc := range trending {
			key := sc.Resource().Key()
			if _, dup := chosenKeys[key]; dup {
				continue
			}
			if _, acc := accessedKeys[key]; acc {
				continue
			}
			chosenKeys[key] = struct{}{}
			chosen = append(chosen, sc)
		}
	}

	if len(chosen) > limit {
		chosen = chosen[:limit]
	}
	return chosen, nil
}

// Bundle composes the three recommendation tiers for one user, memoized
// through the bundle cache: a fresh cached bundle is returned as-is
// (read-through); correctness relies on the activity write path
// invalidating the entry on every view/download.
func (s *Service) Bundle(ctx context.Context, user string, limit int) (resource.Bundle, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(ctx, user); ok {
			return b, nil
		}
	}

	b, err := s.composeBundle(ctx, user, limit)
	if err != nil {
		return resource.Bundle{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, user, b)
	}
	return b, nil
}

// FacultyOverview is the trending-only bundle for a faculty landing page.
func (s *Service) FacultyOverview(ctx context.Context, faculty string, limit int) (resource.Bundle, error) {
	if faculty == "" {
		return resource.Bundle{}, nil
	}
	trending, err := s.Trending(ctx, faculty, limit)
	if err != nil {
		return resource.Bundle{}, err
	}
	return resource.Bundle{Trending: trending}, nil
}

func (s *Service) composeBundle(ctx context.Context, user string, limit int) (resource.Bundle, error) {
	faculty := s.userFaculty(ctx, user)

	var b resource.Bundle
	var err error

	if faculty != "" {
		b.Trending, err = s.Trending(ctx, faculty, limit)
		if err != nil {
			return resource.Bundle{}, err
		}
	}

	b.Personalized, err = s.Personalized(ctx, user, limit)
	if err != nil {
		return resource.Bundle{}, err
	}

	if entry, err := s.activity.MostRecentView(ctx, user); err == nil {
		if res, err := s.resources.Get(ctx, entry.Category, entry.ContentID); err == nil && res.Approved() {
			b.Similar, err = s.Similar(ctx, res, limit)
			if err != nil {
				return resource.Bundle{}, err
			}
		}
	}
	if len(b.Similar) == 0 && len(b.Trending) > 0 {
		b.Similar = b.Trending
	}

	return b, nil
}

// userFaculty resolves a user's faculty: explicit profile assignment
// first, else the faculty of the most recent resolvable activity entry.
// Resolution failures yield "" rather than an error: a missing faculty
// only narrows what can be recommended.
func (s *Service) userFaculty(ctx context.Context, user string) string {
	if faculty, err := s.profiles.FacultyOf(ctx, user); err == nil && faculty != "" {
		return faculty
	}

	entries, err := s.activity.Recent(ctx, user, time.Time{})
	if err != nil {
		return ""
	}
	for i := range entries {
		res, err := s.resources.Get(ctx, entries[i].Category, entries[i].ContentID)
		if err != nil {
			if !errors.Is(err, domain.ErrResourceNotFound) {
				logger.FromContext(ctx).Warn("activity resolution failed",
					zap.String("entry", entries[i].Key()), zap.Error(err))
			}
			continue
		}
		if res.Approved() && res.Faculty() != "" {
			return res.Faculty()
		}
	}
	return ""
}

// resolveAccessed maps activity entries to approved resources, newest
// first, deduplicated by category-qualified id. Unresolvable entries
// and resources that are pending or rejected are skipped.
func (s *Service) resolveAccessed(ctx context.Context, entries []resource.ActivityEntry) []resource.Resource {
	seen := make(map[string]struct{}, len(entries))
	out := make([]resource.Resource, 0, len(entries))
	for i := range entries {
		key := entries[i].Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res, err := s.resources.Get(ctx, entries[i].Category, entries[i].ContentID)
		if err != nil || !res.Approved() {
			continue
		}
		out = append(out, res)
	}
	return out
}

// sortByPopularity sorts descending by popularity score, ties broken by
// most recent view.
func sortByPopularity(resources []resource.Resource) {
	sort.SliceStable(resources, func(i, j int) bool {
		pi, pj := resources[i].Popularity(), resources[j].Popularity()
		if pi != pj {
			return pi > pj
		}
		return resources[i].LastViewed().After(resources[j].LastViewed())
	})
}

func trendingExplanation(res *resource.Resource) string {
	if res.Category().Downloadable() {
		return fmt.Sprintf("Trending in %s - %d views, %d downloads",
			res.Faculty(), res.ViewCount(), res.DownloadCount())
	}
	return fmt.Sprintf("Trending in %s - %d views", res.Faculty(), res.ViewCount())
}

func globalTrendingExplanation(res *resource.Resource) string {
	faculty := res.Faculty()
	if faculty == "" {
		faculty = "Unknown Faculty"
	}
	if res.Category().Downloadable() {
		return fmt.Sprintf("Popular across all faculties - %s - %d views, %d downloads",
			faculty, res.ViewCount(), res.DownloadCount())
	}
	return fmt.Sprintf("Popular across all faculties - %s - %d views", faculty, res.ViewCount())
}
