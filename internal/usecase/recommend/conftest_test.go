package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/campusworks/studyrank/internal/domain"
	"github.com/campusworks/studyrank/internal/domain/resource"
	"github.com/campusworks/studyrank/internal/vectorspace"
)

// mockResources implements ResourceReader over an in-memory slice.
type mockResources struct {
	all     []resource.Resource
	listErr error
}

func (m *mockResources) ListApproved(_ context.Context, faculty string) ([]resource.Resource, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]resource.Resource, 0, len(m.all))
	for _, r := range m.all {
		if !r.Approved() {
			continue
		}
		if faculty != "" && r.Faculty() != faculty {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Get returns the resource regardless of status, matching the
// production repository; status filtering is the service's job.
func (m *mockResources) Get(_ context.Context, category resource.Category, id string) (resource.Resource, error) {
	for _, r := range m.all {
		if r.Category() == category && r.ID() == id {
			return r, nil
		}
	}
	return resource.Resource{}, domain.ErrResourceNotFound
}

// mockActivity implements ActivityReader over a fixed entry list
// (assumed newest first).
type mockActivity struct {
	entries []resource.ActivityEntry
}

func (m *mockActivity) Recent(_ context.Context, user string, since time.Time) ([]resource.ActivityEntry, error) {
	out := make([]resource.ActivityEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.User != user {
			continue
		}
		if !since.IsZero() && e.OccurredAt.Before(since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockActivity) MostRecentView(_ context.Context, user string) (resource.ActivityEntry, error) {
	for _, e := range m.entries {
		if e.User == user && e.Kind == resource.ActivityView {
			return e, nil
		}
	}
	return resource.ActivityEntry{}, domain.ErrNotFound
}

// mockProfiles implements ProfileReader.
type mockProfiles struct {
	faculties map[string]string
}

func (m *mockProfiles) FacultyOf(_ context.Context, user string) (string, error) {
	return m.faculties[user], nil
}

// mockScorer returns canned pairwise similarities keyed by unordered
// text pair; falls back to the real vectorspace scorer when no canned
// value exists.
type mockScorer struct {
	scores map[[2]string]float64
}

func (m *mockScorer) Similarity(a, b string) (float64, error) {
	if s, ok := m.scores[[2]string{a, b}]; ok {
		return s, nil
	}
	if s, ok := m.scores[[2]string{b, a}]; ok {
		return s, nil
	}
	return vectorspace.New().Similarity(a, b)
}

// memCache is an in-memory BundleCache for tests.
type memCache struct {
	bundles map[string]resource.Bundle
	gets    int
	hits    int
	sets    int
}

func newMemCache() *memCache {
	return &memCache{bundles: make(map[string]resource.Bundle)}
}

func (c *memCache) Get(_ context.Context, user string) (resource.Bundle, bool) {
	c.gets++
	b, ok := c.bundles[user]
	if ok {
		c.hits++
	}
	return b, ok
}

func (c *memCache) Set(_ context.Context, user string, b resource.Bundle) {
	c.sets++
	c.bundles[user] = b
}

func (c *memCache) Invalidate(_ context.Context, user string) {
	delete(c.bundles, user)
}

func approved(
	t *testing.T, id string, cat resource.Category, title, faculty string,
	views, downloads int64, lastViewed time.Time,
) resource.Resource {
	t.Helper()
	return resource.Reconstruct(
		id, cat, title, "", "", "Computer Science", faculty,
		resource.StatusApproved, views, downloads, lastViewed,
	)
}

func rejected(
	t *testing.T, id string, cat resource.Category, title, faculty string,
	views, downloads int64, lastViewed time.Time,
) resource.Resource {
	t.Helper()
	return resource.Reconstruct(
		id, cat, title, "", "", "Computer Science", faculty,
		resource.StatusRejected, views, downloads, lastViewed,
	)
}

func newService(res *mockResources, act *mockActivity, prof *mockProfiles) *Service {
	return New(res, act, prof, vectorspace.New(), nil)
}
