package recommend

import (
	"context"
	"time"

	"github.com/campusworks/studyrank/internal/domain/resource"
)

// ResourceReader reads approved resources from the external store.
type ResourceReader interface {
	// ListApproved returns approved resources within a faculty; an empty
	// faculty means every faculty.
	ListApproved(ctx context.Context, faculty string) ([]resource.Resource, error)

	// Get returns one resource by category and id.
	Get(ctx context.Context, category resource.Category, id string) (resource.Resource, error)
}

// ActivityReader reads the user activity log.
type ActivityReader interface {
	// Recent returns the user's activity entries since the given time,
	// newest first.
	Recent(ctx context.Context, user string, since time.Time) ([]resource.ActivityEntry, error)

	// MostRecentView returns the user's latest view entry, or
	// domain.ErrNotFound when the user has never viewed anything.
	MostRecentView(ctx context.Context, user string) (resource.ActivityEntry, error)
}

// ProfileReader resolves a user's explicit faculty assignment.
type ProfileReader interface {
	// FacultyOf returns the user's profile faculty, or "" when the
	// profile carries none.
	FacultyOf(ctx context.Context, user string) (string, error)
}

// Scorer computes pairwise content similarity in [0,1].
type Scorer interface {
	Similarity(text1, text2 string) (float64, error)
}

// BundleCache memoizes composed recommendation bundles per user.
type BundleCache interface {
	// Get returns a cached bundle; ok=false on miss or any backend
	// failure (a broken cache degrades to always-recompute).
	Get(ctx context.Context, user string) (resource.Bundle, bool)

	// Set stores a bundle under the cache TTL. Failures are logged by
	// the implementation, never surfaced.
	Set(ctx context.Context, user string, b resource.Bundle)

	// Invalidate removes the user's cached bundle.
	Invalidate(ctx context.Context, user string)
}
