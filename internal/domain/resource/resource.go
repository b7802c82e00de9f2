package resource

import (
	"fmt"
	"strings"
	"time"

	"github.com/campusworks/studyrank/internal/domain"
)

// Status gates which resources are visible to ranking and recommendations.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// MaxContentSize is the maximum resource content size in bytes.
const MaxContentSize = 163840 // 160KB

// Resource is a study resource snapshot (immutable value object).
// The external store owns the lifecycle; the engine reads per-request snapshots.
type Resource struct {
	id            string
	category      Category
	title         string
	description   string
	content       string
	subject       string
	faculty       string
	status        Status
	viewCount     int64
	downloadCount int64
	lastViewed    time.Time
}

// New validates and creates a Resource.
func New(id string, category Category, title string) (Resource, error) {
	if id == "" {
		return Resource{}, fmt.Errorf("%w: id is required", domain.ErrInvalidResource)
	}
	if !category.Valid() {
		return Resource{}, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}
	if title == "" {
		return Resource{}, fmt.Errorf("%w: title is required", domain.ErrInvalidResource)
	}
	return Resource{id: id, category: category, title: title, status: StatusPending}, nil
}

// Reconstruct creates a Resource without validation (storage hydration).
func Reconstruct(
	id string, category Category, title, description, content, subject, faculty string,
	status Status, viewCount, downloadCount int64, lastViewed time.Time,
) Resource {
	return Resource{
		id: id, category: category, title: title,
		description: description, content: content,
		subject: subject, faculty: faculty, status: status,
		viewCount: viewCount, downloadCount: downloadCount, lastViewed: lastViewed,
	}
}

// ID returns the resource identifier.
func (r Resource) ID() string { return r.id }

// Category returns the resource category tag.
func (r Resource) Category() Category { return r.category }

// Title returns the resource title.
func (r Resource) Title() string { return r.title }

// Description returns the short description.
func (r Resource) Description() string { return r.description }

// Content returns the body text (syllabi carry content inline).
func (r Resource) Content() string { return r.content }

// Subject returns the subject grouping name.
func (r Resource) Subject() string { return r.subject }

// Faculty returns the top-level faculty scope.
func (r Resource) Faculty() string { return r.faculty }

// Status returns the approval status.
func (r Resource) Status() Status { return r.status }

// Approved reports whether the resource is visible to students.
func (r Resource) Approved() bool { return r.status == StatusApproved }

// ViewCount returns the total view counter.
func (r Resource) ViewCount() int64 { return r.viewCount }

// DownloadCount returns the total download counter.
func (r Resource) DownloadCount() int64 { return r.downloadCount }

// LastViewed returns the time of the most recent view (zero if never viewed).
func (r Resource) LastViewed() time.Time { return r.lastViewed }

// Key returns the category-qualified identity used for de-duplication.
// Counters in different categories may share raw ids.
func (r Resource) Key() string { return string(r.category) + ":" + r.id }

// SearchText concatenates the weighted text fields for vectorization.
// The title appears twice so title terms dominate the term frequencies,
// followed by description, content, and the subject and faculty names
// for contextual relevance.
func (r Resource) SearchText() string {
	parts := make([]string, 0, 6)
	if r.title != "" {
		parts = append(parts, r.title, r.title)
	}
	if r.description != "" {
		parts = append(parts, r.description)
	}
	if r.content != "" {
		parts = append(parts, r.content)
	}
	if r.subject != "" {
		parts = append(parts, r.subject)
		if r.faculty != "" {
			parts = append(parts, r.faculty)
		}
	}
	return strings.Join(parts, " ")
}

// SimilarityText concatenates title, content, and description for
// resource-to-resource similarity.
func (r Resource) SimilarityText() string {
	return strings.TrimSpace(r.title + " " + r.content + " " + r.description)
}

// Popularity computes the popularity score used by trending:
// views + 2x downloads for downloadable categories; view-only
// categories count views at 1.5x since downloads never accrue.
func (r Resource) Popularity() float64 {
	if r.category.Downloadable() {
		return float64(r.viewCount) + 2*float64(r.downloadCount)
	}
	return float64(r.viewCount) * 1.5
}
