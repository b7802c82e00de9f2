package resource

import "time"

// ActivityKind distinguishes views from downloads in the activity log.
type ActivityKind string

const (
	ActivityView     ActivityKind = "view"
	ActivityDownload ActivityKind = "download"
)

// ActivityEntry is one view or download event from the activity log.
type ActivityEntry struct {
	User       string
	Kind       ActivityKind
	Category   Category
	ContentID  string
	OccurredAt time.Time
}

// Key returns the category-qualified identity of the accessed resource.
func (e ActivityEntry) Key() string { return string(e.Category) + ":" + e.ContentID }
