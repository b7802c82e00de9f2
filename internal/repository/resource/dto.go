package resource

import (
	"strconv"
	"strings"
	"time"

	domres "github.com/campusworks/studyrank/internal/domain/resource"
)

const (
	fieldTitle         = "title"
	fieldDescription   = "description"
	fieldContent       = "content"
	fieldSubject       = "subject"
	fieldFaculty       = "faculty"
	fieldStatus        = "status"
	fieldViewCount     = "view_count"
	fieldDownloadCount = "download_count"
	fieldLastViewed    = "last_viewed"
)

// buildHashFields converts a domain Resource into a flat map[string]string for HSET.
func buildHashFields(res *domres.Resource) map[string]string {
	return map[string]string{
		fieldTitle:         res.Title(),
		fieldDescription:   res.Description(),
		fieldContent:       res.Content(),
		fieldSubject:       res.Subject(),
		fieldFaculty:       res.Faculty(),
		fieldStatus:        string(res.Status()),
		fieldViewCount:     strconv.FormatInt(res.ViewCount(), 10),
		fieldDownloadCount: strconv.FormatInt(res.DownloadCount(), 10),
		fieldLastViewed:    formatTime(res.LastViewed()),
	}
}

// parseHashFields converts a flat hash map back into a domain Resource.
func parseHashFields(id string, category domres.Category, m map[string]string) domres.Resource {
	views, _ := strconv.ParseInt(m[fieldViewCount], 10, 64)
	downloads, _ := strconv.ParseInt(m[fieldDownloadCount], 10, 64)
	return domres.Reconstruct(
		id, category,
		m[fieldTitle], m[fieldDescription], m[fieldContent],
		m[fieldSubject], m[fieldFaculty],
		domres.Status(m[fieldStatus]),
		views, downloads,
		parseTime(m[fieldLastViewed]),
	)
}

// splitMember splits an index member "category:id" into its parts.
func splitMember(member string) (domres.Category, string, bool) {
	raw, id, ok := strings.Cut(member, ":")
	if !ok || id == "" {
		return "", "", false
	}
	category, err := domres.ParseCategory(raw)
	if err != nil {
		return "", "", false
	}
	return category, id, true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
