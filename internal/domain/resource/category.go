package resource

import (
	"fmt"

	"github.com/campusworks/studyrank/internal/domain"
)

// Category tags the kind of study resource. Ranking and recommendation logic
// is generic over the common Resource fields; category-specific behavior lives
// in the categoryInfo lookup table.
type Category string

const (
	Note         Category = "note"
	Syllabus     Category = "syllabus"
	QuestionBank Category = "questionbank"
	Chapter      Category = "chapter"
	Viva         Category = "viva"
	Textbook     Category = "textbook"
	Practical    Category = "practical"
)

type categoryInfo struct {
	label        string
	slug         string // plural URL/grouping slug
	downloadable bool
}

var categories = map[Category]categoryInfo{
	Note:         {label: "Note", slug: "notes", downloadable: true},
	Syllabus:     {label: "Syllabus", slug: "syllabi", downloadable: true},
	QuestionBank: {label: "Question Bank", slug: "question_banks", downloadable: true},
	Chapter:      {label: "Chapter", slug: "chapters", downloadable: true},
	Viva:         {label: "Viva", slug: "vivas", downloadable: false},
	Textbook:     {label: "Textbook", slug: "textbooks", downloadable: true},
	Practical:    {label: "Practical", slug: "practicals", downloadable: true},
}

// ParseCategory converts a string tag into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownCategory, s)
	}
	return c, nil
}

// AllCategories returns every known category in a stable order.
func AllCategories() []Category {
	return []Category{Note, Syllabus, QuestionBank, Chapter, Viva, Textbook, Practical}
}

// Label returns the human-readable category name.
func (c Category) Label() string { return categories[c].label }

// Slug returns the plural grouping slug used for search result buckets and URLs.
func (c Category) Slug() string { return categories[c].slug }

// Downloadable reports whether the category supports file downloads.
// Vivas are view-only.
func (c Category) Downloadable() bool { return categories[c].downloadable }

// Valid reports whether the category is known.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}
