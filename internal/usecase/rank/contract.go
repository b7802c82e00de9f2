package rank

import "github.com/campusworks/studyrank/internal/vectorspace"

// Vectorizer fits a per-request vector space and scores texts. It is
// injectable so the lexical fallback path can be exercised in tests
// without simulating numeric failure modes of the real builder.
type Vectorizer interface {
	// BuildVectors returns the query vector and one vector per text,
	// all in the same fitted vocabulary. Degenerate input yields empty
	// vectors, not an error.
	BuildVectors(query string, texts []string) (vectorspace.Vector, []vectorspace.Vector, error)

	// Similarity computes the pairwise similarity of two texts in [0,1].
	Similarity(text1, text2 string) (float64, error)
}
