package resource

// Scored is a resource annotated with a relevance score and a
// human-readable explanation of why it was chosen.
type Scored struct {
	res         Resource
	score       float64
	explanation string
}

// NewScored creates a scored result.
func NewScored(res Resource, score float64, explanation string) Scored {
	return Scored{res: res, score: score, explanation: explanation}
}

// Resource returns the underlying resource.
func (s Scored) Resource() Resource { return s.res }

// Score returns the relevance score (always > 0 in ranked output).
func (s Scored) Score() float64 { return s.score }

// Explanation returns the explanation string.
func (s Scored) Explanation() string { return s.explanation }

// Bundle is the three-tier recommendation output for one user.
type Bundle struct {
	Trending     []Scored
	Similar      []Scored
	Personalized []Scored
}
