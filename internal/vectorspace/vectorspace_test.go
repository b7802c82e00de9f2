package vectorspace

import (
	"math"
	"testing"

	"github.com/campusworks/studyrank/internal/analyzer"
)

func TestCosine_ZeroVector(t *testing.T) {
	v := Vector{"data": 0.5, "structur": 0.3}
	if got := Cosine(v, Vector{}); got != 0 {
		t.Errorf("Cosine(v, zero) = %f, want 0", got)
	}
	if got := Cosine(Vector{}, v); got != 0 {
		t.Errorf("Cosine(zero, v) = %f, want 0", got)
	}
	if got := Cosine(Vector{}, Vector{}); got != 0 {
		t.Errorf("Cosine(zero, zero) = %f, want 0", got)
	}
}

func TestCosine_Symmetry(t *testing.T) {
	a := Vector{"data": 0.8, "structur": 0.2, "algorithm": 0.4}
	b := Vector{"data": 0.1, "network": 0.9}
	if Cosine(a, b) != Cosine(b, a) {
		t.Errorf("Cosine not symmetric: %f vs %f", Cosine(a, b), Cosine(b, a))
	}
}

func TestCosine_IdenticalVectors(t *testing.T) {
	v := Vector{"data": 0.5, "structur": 0.25}
	if got := Cosine(v, v); math.Abs(got-1) > 1e-9 {
		t.Errorf("Cosine(v, v) = %f, want 1", got)
	}
}

func TestCosine_DisjointVectors(t *testing.T) {
	a := Vector{"data": 0.5}
	b := Vector{"network": 0.5}
	if got := Cosine(a, b); got != 0 {
		t.Errorf("Cosine(disjoint) = %f, want 0", got)
	}
}

func TestCosine_Range(t *testing.T) {
	a := Vector{"data": 0.7, "structur": 0.1}
	b := Vector{"data": 0.2, "structur": 0.9, "tree": 0.3}
	got := Cosine(a, b)
	if got < 0 || got > 1 {
		t.Errorf("Cosine = %f, want value in [0,1]", got)
	}
}

func TestBuildVectors_EmptyCorpus(t *testing.T) {
	b := New()
	q, docs, err := b.BuildVectors("data structures", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q) != 0 || len(docs) != 0 {
		t.Errorf("expected empty vectors, got query=%v docs=%v", q, docs)
	}
}

func TestBuildVectors_AllDocsNormalizeAway(t *testing.T) {
	b := New()
	q, docs, err := b.BuildVectors("data structures", []string{"123", "!!!", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q) != 0 {
		t.Errorf("query vector should be empty, got %v", q)
	}
	for i, d := range docs {
		if len(d) != 0 {
			t.Errorf("doc %d vector should be empty, got %v", i, d)
		}
	}
}

func TestBuildVectors_QueryMatchesRelevantDoc(t *testing.T) {
	b := New()
	q, docs, err := b.BuildVectors("data structures", []string{
		"Data Structures Notes covering trees and graphs",
		"Operating Systems Notes covering scheduling",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 doc vectors, got %d", len(docs))
	}
	s0 := Cosine(q, docs[0])
	s1 := Cosine(q, docs[1])
	if s0 <= 0 {
		t.Errorf("relevant doc scored %f, want > 0", s0)
	}
	if s0 <= s1 {
		t.Errorf("relevant doc scored %f, irrelevant %f; want s0 > s1", s0, s1)
	}
}

// termsOf exposes the normalized unigram+bigram terms of a text.
func termsOf(text string) []string {
	return ngrams(analyzer.Tokens(text))
}

func TestBuildVectors_BigramsIncluded(t *testing.T) {
	terms := termsOf("data structures algorithms")
	var hasBigram bool
	for _, term := range terms {
		if term == "data structur" {
			hasBigram = true
		}
	}
	if !hasBigram {
		t.Errorf("expected bigram \"data structur\" in %v", terms)
	}
}

func TestSimilarity_IdenticalTexts(t *testing.T) {
	b := New()
	got, err := b.Similarity(
		"Data Structures and Algorithms Notes",
		"Data Structures and Algorithms Notes",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("Similarity(identical) = %f, want 1", got)
	}
}

func TestSimilarity_UnrelatedTexts(t *testing.T) {
	b := New()
	got, err := b.Similarity(
		"Organic chemistry reaction mechanisms",
		"Database normalization third normal form",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("Similarity(unrelated) = %f, want 0", got)
	}
}

func TestSimilarity_EmptyInput(t *testing.T) {
	b := New()
	for _, pair := range [][2]string{{"", "notes"}, {"notes", ""}, {"", ""}, {"123", "notes"}} {
		got, err := b.Similarity(pair[0], pair[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("Similarity(%q, %q) = %f, want 0", pair[0], pair[1], got)
		}
	}
}

func TestSimilarity_PartialOverlapBetweenZeroAndOne(t *testing.T) {
	b := New()
	got, err := b.Similarity(
		"Data Structures Notes on binary trees",
		"Data Structures question bank with graph problems",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got <= 0 || got >= 1 {
		t.Errorf("Similarity(partial overlap) = %f, want in (0,1)", got)
	}
}
