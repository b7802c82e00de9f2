// Package vectorspace builds per-request TF-IDF vector spaces over small
// candidate corpora and computes cosine similarity between vectors. The
// vocabulary is refitted for every call; weights are never comparable
// across requests.
package vectorspace

import (
	"math"
	"sort"

	"github.com/campusworks/studyrank/internal/analyzer"
)

// Vector maps a term (unigram or bigram) to a non-negative TF-IDF weight.
type Vector map[string]float64

const (
	// maxVocabulary caps the fitted vocabulary size.
	maxVocabulary = 1000
	// maxDocFreqRatio excludes terms appearing in more than 95% of
	// documents: near-universal terms carry no discriminative power.
	maxDocFreqRatio = 0.95
)

// Builder fits TF-IDF vector spaces. The zero value is ready to use.
type Builder struct{}

// New creates a Builder.
func New() *Builder {
	return &Builder{}
}

// BuildVectors normalizes the query and document texts, fits a joint
// unigram+bigram vocabulary with the query included as a synthetic
// document, and returns TF-IDF vectors for the query and each document.
//
// A degenerate corpus (no documents, or everything normalized away) yields
// empty vectors rather than an error; callers fall back to lexical scoring.
func (b *Builder) BuildVectors(query string, texts []string) (Vector, []Vector, error) {
	docVectors := make([]Vector, len(texts))
	if len(texts) == 0 {
		return Vector{}, docVectors, nil
	}

	terms := make([][]string, 0, len(texts)+1)
	terms = append(terms, ngrams(analyzer.Tokens(query)))
	empty := true
	for _, t := range texts {
		toks := ngrams(analyzer.Tokens(t))
		if len(toks) > 0 {
			empty = false
		}
		terms = append(terms, toks)
	}
	if empty {
		for i := range docVectors {
			docVectors[i] = Vector{}
		}
		return Vector{}, docVectors, nil
	}

	vocab := fitVocabulary(terms)
	vectors := weigh(terms, vocab)

	return vectors[0], vectors[1:], nil
}

// Similarity computes the pairwise TF-IDF cosine similarity of two texts
// by fitting a two-document corpus. Returns 0 when either side normalizes
// to nothing.
func (b *Builder) Similarity(text1, text2 string) (float64, error) {
	if text1 == "" || text2 == "" {
		return 0, nil
	}
	t1 := ngrams(analyzer.Tokens(text1))
	t2 := ngrams(analyzer.Tokens(text2))
	if len(t1) == 0 || len(t2) == 0 {
		return 0, nil
	}
	// No max-df pruning for a two-document corpus: a shared term has
	// df=2 and would always be cut, forcing every similarity to zero.
	terms := [][]string{t1, t2}
	vectors := weigh(terms, capVocabulary(docFrequencies(terms)))
	return Cosine(vectors[0], vectors[1]), nil
}

// Cosine computes the cosine similarity of two term vectors in [0,1].
// Either vector having zero magnitude yields exactly 0; no division by zero.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller vector.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	if dot == 0 {
		return 0
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

func norm(v Vector) float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// ngrams expands a token list into unigrams plus adjacent bigrams.
func ngrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// fitVocabulary selects up to maxVocabulary terms across the corpus,
// excluding terms present in more than maxDocFreqRatio of documents.
// Returns the document frequency per kept term.
func fitVocabulary(docs [][]string) map[string]int {
	df := docFrequencies(docs)

	cutoff := int(maxDocFreqRatio * float64(len(docs)))
	if cutoff < 1 {
		cutoff = 1
	}
	for t, f := range df {
		if f > cutoff {
			delete(df, t)
		}
	}

	return capVocabulary(df)
}

func docFrequencies(docs [][]string) map[string]int {
	df := make(map[string]int)
	for _, terms := range docs {
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	return df
}

// capVocabulary keeps at most maxVocabulary terms: the most frequent win,
// ties broken lexicographically.
func capVocabulary(df map[string]int) map[string]int {
	if len(df) <= maxVocabulary {
		return df
	}
	type termFreq struct {
		term string
		df   int
	}
	all := make([]termFreq, 0, len(df))
	for t, f := range df {
		all = append(all, termFreq{t, f})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].df != all[j].df {
			return all[i].df > all[j].df
		}
		return all[i].term < all[j].term
	})
	kept := make(map[string]int, maxVocabulary)
	for _, tf := range all[:maxVocabulary] {
		kept[tf.term] = tf.df
	}
	return kept
}

// weigh computes tf*idf vectors for every document against the fitted
// vocabulary: tf = count/totalTerms over vocabulary terms, smoothed
// idf = ln((1+N)/(1+df)) + 1. The smoothing keeps corpus-wide terms at a
// positive weight; the raw ln(N/df) form zeroes every shared term in a
// two-document corpus and degenerates pairwise similarity to 0.
func weigh(docs [][]string, vocab map[string]int) []Vector {
	n := float64(len(docs))
	vectors := make([]Vector, len(docs))
	for i, terms := range docs {
		v := make(Vector)
		counts := make(map[string]int, len(terms))
		total := 0
		for _, t := range terms {
			if _, ok := vocab[t]; !ok {
				continue
			}
			counts[t]++
			total++
		}
		if total == 0 {
			vectors[i] = v
			continue
		}
		for t, c := range counts {
			tf := float64(c) / float64(total)
			idf := math.Log((1+n)/(1+float64(vocab[t]))) + 1
			v[t] = tf * idf
		}
		vectors[i] = v
	}
	return vectors
}
