package matching

import (
	"errors"
	"math"
	"regexp"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyVocabulary is returned when no document contributes a single term
// after tokenization and stop word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no tokens")

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vector is a dense, L2-normalized TF-IDF row.
type Vector []float64

// Tokenize lowercases text and returns word tokens of two or more characters,
// with stop words removed.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if !IsStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Vectorizer builds TF-IDF vectors over a fixed document collection.
// Terms are weighted by raw count times smoothed idf, ln((1+n)/(1+df))+1.
type Vectorizer struct {
	// Terms holds the fitted vocabulary in column order.
	Terms []string
	// IDF holds the weight per column.
	IDF []float64
}

// FitTransform learns the vocabulary and idf weights from docs and returns one
// vector per document, in order. Vocabulary and weights are shared across all
// documents, so scores computed from the result are comparable.
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, error) {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tokens := Tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	v.Terms = make([]string, 0, len(df))
	for term := range df {
		v.Terms = append(v.Terms, term)
	}
	slices.Sort(v.Terms)

	column := make(map[string]int, len(v.Terms))
	v.IDF = make([]float64, len(v.Terms))
	n := float64(len(docs))
	for i, term := range v.Terms {
		column[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i, tokens := range tokenized {
		vec := make(Vector, len(v.Terms))
		for _, tok := range tokens {
			vec[column[tok]]++
		}
		floats.Mul(vec, v.IDF)
		if norm := floats.Norm(vec, 2); norm > 0 {
			floats.Scale(1/norm, vec)
		}
		vectors[i] = vec
	}

	return vectors, nil
}

// Cosine returns the cosine similarity of two equally sized vectors clamped to [0, 1].
// A zero vector has similarity 0 with anything.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}

	sim := floats.Dot(a, b) / (na * nb)
	switch {
	case math.IsNaN(sim) || sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}
