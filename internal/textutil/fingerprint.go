package textutil

import (
	"math"
	"regexp"
	"strings"
)

var termSplit = regexp.MustCompile(`[^a-z0-9]+`)

// stopTerms appear in nearly every goal block and carry no signal.
var stopTerms = map[string]struct{}{
	"the":  {},
	"and":  {},
	"for":  {},
	"with": {},
	"will": {},
	"our":  {},
	"that": {},
	"this": {},
	"all":  {},
	"are":  {},
}

// Fingerprint is a weighted term vector over one block of text.
type Fingerprint struct {
	weights map[string]float64
	norm    float64
}

// NewFingerprint counts the searchable terms in text. It returns nil when
// nothing survives tokenization.
func NewFingerprint(text string) *Fingerprint {
	terms := Tokenize(text)
	if len(terms) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	return newFingerprint(counts)
}

func newFingerprint(weights map[string]float64) *Fingerprint {
	if len(weights) == 0 {
		return nil
	}
	var sum float64
	for _, w := range weights {
		sum += w * w
	}
	return &Fingerprint{weights: weights, norm: math.Sqrt(sum)}
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit. Terms shorter than three characters and stop terms are dropped.
func Tokenize(text string) []string {
	parts := termSplit.Split(strings.ToLower(text), -1)
	terms := parts[:0]
	for _, part := range parts {
		if len(part) < 3 {
			continue
		}
		if _, stop := stopTerms[part]; stop {
			continue
		}
		terms = append(terms, part)
	}
	return terms
}

// Terms reports the number of distinct terms in f.
func (f *Fingerprint) Terms() int {
	if f == nil {
		return 0
	}
	return len(f.weights)
}

// Weighted scales each term by idf. Terms missing from idf keep their count;
// terms weighted to zero are removed. The result is nil when no term remains.
func (f *Fingerprint) Weighted(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weights := make(map[string]float64, len(f.weights))
	for term, w := range f.weights {
		if v, ok := idf[term]; ok {
			w *= v
		}
		if w != 0 {
			weights[term] = w
		}
	}
	return newFingerprint(weights)
}

// Cosine returns the cosine of the angle between a and b, in [0, 1] for
// non-negative weights. Nil or zero vectors score 0.
func Cosine(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a, b
	if len(small.weights) > len(large.weights) {
		small, large = large, small
	}
	var dot float64
	for term, w := range small.weights {
		dot += w * large.weights[term]
	}
	return dot / (a.norm * b.norm)
}
