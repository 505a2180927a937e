package textutil

import (
	"errors"
	"math"
	"sort"
)

// ErrNoTerms is returned for a query with nothing searchable in it.
var ErrNoTerms = errors.New("query has no searchable terms")

// Match is one ranked document.
type Match struct {
	ID    string
	Score float64
}

// Index ranks documents against free-text queries by TF-IDF cosine
// similarity. Document frequencies cover every added document.
type Index struct {
	ids  []string
	docs []*Fingerprint
	df   map[string]int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{df: make(map[string]int)}
}

// Add registers text under id. Text without searchable terms still counts
// toward the document total but never matches.
func (x *Index) Add(id, text string) {
	fp := NewFingerprint(text)
	x.ids = append(x.ids, id)
	x.docs = append(x.docs, fp)
	if fp == nil {
		return
	}
	for term := range fp.weights {
		x.df[term]++
	}
}

// Len reports the number of added documents.
func (x *Index) Len() int {
	return len(x.ids)
}

// IDF returns log((N+1)/(1+df)) for every indexed term. A term present in
// every document weighs zero.
func (x *Index) IDF() map[string]float64 {
	if len(x.ids) == 0 {
		return nil
	}
	n := float64(len(x.ids))
	idf := make(map[string]float64, len(x.df))
	for term, df := range x.df {
		idf[term] = math.Log((n + 1) / (1 + float64(df)))
	}
	return idf
}

// Rank scores every document against query and returns those with a positive
// score, best first. Equal scores keep insertion order.
func (x *Index) Rank(query string) ([]Match, error) {
	q := NewFingerprint(query)
	if q == nil {
		return nil, ErrNoTerms
	}
	idf := x.IDF()
	q = q.Weighted(idf)

	matches := make([]Match, 0, len(x.docs))
	for i, doc := range x.docs {
		score := Cosine(q, doc.Weighted(idf))
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{ID: x.ids[i], Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}
