package textutil

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"short and stop terms", "All of the ML students will grow", []string{"students", "grow"}},
		{"punctuation", "Grades 3-5: 41% met standard (SBA)", []string{"grades", "met", "standard", "sba"}},
		{"digits kept", "Increase 2025 proficiency", []string{"increase", "2025", "proficiency"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.in)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Tokenize(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestNewFingerprint(t *testing.T) {
	if fp := NewFingerprint("a an to"); fp != nil {
		t.Fatalf("expected nil fingerprint, got %d terms", fp.Terms())
	}
	fp := NewFingerprint("reading reading fluency")
	if fp.Terms() != 2 {
		t.Fatalf("expected 2 terms, got %d", fp.Terms())
	}
	if want := math.Sqrt(5); math.Abs(fp.norm-want) > 1e-9 {
		t.Fatalf("norm = %f, want %f", fp.norm, want)
	}
}

func TestCosine(t *testing.T) {
	math1 := NewFingerprint("math intervention blocks for grades 3-5")
	math2 := NewFingerprint("math intervention blocks for grades 3-5")
	sel := NewFingerprint("restorative circles and attendance outreach")
	partial := NewFingerprint("math fluency routines")

	if got := Cosine(math1, math2); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical text scored %f", got)
	}
	if got := Cosine(math1, sel); got != 0 {
		t.Fatalf("disjoint text scored %f", got)
	}
	got := Cosine(math1, partial)
	if got <= 0 || got >= 1 {
		t.Fatalf("partial overlap scored %f", got)
	}
	if rev := Cosine(partial, math1); math.Abs(rev-got) > 1e-9 {
		t.Fatalf("cosine not symmetric: %f vs %f", got, rev)
	}
	if Cosine(nil, math1) != 0 || Cosine(math1, nil) != 0 {
		t.Fatal("nil fingerprint should score 0")
	}
}

func TestWeightedDropsZeroTerms(t *testing.T) {
	fp := NewFingerprint("math literacy")
	weighted := fp.Weighted(map[string]float64{"math": 0, "literacy": 2})
	if weighted.Terms() != 1 {
		t.Fatalf("expected 1 weighted term, got %d", weighted.Terms())
	}
	if fp.Weighted(map[string]float64{"math": 0, "literacy": 0}) != nil {
		t.Fatal("expected nil when every term weighs zero")
	}
	if fp.Weighted(nil) != fp {
		t.Fatal("expected empty idf to return the fingerprint unchanged")
	}
}

func TestIndexRank(t *testing.T) {
	x := NewIndex()
	x.Add("lincoln-math", "Priority Area: Math. Focus Area: fraction fluency. Desired Outcome: grades 3-5 students meet standard in math")
	x.Add("lincoln-ela", "Priority Area: ELA. Focus Area: phonics. Desired Outcome: K-2 students read at grade level")
	x.Add("adams-math", "Priority Area: Math. Focus Area: algebra readiness. Desired Outcome: grade 8 students meet standard in math")
	x.Add("empty", "")

	if x.Len() != 4 {
		t.Fatalf("Len = %d, want 4", x.Len())
	}

	matches, err := x.Rank("fraction fluency")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "lincoln-math" {
		t.Fatalf("unexpected matches %+v", matches)
	}

	matches, err = x.Rank("math")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected both math goals, got %+v", matches)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("matches not sorted: %+v", matches)
		}
	}

	if _, err := x.Rank("a to"); !errors.Is(err, ErrNoTerms) {
		t.Fatalf("expected ErrNoTerms, got %v", err)
	}
}

func TestIndexCommonTermsWeighZero(t *testing.T) {
	x := NewIndex()
	x.Add("a", "students reading")
	x.Add("b", "students writing")

	idf := x.IDF()
	if idf["students"] != 0 {
		t.Fatalf("term in every document should weigh 0, got %f", idf["students"])
	}
	if idf["reading"] <= 0 {
		t.Fatalf("rare term should weigh more than 0, got %f", idf["reading"])
	}
	matches, err := x.Rank("students")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for a term every goal shares, got %+v", matches)
	}
}
