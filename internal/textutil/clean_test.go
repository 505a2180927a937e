package textutil

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"collapses whitespace", "  Increase   reading\n\nproficiency\t", "Increase reading proficiency"},
		{"folds nbsp", "Grade\u00a03", "Grade 3"},
		{"folds narrow nbsp", "by\u202fJune\u2003 2026", "by June 2026"},
		{"keeps fractions", "Raise scores by ½ level", "Raise scores by ½ level"},
		{"keeps superscripts and circled digits", "Score²  review ①", "Score² review ①"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Fatalf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinSkipsEmptyParts(t *testing.T) {
	got := Join("Weekly PLC  data\nreviews", "", "   ", "of unit assessments")
	want := "Weekly PLC data reviews of unit assessments"
	if got != want {
		t.Fatalf("Join() = %q, want %q", got, want)
	}
}

func TestJoinKeepsCharacters(t *testing.T) {
	got := Join("Score² review", "weekly ①")
	if got != "Score² review weekly ①" {
		t.Fatalf("Join() = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Fatalf("Truncate() = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("Truncate() = %q", got)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Lincoln Elementary", "lincoln-elementary"},
		{"St. Mary's Academy", "st-marys-academy"},
		{"9th Grade Success", "9th-grade-success"},
		{"  ", "unknown"},
		{"***", "unknown"},
	}
	for _, tt := range tests {
		if got := Slug(tt.input); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
