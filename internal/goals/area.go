package goals

import (
	"regexp"
	"strings"
)

// Area is the normalized subject of a goal.
type Area string

const (
	AreaMath       Area = "Math"
	AreaELA        Area = "ELA"
	AreaSEL        Area = "SEL"
	AreaScience    Area = "Science"
	AreaNinthGrade Area = "9th Grade Success"
	AreaGraduation Area = "Graduation"
	AreaOther      Area = "Other"
)

// Areas lists every area in report order.
var Areas = []Area{AreaMath, AreaELA, AreaSEL, AreaScience, AreaNinthGrade, AreaGraduation, AreaOther}

// areaRules are evaluated in order; the first rule with a matching keyword wins.
// Short keywords match whole words only so "relationships" is not ELA and
// "self" is not SEL.
var areaRules = []struct {
	area     Area
	words    []string
	contains []string
}{
	{AreaMath, nil, []string{"math", "algebra"}},
	{AreaELA, []string{"ela"}, []string{"literacy", "reading", "writing", "english language arts"}},
	{AreaSEL, []string{"sel"}, []string{"social", "emotional", "belonging", "attendance"}},
	{AreaScience, []string{"stem"}, []string{"science"}},
	{AreaNinthGrade, nil, []string{"ninth grade", "9th grade"}},
	{AreaGraduation, nil, []string{"graduat", "postsecondary"}},
}

var wordSplit = regexp.MustCompile(`[^a-z0-9]+`)

// ParseArea maps free-text priority area to an Area. Unknown text is Other.
func ParseArea(text string) Area {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return AreaOther
	}
	words := make(map[string]struct{})
	for _, w := range wordSplit.Split(lower, -1) {
		if w != "" {
			words[w] = struct{}{}
		}
	}
	for _, rule := range areaRules {
		for _, w := range rule.words {
			if _, ok := words[w]; ok {
				return rule.area
			}
		}
		for _, c := range rule.contains {
			if strings.Contains(lower, c) {
				return rule.area
			}
		}
	}
	return AreaOther
}

// Valid reports whether a is one of the known areas.
func (a Area) Valid() bool {
	for _, known := range Areas {
		if a == known {
			return true
		}
	}
	return false
}
