package analysis

import (
	"strings"

	"resumatch/internal/catalog"
)

// SkillMatchResult is the outcome of matching resume text against one role.
type SkillMatchResult struct {
	Role         string   `json:"role"`
	Required     []string `json:"required"`
	Found        []string `json:"found"`
	Missing      []string `json:"missing"`
	MatchPercent float64  `json:"matchPercent"`
}

// MatchSkills reports which of the role's skills occur in text.
// A skill is found when it is a literal substring of text; text is expected
// to be lowercased already. Found and Missing keep catalog order.
func MatchSkills(text string, role catalog.RoleProfile) SkillMatchResult {
	found := make([]string, 0, len(role.RequiredSkills))
	missing := make([]string, 0, len(role.RequiredSkills))

	for _, skill := range role.RequiredSkills {
		if strings.Contains(text, skill) {
			found = append(found, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	return SkillMatchResult{
		Role:         role.Name,
		Required:     append([]string(nil), role.RequiredSkills...),
		Found:        found,
		Missing:      missing,
		MatchPercent: percent(len(found), len(role.RequiredSkills)),
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// RoleScore is one role's match percentage.
type RoleScore struct {
	Role         string  `json:"role"`
	MatchPercent float64 `json:"matchPercent"`
}

// RoleRecommendation names the best matching role in a catalog.
type RoleRecommendation struct {
	BestRole  string      `json:"bestRole"`
	BestScore float64     `json:"bestScore"`
	Scores    []RoleScore `json:"scores"`
}

// Recommend scores text against every role in cat and picks the highest.
// Ties go to the role that comes first in catalog order.
func Recommend(text string, cat *catalog.Catalog) RoleRecommendation {
	roles := cat.Roles()
	rec := RoleRecommendation{Scores: make([]RoleScore, 0, len(roles))}

	for i, role := range roles {
		score := MatchSkills(text, role).MatchPercent
		rec.Scores = append(rec.Scores, RoleScore{Role: role.Name, MatchPercent: score})

		if i == 0 || score > rec.BestScore {
			rec.BestRole = role.Name
			rec.BestScore = score
		}
	}

	return rec
}
