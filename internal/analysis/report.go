package analysis

import (
	"slices"
	"strings"

	"resumatch/internal/catalog"
)

// Disclaimer accompanies every rendered report.
const Disclaimer = "This analysis is keyword-based and may not fully represent a candidate's capabilities."

// Badge tiers by ATS total.
const (
	BadgeElite     = "Elite Candidate"
	BadgeStrong    = "Strong Profile"
	BadgeImproving = "Improving Candidate"
	BadgeNeedsWork = "Needs Major Improvement"
)

// FullMatchSuggestion is the only suggestion when no skill is missing.
const FullMatchSuggestion = "Your resume matches all required skills for this role!"

// SkillDistribution counts matched and missing skills for charting.
type SkillDistribution struct {
	Matched int `json:"matched"`
	Missing int `json:"missing"`
}

// Report is the complete analysis of one resume against one role.
type Report struct {
	Role            string             `json:"role"`
	SkillMatch      SkillMatchResult   `json:"skillMatch"`
	Recommendation  RoleRecommendation `json:"recommendation"`
	ExperienceYears int                `json:"experienceYears"`
	Education       []string           `json:"education"`
	Writing         WritingQuality     `json:"writing"`
	ATS             ATSBreakdown       `json:"ats"`
	ProjectedScore  *float64           `json:"projectedScore,omitempty"`
	Badge           string             `json:"badge"`
	Suggestions     []string           `json:"suggestions"`
	Distribution    SkillDistribution  `json:"distribution"`
}

// Parts holds the independently computed pieces of a report.
type Parts struct {
	SkillMatch      SkillMatchResult
	Recommendation  RoleRecommendation
	ExperienceYears int
	Education       []string
	Writing         WritingQuality
}

// Assemble derives the ATS breakdown and presentation fields from parts and
// returns the report. The report shares no slices with parts.
func Assemble(p Parts) Report {
	match := cloneMatch(p.SkillMatch)
	education := slices.Clone(p.Education)
	if education == nil {
		education = []string{}
	}
	ats := ScoreATS(match, p.ExperienceYears, education)

	return Report{
		Role:            match.Role,
		SkillMatch:      match,
		Recommendation:  cloneRecommendation(p.Recommendation),
		ExperienceYears: p.ExperienceYears,
		Education:       education,
		Writing:         p.Writing,
		ATS:             ats,
		ProjectedScore:  ProjectedScore(ats, match.Missing),
		Badge:           Badge(ats.Total),
		Suggestions:     Suggestions(match.Missing),
		Distribution: SkillDistribution{
			Matched: len(match.Found),
			Missing: len(match.Missing),
		},
	}
}

// Analyze scores text against the named role of cat. The text is lowercased
// here; callers pass it as extracted.
func Analyze(text, roleName string, cat *catalog.Catalog) (Report, error) {
	role, err := cat.Lookup(roleName)
	if err != nil {
		return Report{}, err
	}

	normalized := strings.ToLower(text)

	return Assemble(Parts{
		SkillMatch:      MatchSkills(normalized, role),
		Recommendation:  Recommend(normalized, cat),
		ExperienceYears: ExtractExperience(normalized),
		Education:       DetectEducation(normalized),
		Writing:         ScoreWriting(normalized),
	}), nil
}

// RecommendRole lowercases text and recommends a role from cat.
func RecommendRole(text string, cat *catalog.Catalog) RoleRecommendation {
	return Recommend(strings.ToLower(text), cat)
}

// Badge maps an ATS total to its tier label.
func Badge(total float64) string {
	switch {
	case total >= 85:
		return BadgeElite
	case total >= 70:
		return BadgeStrong
	case total >= 50:
		return BadgeImproving
	default:
		return BadgeNeedsWork
	}
}

// Suggestions lists one improvement hint per missing skill.
func Suggestions(missing []string) []string {
	if len(missing) == 0 {
		return []string{FullMatchSuggestion}
	}
	out := make([]string, len(missing))
	for i, skill := range missing {
		out[i] = "Consider adding " + strings.ToUpper(skill) + " to improve your profile."
	}
	return out
}

func cloneMatch(m SkillMatchResult) SkillMatchResult {
	return SkillMatchResult{
		Role:         m.Role,
		Required:     nonNil(m.Required),
		Found:        nonNil(m.Found),
		Missing:      nonNil(m.Missing),
		MatchPercent: m.MatchPercent,
	}
}

func cloneRecommendation(r RoleRecommendation) RoleRecommendation {
	return RoleRecommendation{
		BestRole:  r.BestRole,
		BestScore: r.BestScore,
		Scores:    slices.Clone(r.Scores),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
