package analysis

// Component weights of the ATS score. They sum to 100.
const (
	SkillWeight      = 40.0
	RoleMatchWeight  = 30.0
	ExperienceWeight = 20.0
	EducationWeight  = 10.0
)

// ATSBreakdown is the composite applicant tracking score and its parts.
type ATSBreakdown struct {
	Skill      float64 `json:"skill"`
	RoleMatch  float64 `json:"roleMatch"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Total      float64 `json:"total"`
}

// ScoreATS combines skill coverage, role match, experience and education.
// Skill and role match are both derived from the same match result and are
// kept as separate components.
func ScoreATS(match SkillMatchResult, years int, education []string) ATSBreakdown {
	var b ATSBreakdown

	if n := len(match.Required); n > 0 {
		b.Skill = float64(len(match.Found)) / float64(n) * SkillWeight
	}
	b.RoleMatch = match.MatchPercent / 100 * RoleMatchWeight
	if years > 0 {
		b.Experience = ExperienceWeight
	}
	if len(education) > 0 {
		b.Education = EducationWeight
	}

	b.Total = b.Skill + b.RoleMatch + b.Experience + b.Education
	return b
}

// ProjectedScore is the ATS total the resume would reach with every missing
// skill added. It is nil when nothing is missing.
func ProjectedScore(b ATSBreakdown, missing []string) *float64 {
	if len(missing) == 0 {
		return nil
	}
	projected := min(100, SkillWeight+RoleMatchWeight+b.Experience+b.Education)
	return &projected
}
