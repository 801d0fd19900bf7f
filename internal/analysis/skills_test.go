package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumatch/internal/catalog"
)

func mustRole(t *testing.T, cat *catalog.Catalog, name string) catalog.RoleProfile {
	t.Helper()
	role, err := cat.Lookup(name)
	require.NoError(t, err)
	return role
}

func TestMatchSkillsPartialCoverage(t *testing.T) {
	role := mustRole(t, catalog.Default(), "Data Analyst")

	result := MatchSkills("skilled in python and sql reporting", role)

	assert.Equal(t, "Data Analyst", result.Role)
	assert.Equal(t, []string{"python", "sql"}, result.Found)
	assert.Equal(t, []string{"excel", "power bi", "statistics", "tableau"}, result.Missing)
	assert.InDelta(t, 33.33, result.MatchPercent, 0.01)
}

func TestMatchSkillsIsLiteralSubstring(t *testing.T) {
	role := mustRole(t, catalog.Default(), "Java Developer")

	result := MatchSkills("frontend work in javascript", role)

	assert.Equal(t, []string{"java"}, result.Found, "java matches inside javascript")
}

func TestMatchSkillsExpectsLowercasedText(t *testing.T) {
	role := mustRole(t, catalog.Default(), "Python Developer")

	assert.Empty(t, MatchSkills("PYTHON", role).Found)
	assert.Equal(t, []string{"python"}, MatchSkills("python", role).Found)
}

func TestMatchSkillsPartitionProperty(t *testing.T) {
	texts := []string{
		"",
		"python sql excel power bi statistics tableau",
		"html css react node and some oop with git",
		"recruitment, payroll and hr policies",
		"seo branding figma canva photoshop",
		"data structures and algorithms, problem solving",
	}

	for _, role := range catalog.Default().Roles() {
		for _, text := range texts {
			result := MatchSkills(text, role)

			assert.Equal(t, len(role.RequiredSkills), len(result.Found)+len(result.Missing), role.Name)
			assert.ElementsMatch(t, role.RequiredSkills, append(append([]string{}, result.Found...), result.Missing...))
			for _, f := range result.Found {
				assert.NotContains(t, result.Missing, f)
			}

			want := 100.0 * float64(len(result.Found)) / float64(len(role.RequiredSkills))
			assert.Equal(t, want, result.MatchPercent)
			assert.GreaterOrEqual(t, result.MatchPercent, 0.0)
			assert.LessOrEqual(t, result.MatchPercent, 100.0)
		}
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantRole  string
		wantScore float64
	}{
		{
			name:      "data analyst wins on shared python",
			text:      "python sql excel",
			wantRole:  "Data Analyst",
			wantScore: 50,
		},
		{
			name:      "python developer has smaller skill set",
			text:      "python only",
			wantRole:  "Python Developer",
			wantScore: 20,
		},
		{
			name:      "empty text falls back to first role",
			text:      "",
			wantRole:  "Data Analyst",
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(tt.text, catalog.Default())
			assert.Equal(t, tt.wantRole, rec.BestRole)
			assert.InDelta(t, tt.wantScore, rec.BestScore, 0.001)
			assert.Len(t, rec.Scores, 8)
		})
	}
}

func TestRecommendTieGoesToFirstRole(t *testing.T) {
	cat := catalog.MustNew(
		catalog.RoleProfile{Name: "Gopher", RequiredSkills: []string{"go", "grpc"}},
		catalog.RoleProfile{Name: "Rustacean", RequiredSkills: []string{"rust", "tokio"}},
		catalog.RoleProfile{Name: "Polyglot", RequiredSkills: []string{"go", "rust"}},
	)

	rec := Recommend("go and rust", cat)
	assert.Equal(t, "Polyglot", rec.BestRole)
	assert.Equal(t, 100.0, rec.BestScore)

	rec = Recommend("go and tokio and rust", cat)
	assert.Equal(t, "Rustacean", rec.BestRole, "strictly greater score replaces the leader")

	rec = Recommend("grpc and tokio", cat)
	assert.Equal(t, "Gopher", rec.BestRole, "equal scores keep the earlier role")

	assert.Equal(t, []RoleScore{
		{Role: "Gopher", MatchPercent: 50},
		{Role: "Rustacean", MatchPercent: 50},
		{Role: "Polyglot", MatchPercent: 0},
	}, rec.Scores)
}
