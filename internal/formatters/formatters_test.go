package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"resumatch/internal/analysis"
	"resumatch/internal/catalog"
	"resumatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partialReport(t *testing.T) analysis.Report {
	t.Helper()
	report, err := analysis.Analyze("Python and SQL for reporting", "Data Analyst", catalog.Default())
	require.NoError(t, err)
	return report
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, round2(100.0/3))
	assert.Equal(t, 66.67, round2(200.0/3))
	assert.Equal(t, 70.0, round2(70))
}

func TestReportTextFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(partialReport(t), "text")
	require.NoError(t, err)

	assert.Contains(t, out, "Selected Role: Data Analyst")
	assert.Contains(t, out, "Match Percentage: 33.33 %")
	assert.Contains(t, out, "Skills Matched: 2 / 6")
	assert.Contains(t, out, "ATS Score: 23.33 / 100")
	assert.Contains(t, out, "Projected ATS Score: 70.00 / 100")
	assert.Contains(t, out, "Badge: Needs Major Improvement")
	assert.Contains(t, out, "Total Experience: 0 Years")
	assert.Contains(t, out, "Matched Skills:\n- PYTHON\n- SQL\n")
	assert.Contains(t, out, "Missing Skills:\n- EXCEL\n- POWER BI\n- STATISTICS\n- TABLEAU\n")
	assert.Contains(t, out, "Consider adding TABLEAU to improve your profile.")
	assert.Contains(t, out, "None detected")
	assert.True(t, strings.HasSuffix(out, analysis.Disclaimer+"\n"))
}

func TestReportMarkdownFormatter(t *testing.T) {
	report, err := analysis.Analyze("Python, Django, Flask, Pandas and NumPy. 4 years. B.Tech.", "Python Developer", catalog.Default())
	require.NoError(t, err)

	out, err := GlobalRegistry.Format(report, "markdown")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Resume Analysis Report\n"))
	assert.Contains(t, out, "**ATS Score:** 100.00 / 100 (Elite Candidate)")
	assert.NotContains(t, out, "Projected ATS Score")
	assert.Contains(t, out, "## Education Detected\n\n- B.TECH\n")
	assert.Contains(t, out, "| Skills | 40.00 | 40 |")
	assert.Contains(t, out, analysis.FullMatchSuggestion)
	assert.Contains(t, out, "_"+analysis.Disclaimer+"_")
}

func TestRecommendationFormatters(t *testing.T) {
	rec := analysis.RecommendRole("html css javascript", catalog.Default())

	text, err := GlobalRegistry.Format(rec, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Best Fit Role: Web Developer")
	assert.Contains(t, text, "Match: 50.00 %")
	assert.Contains(t, text, "- Data Analyst: 0.00 %")

	md, err := GlobalRegistry.Format(rec, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "**Best Fit Role:** Web Developer (50.00 %)")
	assert.Contains(t, md, "| Web Developer | 50.00 |")
}

func TestRoleListingFormatters(t *testing.T) {
	listing := types.NewRoleListing(catalog.Default())

	text, err := GlobalRegistry.Format(listing, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== ROLES (8) ===")
	assert.Contains(t, text, "Python Developer: python, django, flask, pandas, numpy\n")

	md, err := GlobalRegistry.Format(listing, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "## Graphic Designer\n\n- photoshop\n")
}

func TestJSONFormatterKeepsFullPrecision(t *testing.T) {
	out, err := GlobalRegistry.Format(partialReport(t), "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	match := decoded["skillMatch"].(map[string]any)
	assert.InDelta(t, 100.0/3, match["matchPercent"].(float64), 1e-9)
	assert.Equal(t, 70.0, decoded["projectedScore"])
}

func TestFormatErrors(t *testing.T) {
	_, err := GlobalRegistry.Format(partialReport(t), "yaml")
	assert.EqualError(t, err, "no formatter found for format 'yaml' and type 'Report'")

	_, err = GlobalRegistry.Format("plain string", "text")
	assert.EqualError(t, err, "no formatter found for format 'text' and type 'any'")

	_, err = (&ReportTextFormatter{}).Format(types.RoleListing{})
	assert.EqualError(t, err, "expected Report, got types.RoleListing")
}

func TestSupportedFormats(t *testing.T) {
	assert.ElementsMatch(t, []string{"json", "text", "markdown"}, NewFormatterRegistry().GetSupportedFormats())
}
