package formatters

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"resumatch/internal/analysis"
	"resumatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Report", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "Report", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "RoleRecommendation", &RecommendationTextFormatter{})
	registry.RegisterFormatter("markdown", "RoleRecommendation", &RecommendationMarkdownFormatter{})
	registry.RegisterFormatter("text", "RoleListing", &RoleListingTextFormatter{})
	registry.RegisterFormatter("markdown", "RoleListing", &RoleListingMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case analysis.Report:
		return "Report"
	case analysis.RoleRecommendation:
		return "RoleRecommendation"
	case types.RoleListing:
		return "RoleListing"
	default:
		return "any"
	}
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func upperAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v)
	}
	return out
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReportTextFormatter renders a Report as the plain-text analysis report
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(analysis.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS REPORT ===\n\n")
	fmt.Fprintf(&output, "Selected Role: %s\n", report.Role)
	fmt.Fprintf(&output, "Match Percentage: %.2f %%\n", round2(report.SkillMatch.MatchPercent))
	fmt.Fprintf(&output, "Skills Matched: %d / %d\n", report.Distribution.Matched, len(report.SkillMatch.Required))
	fmt.Fprintf(&output, "ATS Score: %.2f / 100\n", round2(report.ATS.Total))
	if report.ProjectedScore != nil {
		fmt.Fprintf(&output, "Projected ATS Score: %.2f / 100\n", round2(*report.ProjectedScore))
	}
	fmt.Fprintf(&output, "Badge: %s\n", report.Badge)
	fmt.Fprintf(&output, "Total Experience: %d Years\n\n", report.ExperienceYears)

	output.WriteString("=== ATS BREAKDOWN ===\n")
	fmt.Fprintf(&output, "Skills: %.2f / %d\n", round2(report.ATS.Skill), int(analysis.SkillWeight))
	fmt.Fprintf(&output, "Role Match: %.2f / %d\n", round2(report.ATS.RoleMatch), int(analysis.RoleMatchWeight))
	fmt.Fprintf(&output, "Experience: %.2f / %d\n", round2(report.ATS.Experience), int(analysis.ExperienceWeight))
	fmt.Fprintf(&output, "Education: %.2f / %d\n\n", round2(report.ATS.Education), int(analysis.EducationWeight))

	output.WriteString("=== EDUCATION DETECTED ===\n")
	if len(report.Education) == 0 {
		output.WriteString("None detected\n")
	}
	for _, edu := range report.Education {
		fmt.Fprintf(&output, "- %s\n", edu)
	}
	output.WriteString("\n")

	output.WriteString("=== WRITING QUALITY ===\n")
	fmt.Fprintf(&output, "Score: %d/100\n", report.Writing.Score)
	fmt.Fprintf(&output, "Action verbs: %d, Weak phrases: %d, Quantified results: %d\n\n",
		report.Writing.VerbCount, report.Writing.WeakCount, report.Writing.QuantCount)

	output.WriteString("Matched Skills:\n")
	for _, skill := range upperAll(report.SkillMatch.Found) {
		fmt.Fprintf(&output, "- %s\n", skill)
	}
	output.WriteString("\nMissing Skills:\n")
	for _, skill := range upperAll(report.SkillMatch.Missing) {
		fmt.Fprintf(&output, "- %s\n", skill)
	}
	output.WriteString("\n")

	output.WriteString("=== IMPROVEMENT SUGGESTIONS ===\n")
	for _, suggestion := range report.Suggestions {
		fmt.Fprintf(&output, "- %s\n", suggestion)
	}
	output.WriteString("\n")

	fmt.Fprintf(&output, "Best Fit Role: %s (%.2f %%)\n\n", report.Recommendation.BestRole, round2(report.Recommendation.BestScore))
	fmt.Fprintf(&output, "Note: %s\n", analysis.Disclaimer)

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "Report"
}

// ReportMarkdownFormatter renders a Report as markdown
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(analysis.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis Report\n\n")
	fmt.Fprintf(&output, "**Selected Role:** %s\n\n", report.Role)
	fmt.Fprintf(&output, "**Match Percentage:** %.2f %%\n\n", round2(report.SkillMatch.MatchPercent))
	fmt.Fprintf(&output, "**ATS Score:** %.2f / 100 (%s)\n\n", round2(report.ATS.Total), report.Badge)
	if report.ProjectedScore != nil {
		fmt.Fprintf(&output, "**Projected ATS Score:** %.2f / 100\n\n", round2(*report.ProjectedScore))
	}
	fmt.Fprintf(&output, "**Total Experience:** %d Years\n\n", report.ExperienceYears)

	output.WriteString("## ATS Breakdown\n\n")
	output.WriteString("| Component | Score | Weight |\n|---|---|---|\n")
	fmt.Fprintf(&output, "| Skills | %.2f | %d |\n", round2(report.ATS.Skill), int(analysis.SkillWeight))
	fmt.Fprintf(&output, "| Role Match | %.2f | %d |\n", round2(report.ATS.RoleMatch), int(analysis.RoleMatchWeight))
	fmt.Fprintf(&output, "| Experience | %.2f | %d |\n", round2(report.ATS.Experience), int(analysis.ExperienceWeight))
	fmt.Fprintf(&output, "| Education | %.2f | %d |\n\n", round2(report.ATS.Education), int(analysis.EducationWeight))

	if len(report.Education) > 0 {
		output.WriteString("## Education Detected\n\n")
		for _, edu := range report.Education {
			fmt.Fprintf(&output, "- %s\n", edu)
		}
		output.WriteString("\n")
	}

	output.WriteString("## Writing Quality\n\n")
	fmt.Fprintf(&output, "**Score:** %d/100 (action verbs: %d, weak phrases: %d, quantified results: %d)\n\n",
		report.Writing.Score, report.Writing.VerbCount, report.Writing.WeakCount, report.Writing.QuantCount)

	output.WriteString("## Matched Skills\n\n")
	for _, skill := range upperAll(report.SkillMatch.Found) {
		fmt.Fprintf(&output, "- %s\n", skill)
	}
	output.WriteString("\n## Missing Skills\n\n")
	for _, skill := range upperAll(report.SkillMatch.Missing) {
		fmt.Fprintf(&output, "- %s\n", skill)
	}

	output.WriteString("\n## Improvement Suggestions\n\n")
	for _, suggestion := range report.Suggestions {
		fmt.Fprintf(&output, "- %s\n", suggestion)
	}

	fmt.Fprintf(&output, "\n---\n\n_%s_\n", analysis.Disclaimer)

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "Report"
}

// RecommendationTextFormatter renders a RoleRecommendation as plain text
type RecommendationTextFormatter struct{}

func (rtf *RecommendationTextFormatter) Format(data any) (string, error) {
	rec, ok := data.(analysis.RoleRecommendation)
	if !ok {
		return "", fmt.Errorf("expected RoleRecommendation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ROLE RECOMMENDATION ===\n\n")
	fmt.Fprintf(&output, "Best Fit Role: %s\n", rec.BestRole)
	fmt.Fprintf(&output, "Match: %.2f %%\n\n", round2(rec.BestScore))

	output.WriteString("All Roles:\n")
	for _, score := range rec.Scores {
		fmt.Fprintf(&output, "- %s: %.2f %%\n", score.Role, round2(score.MatchPercent))
	}

	return output.String(), nil
}

func (rtf *RecommendationTextFormatter) SupportedType() string {
	return "RoleRecommendation"
}

// RecommendationMarkdownFormatter renders a RoleRecommendation as markdown
type RecommendationMarkdownFormatter struct{}

func (rmf *RecommendationMarkdownFormatter) Format(data any) (string, error) {
	rec, ok := data.(analysis.RoleRecommendation)
	if !ok {
		return "", fmt.Errorf("expected RoleRecommendation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Role Recommendation\n\n")
	fmt.Fprintf(&output, "**Best Fit Role:** %s (%.2f %%)\n\n", rec.BestRole, round2(rec.BestScore))
	output.WriteString("| Role | Match % |\n|---|---|\n")
	for _, score := range rec.Scores {
		fmt.Fprintf(&output, "| %s | %.2f |\n", score.Role, round2(score.MatchPercent))
	}

	return output.String(), nil
}

func (rmf *RecommendationMarkdownFormatter) SupportedType() string {
	return "RoleRecommendation"
}

// RoleListingTextFormatter renders the role catalog as plain text
type RoleListingTextFormatter struct{}

func (rlf *RoleListingTextFormatter) Format(data any) (string, error) {
	listing, ok := data.(types.RoleListing)
	if !ok {
		return "", fmt.Errorf("expected RoleListing, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "=== ROLES (%d) ===\n\n", listing.Count)
	for _, role := range listing.Roles {
		fmt.Fprintf(&output, "%s: %s\n", role.Name, strings.Join(role.RequiredSkills, ", "))
	}

	return output.String(), nil
}

func (rlf *RoleListingTextFormatter) SupportedType() string {
	return "RoleListing"
}

// RoleListingMarkdownFormatter renders the role catalog as markdown
type RoleListingMarkdownFormatter struct{}

func (rlmf *RoleListingMarkdownFormatter) Format(data any) (string, error) {
	listing, ok := data.(types.RoleListing)
	if !ok {
		return "", fmt.Errorf("expected RoleListing, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Roles\n\n")
	for _, role := range listing.Roles {
		fmt.Fprintf(&output, "## %s\n\n", role.Name)
		for _, skill := range role.RequiredSkills {
			fmt.Fprintf(&output, "- %s\n", skill)
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rlmf *RoleListingMarkdownFormatter) SupportedType() string {
	return "RoleListing"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
