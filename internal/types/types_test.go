package types

import (
	"strings"
	"testing"

	"resumatch/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) *string { return &s }

func TestAnalyzeRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     AnalyzeRequest
		wantErr bool
	}{
		{name: "valid", req: AnalyzeRequest{ResumeText: text("python"), Role: "Data Analyst"}},
		{name: "empty text", req: AnalyzeRequest{ResumeText: text(""), Role: "Data Analyst"}},
		{name: "missing text", req: AnalyzeRequest{Role: "Data Analyst"}, wantErr: true},
		{name: "missing role", req: AnalyzeRequest{ResumeText: text("python")}, wantErr: true},
		{name: "role too long", req: AnalyzeRequest{ResumeText: text("python"), Role: strings.Repeat("x", 101)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecommendRequestValidate(t *testing.T) {
	assert.NoError(t, (&RecommendRequest{ResumeText: text("sql")}).Validate())
	assert.NoError(t, (&RecommendRequest{ResumeText: text("")}).Validate())
	assert.Error(t, (&RecommendRequest{}).Validate())
	assert.Equal(t, "", (&RecommendRequest{}).Text())
}

func TestAnalysisJobValidate(t *testing.T) {
	tests := []struct {
		name    string
		job     AnalysisJob
		wantErr bool
	}{
		{name: "inline text", job: AnalysisJob{ID: "1", ResumeText: text("go developer")}},
		{name: "empty inline text", job: AnalysisJob{ID: "1", ResumeText: text("")}},
		{name: "source reference", job: AnalysisJob{Source: "s3://resumes/cv.pdf", Role: "Backend Developer"}},
		{name: "neither text nor source", job: AnalysisJob{ID: "1"}, wantErr: true},
		{name: "both text and source", job: AnalysisJob{ResumeText: text("go"), Source: "s3://resumes/cv.pdf"}, wantErr: true},
		{name: "empty text and source", job: AnalysisJob{ResumeText: text(""), Source: "s3://resumes/cv.pdf"}, wantErr: true},
		{name: "role too long", job: AnalysisJob{ResumeText: text("go"), Role: strings.Repeat("r", 101)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRoleListing(t *testing.T) {
	listing := NewRoleListing(catalog.Default())

	require.Equal(t, 8, listing.Count)
	require.Len(t, listing.Roles, 8)
	assert.Equal(t, "Data Analyst", listing.Roles[0].Name)
	assert.Equal(t, []string{"python", "sql", "excel", "power bi", "statistics", "tableau"},
		listing.Roles[0].RequiredSkills)
	assert.Equal(t, "Graphic Designer", listing.Roles[7].Name)
}
