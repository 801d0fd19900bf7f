package mcpserver

import (
	"context"
	"fmt"
	"testing"

	"resumatch/internal/analysis"
	"resumatch/internal/catalog"
	"resumatch/internal/errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader map[string]string

func (s stubLoader) Text(_ context.Context, ref, _ string) (string, error) {
	text, ok := s[ref]
	if !ok {
		return "", fmt.Errorf("no such document: %s", ref)
	}
	return text, nil
}

func text(s string) *string { return &s }

func newTools(loader TextLoader) *Tools {
	return NewTools(analysis.NewEngine(catalog.Default()), loader, nil, errors.NewNopLogger())
}

func TestAnalyzeResume(t *testing.T) {
	tools := newTools(stubLoader{"cv.md": "Photoshop, Illustrator and Figma"})
	ctx := context.Background()

	_, report, err := tools.AnalyzeResume(ctx, nil, AnalyzeInput{ResumeText: text("SEO and branding"), Role: "Marketing Executive"})
	require.NoError(t, err)
	assert.Equal(t, "Marketing Executive", report.Role)
	assert.Equal(t, []string{"seo", "branding"}, report.SkillMatch.Found)

	_, report, err = tools.AnalyzeResume(ctx, nil, AnalyzeInput{Source: "cv.md"})
	require.NoError(t, err)
	assert.Equal(t, "Graphic Designer", report.Role)
	assert.Equal(t, "Graphic Designer", report.Recommendation.BestRole)

	_, _, err = tools.AnalyzeResume(ctx, nil, AnalyzeInput{ResumeText: text("x"), Role: "Astronaut"})
	assert.ErrorIs(t, err, catalog.ErrUnknownRole)
}

func TestEmptyResumeText(t *testing.T) {
	tools := newTools(stubLoader{})
	ctx := context.Background()

	_, report, err := tools.AnalyzeResume(ctx, nil, AnalyzeInput{ResumeText: text(""), Role: "Web Developer"})
	require.NoError(t, err)
	assert.Equal(t, "Web Developer", report.Role)
	assert.Empty(t, report.SkillMatch.Found)
	assert.Zero(t, report.ATS.Total)

	_, rec, err := tools.RecommendRole(ctx, nil, RecommendInput{ResumeText: text("")})
	require.NoError(t, err)
	assert.Equal(t, "Data Analyst", rec.BestRole)
	assert.Zero(t, rec.BestScore)
}

func TestResumeInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		loader  TextLoader
		input   RecommendInput
		wantErr string
	}{
		{name: "nothing", loader: stubLoader{}, wantErr: "resume_text or source is required"},
		{name: "both", loader: stubLoader{}, input: RecommendInput{ResumeText: text("a"), Source: "b"}, wantErr: "not both"},
		{name: "empty text and source", loader: stubLoader{}, input: RecommendInput{ResumeText: text(""), Source: "b"}, wantErr: "not both"},
		{name: "no loader", input: RecommendInput{Source: "cv.pdf"}, wantErr: "not available"},
		{name: "missing document", loader: stubLoader{}, input: RecommendInput{Source: "cv.pdf"}, wantErr: "no such document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTools(tt.loader).RecommendRole(context.Background(), nil, tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRecommendRole(t *testing.T) {
	_, rec, err := newTools(nil).RecommendRole(context.Background(), nil, RecommendInput{ResumeText: text("Java, Spring, Hibernate, JDBC")})
	require.NoError(t, err)
	assert.Equal(t, "Java Developer", rec.BestRole)
	assert.Len(t, rec.Scores, 8)
}

func TestListRoles(t *testing.T) {
	_, listing, err := newTools(nil).ListRoles(context.Background(), nil, ListRolesInput{})
	require.NoError(t, err)
	assert.Equal(t, 8, listing.Count)
	assert.Equal(t, []string{"python", "sql", "excel", "power bi", "statistics", "tableau"}, listing.Roles[0].RequiredSkills)
}

func TestServerRegistersReadOnlyTools(t *testing.T) {
	ctx := context.Background()
	server := NewServer(newTools(nil), "test")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	result, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		require.NotNil(t, tool.Annotations)
		assert.True(t, tool.Annotations.ReadOnlyHint, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_resume", "recommend_role", "list_roles"}, names)
}
