// Package mcpserver exposes the scoring engine as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"resumatch/internal/analysis"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
)

// TextLoader resolves a document reference (local path or s3:// URI) to text
type TextLoader interface {
	Text(ctx context.Context, ref, mediaType string) (string, error)
}

// AnalyzeInput is the input of the analyze_resume tool
type AnalyzeInput struct {
	ResumeText *string `json:"resume_text,omitempty" jsonschema:"Plain resume text, may be empty. Either resume_text or source is required"`
	Source     string  `json:"source,omitempty" jsonschema:"Resume document path or s3://bucket/key (pdf, docx, html, txt, md)"`
	Role       string  `json:"role,omitempty" jsonschema:"Target role from list_roles. Empty analyzes against the best fitting role"`
}

// RecommendInput is the input of the recommend_role tool
type RecommendInput struct {
	ResumeText *string `json:"resume_text,omitempty" jsonschema:"Plain resume text, may be empty. Either resume_text or source is required"`
	Source     string  `json:"source,omitempty" jsonschema:"Resume document path or s3://bucket/key (pdf, docx, html, txt, md)"`
}

// ListRolesInput is the (empty) input of the list_roles tool
type ListRolesInput struct{}

// Tools implements the MCP tool handlers
type Tools struct {
	engine *analysis.Engine
	loader TextLoader
	om     *observability.ObservabilityManager
	logger *errors.Logger
}

// NewTools creates the tool handlers. loader may be nil, which disables source inputs.
func NewTools(engine *analysis.Engine, loader TextLoader, om *observability.ObservabilityManager, logger *errors.Logger) *Tools {
	return &Tools{engine: engine, loader: loader, om: om, logger: logger}
}

// NewServer creates an MCP server with all resumatch tools registered
func NewServer(tools *Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "resumatch",
		Version: version,
	}, nil)
	tools.Register(server)
	return server
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client disconnects
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// Register adds the read-only tools to server
func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_resume",
		Description: "Score a resume against a target role. Returns matched and missing skills, experience years, detected education, writing quality, the ATS score breakdown with badge, suggestions and the best fitting role.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.AnalyzeResume)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend_role",
		Description: "Recommend the catalog role a resume matches best, with the match percentage of every role.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.RecommendRole)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_roles",
		Description: "List the roles of the current catalog with their required skills.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.ListRoles)
}

// AnalyzeResume handles analyze_resume
func (t *Tools) AnalyzeResume(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, analysis.Report, error) {
	text, err := t.resumeText(ctx, input.ResumeText, input.Source)
	if err != nil {
		return nil, analysis.Report{}, err
	}

	role := strings.TrimSpace(input.Role)
	var report analysis.Report
	metrics := t.om.GetMetrics()
	err = metrics.TrackScoringOperation(ctx, "mcp_analyze", func(ctx context.Context) *observability.ScoringResult {
		var analyzeErr error
		if role == "" {
			report, analyzeErr = t.engine.AnalyzeBestFit(text)
		} else {
			report, analyzeErr = t.engine.Analyze(text, role)
		}
		return &observability.ScoringResult{Error: analyzeErr, Score: report.ATS.Total, HasScore: analyzeErr == nil}
	}, t.om)
	if err != nil {
		metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, false, t.om, attribute.String("role", role))
		return nil, analysis.Report{}, err
	}

	metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, true, t.om, attribute.String("role", report.Role))
	t.logger.Debug("MCP analyze_resume completed", "role", report.Role, "ats_total", report.ATS.Total)
	return nil, report, nil
}

// RecommendRole handles recommend_role
func (t *Tools) RecommendRole(ctx context.Context, _ *mcp.CallToolRequest, input RecommendInput) (*mcp.CallToolResult, analysis.RoleRecommendation, error) {
	text, err := t.resumeText(ctx, input.ResumeText, input.Source)
	if err != nil {
		return nil, analysis.RoleRecommendation{}, err
	}

	rec := t.engine.Recommend(text)
	t.om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricRoleRecommended, true, t.om,
		attribute.String("role", rec.BestRole))
	return nil, rec, nil
}

// ListRoles handles list_roles
func (t *Tools) ListRoles(_ context.Context, _ *mcp.CallToolRequest, _ ListRolesInput) (*mcp.CallToolResult, types.RoleListing, error) {
	return nil, types.NewRoleListing(t.engine.Catalog()), nil
}

// resumeText returns inline text when present, even empty, or loads source
func (t *Tools) resumeText(ctx context.Context, text *string, source string) (string, error) {
	switch {
	case text != nil && source != "":
		return "", fmt.Errorf("provide either resume_text or source, not both")
	case text != nil:
		return *text, nil
	case source == "":
		return "", fmt.Errorf("resume_text or source is required")
	case t.loader == nil:
		return "", fmt.Errorf("document sources are not available")
	}
	return t.loader.Text(ctx, source, "")
}
