package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resumatch/internal/analysis"
	"resumatch/internal/extract"
	"resumatch/internal/observability"
	"resumatch/internal/source"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// multipartMemory is the part of an upload kept in memory before spilling to disk
const multipartMemory = 4 << 20

// createAnalyzeHandler scores a JSON resume against a named role
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumatch.api").Start(r.Context(), "api.analyze")
		defer span.End()

		var req types.AnalyzeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeRequestError(w, err)
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeValidationError(w, err)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.Text())),
			attribute.String("request.role", req.Role),
			attribute.String("operation", "analyze"),
		)

		s.serveReport(ctx, w, span, om, "analyze", req.Text(), req.Role)
	}
}

// createUploadHandler scores an uploaded resume document against a named role
func (s *Server) createUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumatch.api").Start(r.Context(), "api.analyze_upload")
		defer span.End()

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeRequestError(w, fmt.Errorf("failed to parse multipart form: %w", err))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		role := strings.TrimSpace(r.FormValue("role"))
		if role == "" {
			writeErrorResponse(w, "Missing role", "role form field is required", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("resume")
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Missing resume file", "resume form file is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Debug("Failed to close uploaded file", "error", err)
			}
		}()

		data, err := io.ReadAll(file)
		if err != nil {
			span.RecordError(err)
			writeRequestError(w, fmt.Errorf("failed to read uploaded file: %w", err))
			return
		}

		text, err := uploadText(header.Filename, header.Header.Get("Content-Type"), data)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			s.Logger.LogError(err, "Failed to extract uploaded resume",
				"filename", header.Filename,
				"request_id", RequestID(ctx))
			writeAppError(w, "Failed to read resume", err)
			return
		}

		span.SetAttributes(
			attribute.String("upload.filename", header.Filename),
			attribute.Int64("upload.size", header.Size),
			attribute.Int("request.resume_length", len(text)),
			attribute.String("request.role", role),
			attribute.String("operation", "analyze_upload"),
		)

		s.serveReport(ctx, w, span, om, "analyze_upload", text, role)
	}
}

// uploadText picks the extractor by file extension, then by the part's
// declared content type.
func uploadText(filename, contentType string, data []byte) (string, error) {
	mediaType, err := extract.DetectMIME(filename)
	if err != nil {
		if contentType == "" {
			return "", source.ExtractionError(filename, err)
		}
		mediaType = contentType
	}

	text, err := extract.TextByMIME(mediaType, data)
	if err != nil {
		return "", source.ExtractionError(filename, err)
	}
	return text, nil
}

// serveReport analyzes text against role and writes the report
func (s *Server) serveReport(ctx context.Context, w http.ResponseWriter, span trace.Span, om *observability.ObservabilityManager, operation, text, role string) {
	metrics := om.GetMetrics()

	var report analysis.Report
	err := metrics.TrackScoringOperation(ctx, operation, func(ctx context.Context) *observability.ScoringResult {
		var analyzeErr error
		report, analyzeErr = s.Engine.Analyze(text, role)
		return &observability.ScoringResult{
			Error:    analyzeErr,
			Score:    report.ATS.Total,
			HasScore: analyzeErr == nil,
		}
	}, om)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "scoring"))
		metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, false, om,
			attribute.String("role", role))
		s.Logger.Info("Analysis rejected",
			"role", role,
			"error", err.Error(),
			"request_id", RequestID(ctx))
		writeAppError(w, "Failed to analyze resume", err)
		return
	}

	metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, true, om,
		attribute.String("role", report.Role),
		attribute.String("badge", report.Badge))

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("report.role", report.Role),
		attribute.Float64("ats.score", report.ATS.Total),
		attribute.Int("skills.missing", len(report.SkillMatch.Missing)),
	)

	s.Logger.Debug("Resume analyzed",
		"role", report.Role,
		"ats_total", report.ATS.Total,
		"request_id", RequestID(ctx))

	writeJSON(w, http.StatusOK, report)
}

// createRecommendHandler picks the best matching role for a JSON resume
func (s *Server) createRecommendHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("resumatch.api").Start(r.Context(), "api.recommend")
		defer span.End()

		var req types.RecommendRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeRequestError(w, err)
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeValidationError(w, err)
			return
		}

		metrics := om.GetMetrics()
		var rec analysis.RoleRecommendation
		// Recommendation cannot fail
		_ = metrics.TrackScoringOperation(ctx, "recommend", func(ctx context.Context) *observability.ScoringResult {
			rec = s.Engine.Recommend(req.Text())
			return &observability.ScoringResult{}
		}, om)

		metrics.RecordBusinessMetric(ctx, observability.MetricRoleRecommended, true, om,
			attribute.String("role", rec.BestRole))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("recommendation.role", rec.BestRole),
			attribute.Float64("recommendation.score", rec.BestScore),
		)

		writeJSON(w, http.StatusOK, rec)
	}
}

// rolesHandler lists the roles of the current catalog
func (s *Server) rolesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.NewRoleListing(s.Engine.Catalog()))
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	limit := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := limit(next)
		return func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricRateLimitHit, true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
