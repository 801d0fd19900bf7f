// Package queue runs analysis jobs delivered over AMQP and publishes their
// results.
package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"resumatch/internal/analysis"
	"resumatch/internal/catalog"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// TextLoader resolves a document reference to its text
type TextLoader interface {
	Text(ctx context.Context, ref, mediaType string) (string, error)
}

var (
	// ErrMalformedJob marks deliveries that can never succeed and must not be requeued
	ErrMalformedJob = stderrors.New("malformed analysis job")
	// ErrTransientFailure marks jobs whose document could not be fetched and
	// may succeed on redelivery
	ErrTransientFailure = stderrors.New("transient analysis job failure")
)

// Processor turns a job message into a JobResult
type Processor struct {
	engine *analysis.Engine
	loader TextLoader
	om     *observability.ObservabilityManager
	logger *errors.Logger
}

// NewProcessor creates a processor. loader may be nil when jobs carry text only.
func NewProcessor(engine *analysis.Engine, loader TextLoader, om *observability.ObservabilityManager, logger *errors.Logger) *Processor {
	return &Processor{engine: engine, loader: loader, om: om, logger: logger}
}

// Process decodes and runs one job. The returned result is always publishable.
// The error wraps ErrMalformedJob when the message itself is invalid and
// ErrTransientFailure when the document source was unreachable; other analysis
// failures are reported in the result only.
func (p *Processor) Process(ctx context.Context, body []byte) (types.JobResult, error) {
	var job types.AnalysisJob
	if err := json.Unmarshal(body, &job); err != nil {
		result := failedResult(uuid.NewString(), errors.NewValidationError(errors.ErrCodeInvalidRequest, "Job is not valid JSON", err))
		return result, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	if err := p.validate(job); err != nil {
		return failedResult(job.ID, err), fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}

	report, err := p.run(ctx, job)
	metrics := p.om.GetMetrics()
	if err != nil {
		p.logger.LogError(err, "Analysis job failed", "job_id", job.ID, "role", job.Role)
		metrics.RecordBusinessMetric(ctx, observability.MetricQueueJob, false, p.om,
			attribute.String("error_code", errorCode(err)))
		if isTransient(err) {
			return failedResult(job.ID, err), fmt.Errorf("%w: %v", ErrTransientFailure, err)
		}
		return failedResult(job.ID, err), nil
	}

	metrics.RecordBusinessMetric(ctx, observability.MetricQueueJob, true, p.om,
		attribute.String("role", report.Role))
	p.logger.Info("Analysis job completed",
		"job_id", job.ID,
		"role", report.Role,
		"ats_total", report.ATS.Total)

	return types.JobResult{JobID: job.ID, Status: types.JobStatusCompleted, Report: &report}, nil
}

func (p *Processor) validate(job types.AnalysisJob) error {
	if err := job.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid analysis job", err)
	}
	// Jobs may only reference remote storage, never the worker's filesystem
	if job.Source != "" && !strings.HasPrefix(job.Source, "s3://") {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unsupported job source: %s", job.Source), nil)
	}
	return nil
}

// run resolves the resume text and scores it, against the recommended role
// when the job names none.
func (p *Processor) run(ctx context.Context, job types.AnalysisJob) (analysis.Report, error) {
	text := job.Text()
	if job.Source != "" {
		if p.loader == nil {
			return analysis.Report{}, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Document storage is not configured", nil)
		}
		var err error
		text, err = p.loader.Text(ctx, job.Source, job.MIMEType)
		if err != nil {
			return analysis.Report{}, err
		}
	}

	var report analysis.Report
	err := p.om.GetMetrics().TrackScoringOperation(ctx, "queue_analyze", func(ctx context.Context) *observability.ScoringResult {
		var analyzeErr error
		if job.Role == "" {
			report, analyzeErr = p.engine.AnalyzeBestFit(text)
		} else {
			report, analyzeErr = p.engine.Analyze(text, job.Role)
		}
		return &observability.ScoringResult{Error: analyzeErr, Score: report.ATS.Total, HasScore: analyzeErr == nil}
	}, p.om)
	return report, err
}

func failedResult(jobID string, err error) types.JobResult {
	return types.JobResult{
		JobID:     jobID,
		Status:    types.JobStatusFailed,
		Error:     err.Error(),
		ErrorCode: errorCode(err),
	}
}

// isTransient reports failures of the network path to document storage,
// including an open circuit breaker.
func isTransient(err error) bool {
	appErr, ok := errors.AsAppError(err)
	return ok && appErr.Type == errors.ErrorTypeNetwork
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	if errors.Is(err, catalog.ErrUnknownRole) {
		return errors.ErrCodeUnknownRole
	}
	return errors.ErrCodeQueueFailed
}
