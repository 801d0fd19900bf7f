// Package analysis implements the deterministic resume scoring engine.
//
// Every function here is pure: the same text and catalog always produce the
// same result, and nothing is cached between calls.
package analysis

import (
	"resumatch/internal/catalog"
	"resumatch/internal/errors"
)

// Engine scores resumes against the catalog provided by a Source. Each call
// reads a single catalog snapshot, so a concurrent reload never mixes roles
// from two catalogs within one report.
type Engine struct {
	source catalog.Source
}

// NewEngine creates an engine backed by source.
func NewEngine(source catalog.Source) *Engine {
	return &Engine{source: source}
}

// Catalog returns the catalog snapshot currently in use.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.source.Catalog()
}

// Analyze scores text against the named role. Failures are scoring errors
// that still match catalog.ErrUnknownRole and catalog.ErrInvalidRole.
func (e *Engine) Analyze(text, role string) (Report, error) {
	report, err := Analyze(text, role, e.source.Catalog())
	if err != nil {
		return Report{}, scoringError(role, err)
	}
	return report, nil
}

// Recommend picks the best matching role for text.
func (e *Engine) Recommend(text string) RoleRecommendation {
	return RecommendRole(text, e.source.Catalog())
}

// AnalyzeBestFit analyzes text against its recommended role.
func (e *Engine) AnalyzeBestFit(text string) (Report, error) {
	cat := e.source.Catalog()
	rec := RecommendRole(text, cat)
	report, err := Analyze(text, rec.BestRole, cat)
	if err != nil {
		return Report{}, scoringError(rec.BestRole, err)
	}
	return report, nil
}

func scoringError(role string, err error) error {
	if errors.Is(err, catalog.ErrUnknownRole) {
		return errors.NewScoringError(errors.ErrCodeUnknownRole, "Role is not in the catalog", err).
			WithContext("role", role)
	}
	return errors.NewScoringError(errors.ErrCodeInvalidRole, "Role cannot be scored", err).
		WithContext("role", role)
}
