// Package types holds the request, response and message types shared by the
// HTTP API, the queue worker and the MCP tools.
package types

import (
	"resumatch/internal/analysis"
	"resumatch/internal/catalog"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AnalyzeRequest asks for a report of a resume against a named role.
// ResumeText must be present but may be empty; empty text scores zero.
type AnalyzeRequest struct {
	ResumeText *string `json:"resumeText" validate:"required"`
	Role       string  `json:"role" validate:"required,max=100"`
}

// Text returns the resume text, empty when absent
func (r *AnalyzeRequest) Text() string {
	return deref(r.ResumeText)
}

// Validate validates the AnalyzeRequest using the validator.
func (r *AnalyzeRequest) Validate() error {
	return validate.Struct(r)
}

// RecommendRequest asks for the best matching role of a resume
type RecommendRequest struct {
	ResumeText *string `json:"resumeText" validate:"required"`
}

// Text returns the resume text, empty when absent
func (r *RecommendRequest) Text() string {
	return deref(r.ResumeText)
}

// Validate validates the RecommendRequest using the validator.
func (r *RecommendRequest) Validate() error {
	return validate.Struct(r)
}

// RoleEntry is one role of a RoleListing
type RoleEntry struct {
	Name           string   `json:"name"`
	RequiredSkills []string `json:"requiredSkills"`
}

// RoleListing lists the roles of a catalog in catalog order
type RoleListing struct {
	Count int         `json:"count"`
	Roles []RoleEntry `json:"roles"`
}

// NewRoleListing builds a listing from a catalog snapshot.
func NewRoleListing(cat *catalog.Catalog) RoleListing {
	roles := cat.Roles()
	listing := RoleListing{Count: len(roles), Roles: make([]RoleEntry, 0, len(roles))}
	for _, role := range roles {
		listing.Roles = append(listing.Roles, RoleEntry{Name: role.Name, RequiredSkills: role.RequiredSkills})
	}
	return listing
}

// AnalysisJob is a queued analysis request. Exactly one of ResumeText and
// Source must be set; a present but empty ResumeText is valid. An empty Role
// analyzes against the recommended role.
type AnalysisJob struct {
	ID         string  `json:"id" validate:"omitempty,max=128"`
	Role       string  `json:"role,omitempty" validate:"omitempty,max=100"`
	ResumeText *string `json:"resumeText,omitempty" validate:"required_without=Source,excluded_with=Source"`
	Source     string  `json:"source,omitempty" validate:"required_without=ResumeText"`
	MIMEType   string  `json:"mimeType,omitempty"`
}

// Text returns the inline resume text, empty when absent
func (j *AnalysisJob) Text() string {
	return deref(j.ResumeText)
}

// Validate validates the AnalysisJob using the validator.
func (j *AnalysisJob) Validate() error {
	return validate.Struct(j)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Job result statuses
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobResult is published for every processed AnalysisJob
type JobResult struct {
	JobID     string           `json:"jobId"`
	Status    string           `json:"status"`
	Report    *analysis.Report `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorCode string           `json:"errorCode,omitempty"`
}
