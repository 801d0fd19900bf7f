package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"resumatch/internal/catalog"
	"resumatch/internal/errors"
	"resumatch/internal/extract"

	"github.com/go-playground/validator/v10"
)

// healthHandler reports service health, degraded while the S3 circuit is open
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumatch",
		"version": s.Version,
		"catalog": map[string]any{
			"roles": s.Engine.Catalog().Len(),
		},
	}

	status := http.StatusOK
	if s.Loader != nil {
		breaker := s.Loader.Breaker()
		response["circuit_breakers"] = map[string]any{
			"s3_fetch": breaker.GetStats(),
		}
		if !breaker.IsHealthy() {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           s.APIKeys.Len() > 0,
			"tls_mode":               s.TLSConfig.Mode,
		},
		"catalog": map[string]any{
			"roles": s.Engine.Catalog().Names(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
			"trust_forwarded":  s.RateLimit.TrustForwardedFor,
		}
	}

	if s.Certs != nil {
		response["tls_reload"] = s.Certs.Status()
	}
	if len(s.secretWatchers) > 0 {
		watchers := make([]map[string]any, 0, len(s.secretWatchers))
		for _, w := range s.secretWatchers {
			watchers = append(watchers, w.Status())
		}
		response["secret_watchers"] = watchers
	}

	if s.Loader != nil {
		response["circuit_breakers"] = map[string]any{
			"s3_fetch": s.Loader.Breaker().GetStats(),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeRequestError answers a malformed or oversized request body
func writeRequestError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		writeErrorResponse(w, "Request too large",
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit),
			http.StatusRequestEntityTooLarge)
		return
	}
	writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
}

// writeValidationError answers a request that failed struct validation
func writeValidationError(w http.ResponseWriter, err error) {
	message := err.Error()

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, validationMessage(fe))
		}
		message = strings.Join(parts, "; ")
	}

	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request",
		Message: message,
		Code:    errors.ErrCodeInvalidRequest,
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// writeAppError maps a domain or application error to its HTTP status
func writeAppError(w http.ResponseWriter, title string, err error) {
	writeJSON(w, statusForError(err), ErrorResponse{
		Error:   title,
		Message: err.Error(),
		Code:    errorCode(err),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownRole):
		return http.StatusNotFound
	case errors.Is(err, extract.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	}

	if appErr, ok := errors.AsAppError(err); ok {
		switch {
		case appErr.Code == errors.ErrCodeFileTooLarge:
			return http.StatusRequestEntityTooLarge
		case appErr.Code == errors.ErrCodeExtractionFailed:
			return http.StatusUnprocessableEntity
		case appErr.Type == errors.ErrorTypeValidation:
			return http.StatusBadRequest
		case appErr.Type == errors.ErrorTypeNetwork:
			return http.StatusBadGateway
		case appErr.Type == errors.ErrorTypeScoring:
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	if errors.Is(err, catalog.ErrUnknownRole) {
		return errors.ErrCodeUnknownRole
	}
	return ""
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
