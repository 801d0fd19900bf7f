package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumatch/internal/analysis"
	"resumatch/internal/catalog"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/source"
	"resumatch/internal/types"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg ServerConfig, loader *source.Loader) http.Handler {
	t.Helper()

	cfg.Version = "test"
	if cfg.MaxRequestSize == 0 {
		cfg.MaxRequestSize = 1 << 20
	}
	s := NewServer(&config.Config{}, cfg, analysis.NewEngine(catalog.Default()), loader, errors.NewNopLogger())
	if s.RateLimiter != nil {
		t.Cleanup(s.RateLimiter.Close)
	}

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	require.NoError(t, err)
	return s.Handler(om)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil)

	rec := postJSON(t, h, "/analyze", `{"resumeText":"HTML, CSS and React. 2 years.","role":"Web Developer"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var report analysis.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Web Developer", report.Role)
	assert.Equal(t, []string{"html", "css", "react"}, report.SkillMatch.Found)
	assert.Equal(t, []string{"javascript", "node", "bootstrap"}, report.SkillMatch.Missing)
	assert.InDelta(t, 50.0, report.SkillMatch.MatchPercent, 1e-9)
	assert.Equal(t, 2, report.ExperienceYears)
	require.NotNil(t, report.ProjectedScore)
}

func TestEmptyResumeTextScoresZero(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil)

	rec := postJSON(t, h, "/analyze", `{"resumeText":"","role":"Web Developer"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report analysis.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Web Developer", report.Role)
	assert.Empty(t, report.SkillMatch.Found)
	assert.Zero(t, report.ATS.Total)
	assert.Zero(t, report.Writing.Score)
	assert.Equal(t, "Needs Major Improvement", report.Badge)

	rec = postJSON(t, h, "/recommend", `{"resumeText":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var recommendation analysis.RoleRecommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recommendation))
	assert.Equal(t, "Data Analyst", recommendation.BestRole)
	assert.Zero(t, recommendation.BestScore)
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "unknown role",
			contentType: "application/json",
			body:        `{"resumeText":"go","role":"Astronaut"}`,
			wantStatus:  http.StatusNotFound,
			wantCode:    errors.ErrCodeUnknownRole,
		},
		{
			name:        "missing role",
			contentType: "application/json",
			body:        `{"resumeText":"go"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    errors.ErrCodeInvalidRequest,
			wantMessage: "Role is required",
		},
		{
			name:        "missing resume",
			contentType: "application/json",
			body:        `{"role":"Web Developer"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    errors.ErrCodeInvalidRequest,
			wantMessage: "ResumeText is required",
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"resumeText":`,
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "wrong content type",
			contentType: "text/plain",
			body:        `{"resumeText":"go","role":"Web Developer"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "content-type must be application/json",
		},
	}

	h := newTestServer(t, ServerConfig{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp.Code)
			}
			if tt.wantMessage != "" {
				assert.Contains(t, resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestAnalyzeEndpointRejectsOversizedBody(t *testing.T) {
	h := newTestServer(t, ServerConfig{MaxRequestSize: 64}, nil)

	body := fmt.Sprintf(`{"resumeText":%q,"role":"Web Developer"}`, strings.Repeat("react ", 50))
	rec := postJSON(t, h, "/analyze", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecommendEndpoint(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil)

	rec := postJSON(t, h, "/recommend", `{"resumeText":"Python, Django, Flask, Pandas and NumPy"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out analysis.RoleRecommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Python Developer", out.BestRole)
	assert.InDelta(t, 100.0, out.BestScore, 1e-9)
	assert.Len(t, out.Scores, catalog.Default().Len())

	rec = postJSON(t, h, "/recommend", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRolesEndpoint(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing types.RoleListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 8, listing.Count)
	assert.Equal(t, "Data Analyst", listing.Roles[0].Name)
	assert.Equal(t, "Graphic Designer", listing.Roles[7].Name)
}

func multipartUpload(t *testing.T, filename, content, role string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if role != "" {
		require.NoError(t, mw.WriteField("role", role))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadEndpoint(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil)

	html := `<html><body><p>HTML CSS JavaScript React Node Bootstrap</p><script>var x = "sql";</script></body></html>`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartUpload(t, "resume.html", html, "Web Developer"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report analysis.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Web Developer", report.Role)
	assert.InDelta(t, 100.0, report.SkillMatch.MatchPercent, 1e-9)
	assert.Empty(t, report.SkillMatch.Missing)
	assert.Nil(t, report.ProjectedScore)
	assert.Equal(t, []string{analysis.FullMatchSuggestion}, report.Suggestions)
}

func TestUploadEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		content    string
		role       string
		wantStatus int
		wantCode   string
	}{
		{name: "missing role", filename: "cv.txt", content: "go", wantStatus: http.StatusBadRequest},
		{name: "missing file", role: "Web Developer", wantStatus: http.StatusBadRequest},
		{name: "unsupported document", filename: "cv.rtf", content: "{\\rtf1}", role: "Web Developer",
			wantStatus: http.StatusUnsupportedMediaType, wantCode: errors.ErrCodeUnsupportedDocument},
		{name: "corrupt pdf", filename: "cv.pdf", content: "not a pdf", role: "Web Developer",
			wantStatus: http.StatusUnprocessableEntity, wantCode: errors.ErrCodeExtractionFailed},
		{name: "unknown role", filename: "cv.txt", content: "go", role: "Astronaut",
			wantStatus: http.StatusNotFound, wantCode: errors.ErrCodeUnknownRole},
	}

	h := newTestServer(t, ServerConfig{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, multipartUpload(t, tt.filename, tt.content, tt.role))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, ServerConfig{APIKeys: []string{"secret-key-123", ""}}, nil)

	tests := []struct {
		name       string
		path       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "missing key", path: "/roles", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", path: "/roles", header: "X-API-Key", value: "nope", wantStatus: http.StatusUnauthorized},
		{name: "header key", path: "/roles", header: "X-API-Key", value: "secret-key-123", wantStatus: http.StatusOK},
		{name: "bearer token", path: "/roles", header: "Authorization", value: "Bearer secret-key-123", wantStatus: http.StatusOK},
		{name: "health is public", path: "/health", wantStatus: http.StatusOK},
		{name: "stats is public", path: "/stats", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, ServerConfig{RateLimit: &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMin:    1,
		BurstCapacity:     2,
		ByIP:              true,
		TrustForwardedFor: true,
	}}, nil)

	statuses := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles", nil))
		statuses = append(statuses, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	// A different client behind the trusted proxy has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitIgnoresUnknownAPIKeys(t *testing.T) {
	h := newTestServer(t, ServerConfig{RateLimit: &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
		ByAPIKey:       true,
		ByIP:           true,
	}}, nil)

	statuses := make([]int, 0, 20)
	for i := range 20 {
		req := httptest.NewRequest(http.MethodGet, "/roles", nil)
		req.Header.Set("X-API-Key", fmt.Sprintf("bogus-%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	assert.Equal(t, http.StatusOK, statuses[0])
	assert.NotContains(t, statuses[1:], http.StatusOK)
	assert.Contains(t, statuses, http.StatusTooManyRequests)
}

func TestRateLimitPerValidAPIKey(t *testing.T) {
	h := newTestServer(t, ServerConfig{
		APIKeys: []string{"key-one", "key-two"},
		RateLimit: &config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 1,
			BurstCapacity:  1,
			ByAPIKey:       true,
		},
	}, nil)

	get := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/roles", nil)
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("key-one"))
	assert.Equal(t, http.StatusTooManyRequests, get("key-one"))
	assert.Equal(t, http.StatusOK, get("key-two"))
	// Rejected keys are limited by IP, whose bucket is still full
	assert.Equal(t, http.StatusUnauthorized, get("wrong"))
	assert.Equal(t, http.StatusTooManyRequests, get("also-wrong"))
}

func TestRequestIDPropagation(t *testing.T) {
	h := newTestServer(t, ServerConfig{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

type failingS3 struct{}

func (failingS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestHealthDegradesWhenBreakerOpens(t *testing.T) {
	breaker := source.NewFetchBreaker("S3-Fetch", config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      1,
		FailureThreshold: 0.5,
	}, errors.NewNopLogger())
	loader := source.NewLoaderWithClient(failingS3{}, breaker, 1<<20, errors.NewNopLogger())
	h := newTestServer(t, ServerConfig{}, loader)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := loader.Load(context.Background(), "s3://resumes/cv.pdf")
	require.Error(t, err)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestClientIPAndRateLimitKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		limit   config.RateLimitConfig
		want    string
	}{
		{name: "remote addr", limit: config.RateLimitConfig{ByIP: true}, want: "ip:192.0.2.1"},
		{name: "forwarded for untrusted", headers: map[string]string{"X-Forwarded-For": "198.51.100.4"}, limit: config.RateLimitConfig{ByIP: true}, want: "ip:192.0.2.1"},
		{name: "real ip untrusted", headers: map[string]string{"X-Real-IP": "198.51.100.9"}, limit: config.RateLimitConfig{ByIP: true}, want: "ip:192.0.2.1"},
		{name: "forwarded for trusted", headers: map[string]string{"X-Forwarded-For": "198.51.100.4, garbage"}, limit: config.RateLimitConfig{ByIP: true, TrustForwardedFor: true}, want: "ip:198.51.100.4"},
		{name: "forwarded for takes nearest hop", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 198.51.100.4"}, limit: config.RateLimitConfig{ByIP: true, TrustForwardedFor: true}, want: "ip:198.51.100.4"},
		{name: "real ip trusted", headers: map[string]string{"X-Real-IP": "198.51.100.9"}, limit: config.RateLimitConfig{ByIP: true, TrustForwardedFor: true}, want: "ip:198.51.100.9"},
		{name: "valid api key", headers: map[string]string{"X-API-Key": "k1"}, limit: config.RateLimitConfig{ByAPIKey: true, ByIP: true}, want: "api:k1"},
		{name: "valid bearer token", headers: map[string]string{"Authorization": "Bearer k1"}, limit: config.RateLimitConfig{ByAPIKey: true}, want: "api:k1"},
		{name: "unknown api key uses ip", headers: map[string]string{"X-API-Key": "bogus"}, limit: config.RateLimitConfig{ByAPIKey: true}, want: "ip:192.0.2.1"},
		{name: "missing api key uses ip", limit: config.RateLimitConfig{ByAPIKey: true, ByIP: true}, want: "ip:192.0.2.1"},
		{name: "nothing enabled", headers: map[string]string{"X-API-Key": "k1"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{APIKeys: NewAPIKeySet([]string{"k1"}), RateLimit: &tt.limit}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, s.rateLimitKey(req))
		})
	}
}

func TestAPIKeySetReplace(t *testing.T) {
	keys := NewAPIKeySet([]string{"old", ""})
	assert.Equal(t, 1, keys.Len())
	assert.True(t, keys.Contains("old"))
	assert.False(t, keys.Contains(""))

	keys.Replace([]string{"new-one", "new-two"})
	assert.Equal(t, 2, keys.Len())
	assert.False(t, keys.Contains("old"))
	assert.True(t, keys.Contains("new-two"))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
