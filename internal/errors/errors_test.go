package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := stderrors.New("disk full")

	withCause := NewIOError(ErrCodeFileNotReadable, "cannot read resume", cause)
	assert.Equal(t, "FILE_NOT_READABLE: cannot read resume (caused by: disk full)", withCause.Error())
	assert.ErrorIs(t, withCause, cause)

	plain := NewScoringError(ErrCodeUnknownRole, "role not found", nil)
	assert.Equal(t, "UNKNOWN_ROLE: role not found", plain.Error())
	assert.Equal(t, ErrorTypeScoring, plain.Type)
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	appErr := NewValidationError(ErrCodeInvalidRequest, "bad input", nil).WithContext("field", "role")
	wrapped := fmt.Errorf("handler: %w", appErr)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "role", got.Context["field"])

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestLoggerLogErrorIncludesAppErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewScoringError(ErrCodeUnknownRole, "role not found", nil).WithContext("role", "Astronaut")
	logger.LogError(err, "analysis failed", "request_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "analysis failed", entry["msg"])
	assert.Equal(t, "scoring", entry["error_type"])
	assert.Equal(t, "UNKNOWN_ROLE", entry["error_code"])
	assert.Equal(t, "Astronaut", entry["role"])
	assert.Equal(t, "abc", entry["request_id"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		assert.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}
