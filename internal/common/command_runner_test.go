package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"resumatch/internal/analysis"
	"resumatch/internal/catalog"
	"resumatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeAs(role string) ResumeOperationFunc[analysis.Report] {
	engine := analysis.NewEngine(catalog.Default())
	return func(_ context.Context, text string) (analysis.Report, error) {
		return engine.Analyze(text, role)
	}
}

func TestRunResumeCommandToWriter(t *testing.T) {
	logger := errors.NewNopLogger()
	resume := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte("HTML, CSS and React. 2 years."), 0600))

	var out bytes.Buffer
	var logged string
	err := RunResumeCommand(context.Background(), logger,
		NewFileProcessor(nil, logger),
		NewOutputHandlerWithWriter(&out, logger),
		CommandConfig{OutputFormat: "text"},
		resume,
		analyzeAs("Web Developer"),
		func(ref, text string, _ CommandConfig) { logged = ref },
	)
	require.NoError(t, err)

	assert.Equal(t, resume, logged)
	assert.Contains(t, out.String(), "Selected Role: Web Developer")
	assert.Contains(t, out.String(), "Matched Skills:\n- HTML\n- CSS\n- REACT\n")
	assert.Contains(t, out.String(), "Total Experience: 2 Years")
}

func TestRunResumeCommandToFile(t *testing.T) {
	logger := errors.NewNopLogger()
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.md")
	require.NoError(t, os.WriteFile(resume, []byte("# Jane\nPython, SQL, Excel"), 0600))
	report := filepath.Join(dir, "out", "report.json")

	err := RunResumeCommand(context.Background(), logger,
		NewFileProcessor(nil, logger),
		NewOutputHandler(logger),
		CommandConfig{OutputFormat: "json", OutputFile: report},
		resume,
		analyzeAs("Data Analyst"),
		nil,
	)
	require.NoError(t, err)

	content, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"role": "Data Analyst"`)
	assert.Contains(t, string(content), `"matchPercent": 50`)
}

func TestRunResumeCommandErrors(t *testing.T) {
	logger := errors.NewNopLogger()
	var out bytes.Buffer
	handler := NewOutputHandlerWithWriter(&out, logger)
	processor := NewFileProcessor(nil, logger)

	err := RunResumeCommand(context.Background(), logger, processor, handler,
		CommandConfig{OutputFormat: "text"}, filepath.Join(t.TempDir(), "absent.txt"), analyzeAs("Web Developer"), nil)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)

	resume := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte("go"), 0600))

	err = RunResumeCommand(context.Background(), logger, processor, handler,
		CommandConfig{OutputFormat: "text"}, resume, analyzeAs("Astronaut"), nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownRole)

	err = RunResumeCommand(context.Background(), logger, processor, handler,
		CommandConfig{OutputFormat: "xml"}, resume, analyzeAs("Web Developer"), nil)
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
	assert.Empty(t, out.String())
}

func TestReadResumeRejectsEmptyReference(t *testing.T) {
	_, err := NewFileProcessor(nil, errors.NewNopLogger()).ReadResume(context.Background(), "")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidRequest, appErr.Code)
}
