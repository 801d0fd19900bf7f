package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resumatch/internal/errors"
	"resumatch/internal/extract"
	"resumatch/internal/source"
	"resumatch/internal/utils"
)

// FileProcessor handles resume input and report output files
type FileProcessor struct {
	loader *source.Loader
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance. A nil loader reads
// local files only, without a size limit.
func NewFileProcessor(loader *source.Loader, logger *errors.Logger) *FileProcessor {
	if loader == nil {
		loader = source.NewLoaderWithClient(nil, nil, 0, logger)
	}
	return &FileProcessor{loader: loader, logger: logger}
}

// ReadResume loads a resume reference (local path or s3://bucket/key) and
// returns its text.
func (fp *FileProcessor) ReadResume(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume reference cannot be empty", nil)
	}

	if !strings.HasPrefix(ref, "s3://") && !utils.HasExtension(ref, extract.SupportedExtensions()) {
		fp.logger.Warn("File extension is not a known resume format", "filename", ref)
	}

	return fp.loader.Text(ctx, ref, "")
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
