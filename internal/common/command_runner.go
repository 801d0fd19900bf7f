package common

import (
	"context"
	"time"

	"resumatch/internal/errors"
)

// ResumeOperationFunc computes a result from resume text.
type ResumeOperationFunc[Output any] func(ctx context.Context, text string) (Output, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(ref string, text string, cfg CommandConfig)

// RunResumeCommand encapsulates the common logic of resume CLI commands:
// load and extract the resume, run the operation, format and write output.
func RunResumeCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	fileProcessor *FileProcessor,
	outputHandler *OutputHandler,
	cmdConfig CommandConfig,
	ref string,
	operation ResumeOperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	if err := fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	text, err := fileProcessor.ReadResume(ctx, ref)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(ref, text, cmdConfig)
	}

	start := time.Now()
	result, err := operation(ctx, text)
	if err != nil {
		return err
	}
	logger.Debug("Resume operation completed", "ref", ref, "duration", time.Since(start))

	return outputHandler.HandleOutput(result, cmdConfig)
}
