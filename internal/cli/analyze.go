package cli

import (
	"context"
	"fmt"

	"resumatch/internal/analysis"
	"resumatch/internal/common"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Analyze a resume against a job role",
	Long: `Analyze a resume against a role from the catalog and print a report.

The report includes:
- Matched and missing skills with the match percentage
- Total years of experience and detected education
- Writing quality score
- ATS score breakdown (skills, role match, experience, education),
  the projected score once missing skills are added, and a badge
- Improvement suggestions and the best fitting role

Without --role the resume is analyzed against its best fitting role.
The resume may be a local file or s3://bucket/key.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveOutput(getConfigFromContext(cmd.Context()), analyzeOutput)
		if err != nil {
			return err
		}
		analyzeOutput = resolved
		return nil
	},
	RunE: runAnalyze,
}

var (
	analyzeOutput commandOutput
	analyzeRole   string
)

func init() {
	addOutputFlags(analyzeCmd, &analyzeOutput)
	analyzeCmd.Flags().StringVarP(&analyzeRole, "role", "r", "", "Target role (default: best fitting role)")

	_ = analyzeCmd.RegisterFlagCompletionFunc("role", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		rt, err := openCatalog(getConfigFromContext(cmd.Context()), getLoggerFromContext(cmd.Context()), false)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return rt.source.Catalog().Names(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	rt, err := openCatalog(cfg, logger, false)
	if err != nil {
		return err
	}
	engine := rt.engine()

	loader, err := loaderFor(ctx, cfg, logger, args[0])
	if err != nil {
		return err
	}

	operation := func(_ context.Context, text string) (analysis.Report, error) {
		if analyzeRole == "" {
			return engine.AnalyzeBestFit(text)
		}
		return engine.Analyze(text, analyzeRole)
	}

	logDetails := func(ref, text string, out common.CommandConfig) {
		logger.Info("Starting resume analysis",
			"resume", ref,
			"resume_chars", len(text),
			"role", analyzeRole,
			"output_format", out.OutputFormat)
	}

	err = common.RunResumeCommand(ctx, logger,
		common.NewFileProcessor(loader, logger),
		common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger),
		analyzeOutput,
		args[0],
		operation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}

	logger.Info("Resume analysis completed successfully")
	return nil
}
