package cli

import (
	"context"
	"fmt"

	"resumatch/internal/analysis"
	"resumatch/internal/common"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [resume-file]",
	Short: "Recommend the best fitting role for a resume",
	Long: `Score a resume against every role in the catalog and print the best
fitting role together with the match percentage of each role.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveOutput(getConfigFromContext(cmd.Context()), recommendOutput)
		if err != nil {
			return err
		}
		recommendOutput = resolved
		return nil
	},
	RunE: runRecommend,
}

var recommendOutput commandOutput

func init() {
	addOutputFlags(recommendCmd, &recommendOutput)
}

func runRecommend(cmd *cobra.Command, args []string) error {
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

	operation := func(_ context.Context, text string) (analysis.RoleRecommendation, error) {
		return engine.Recommend(text), nil
	}

	err = common.RunResumeCommand(ctx, logger,
		common.NewFileProcessor(loader, logger),
		common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger),
		recommendOutput,
		args[0],
		operation,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to recommend role: %w", err)
	}
	return nil
}
