package cli

import (
	"resumatch/internal/mcpserver"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analysis tools over MCP on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the
analyze_resume, recommend_role and list_roles tools.

Logs are written to stderr so they never mix with the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

		om, err := newObservability(cfg)
		if err != nil {
			return err
		}
		defer shutdownObservability(om, logger)

		rt, err := openCatalog(cfg, logger, true)
		if err != nil {
			return err
		}
		defer rt.stop()
		rt.observeReloads(om)

		loader, err := newLoader(ctx, cfg, logger)
		if err != nil {
			return err
		}

		tools := mcpserver.NewTools(rt.engine(), loader, om, logger)
		logger.Info("Starting MCP server on stdio", "version", Version, "roles", rt.source.Catalog().Len())
		return mcpserver.Run(ctx, mcpserver.NewServer(tools, Version))
	},
}
