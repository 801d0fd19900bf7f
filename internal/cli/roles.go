package cli

import (
	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles of the catalog",
	Long:  "List every role of the active catalog with its required skills, in catalog order.",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveOutput(getConfigFromContext(cmd.Context()), rolesOutput)
		if err != nil {
			return err
		}
		rolesOutput = resolved
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		rt, err := openCatalog(cfg, logger, false)
		if err != nil {
			return err
		}

		listing := types.NewRoleListing(rt.source.Catalog())
		return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(listing, rolesOutput)
	},
}

var rolesOutput commandOutput

func init() {
	addOutputFlags(rolesCmd, &rolesOutput)
}
