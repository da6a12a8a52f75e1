package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxury-yacht/flowtest-console/backend"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of flowtest-console",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := backend.GetAppInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "flowtest-console version %s (commit %s, built %s)\n",
				info.Version, info.GitCommit, info.BuildTime)
		},
	}
}
