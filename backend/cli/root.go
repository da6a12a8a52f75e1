package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luxury-yacht/flowtest-console/backend"
)

// NewRootCmd builds the flowtest-console command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowtest-console",
		Short: "Web console for logging pipeline FlowTests",
		Long: `flowtest-console serves a browser UI for creating, inspecting and deleting
FlowTest resources and for reading the Flows and pods they reference.`,
		// errors from RunE are reported by cobra; usage is noise at that point
		SilenceUsage: true,
		Version:      backend.GetAppInfo().Version,
	}
	root.SetVersionTemplate(`{{printf "flowtest-console version %s\n" .Version}}`)

	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
