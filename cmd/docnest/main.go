package main

import (
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Tests build a fresh tree per run so
// flag state never leaks between cases.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docnest",
		Short: "Nest dotted doc-comment declarations into trees",
		Long: `docnest turns flat doc-comment declarations such as "opts" and "opts.silent"
into nested trees, warning about subproperties whose parent is missing.`,
		SilenceUsage: true,
	}
	root.Version = buildVersion()

	root.AddCommand(newNestCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newVersionCmd())

	root.PersistentFlags().String("config", "", "TOML config file (default $DOCNEST_CONFIG)")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("quiet", false, "suppress warning output")
	root.PersistentFlags().Int("max-diagnostics", 0, "maximum number of warnings kept per file (0 = config value)")
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
