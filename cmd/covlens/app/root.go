package app

import (
	"github.com/spf13/cobra"
)

// NewCovlensCommand creates the root command for the covlens tool.
func NewCovlensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covlens",
		Short: "Normalize gcov output into a per-function coverage model.",
		Long: `Covlens ingests raw gcov intermediate output (textual or JSON) and
produces a normalized per-file, per-function coverage model with matched
branch data, for consumption by editor highlighters.`,
	}

	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewReportCommand())

	return cmd
}
