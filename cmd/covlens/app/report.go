package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zjy-dev/gcovr-json-util/v2/pkg/gcovr"

	"github.com/zjy-dev/covlens/internal/model"
	"github.com/zjy-dev/covlens/internal/report"
)

// NewReportCommand creates the "report" subcommand.
func NewReportCommand() *cobra.Command {
	var (
		input        string
		gcovrReport  string
		sourceParent string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print statistics for a generated coverage model.",
		Long: `Load a coverage model written by "covlens generate", print its summary
statistics and optionally cross-check it against a gcovr uncovered report.

Examples:
  covlens report --input coverage.json
  covlens report --input coverage.json --gcovr-report uncovered.json --source-parent /src`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("reading %s: %w", input, err)
			}
			var data model.CoverageData
			if err := json.Unmarshal(payload, &data); err != nil {
				return fmt.Errorf("decoding coverage model: %w", err)
			}

			fmt.Println(report.Stats(&data))

			if gcovrReport == "" {
				return nil
			}
			raw, err := os.ReadFile(gcovrReport)
			if err != nil {
				return fmt.Errorf("reading %s: %w", gcovrReport, err)
			}
			var uncovered gcovr.UncoveredReport
			if err := json.Unmarshal(raw, &uncovered); err != nil {
				return fmt.Errorf("decoding gcovr report: %w", err)
			}

			mismatches := report.Compare(&data, report.ConvertGcovrUncoveredReport(&uncovered, sourceParent))
			if len(mismatches) == 0 {
				fmt.Println("gcovr cross-check: no mismatches")
				return nil
			}
			fmt.Printf("gcovr cross-check: %d mismatches\n", len(mismatches))
			for i := range mismatches {
				fmt.Println("  " + mismatches[i].String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "coverage.json", "coverage model to load")
	cmd.Flags().StringVar(&gcovrReport, "gcovr-report", "", "gcovr uncovered report to cross-check against")
	cmd.Flags().StringVar(&sourceParent, "source-parent", "", "base path prepended to the gcovr report's relative paths")

	return cmd
}
