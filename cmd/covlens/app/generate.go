package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/assemble"
	"github.com/zjy-dev/covlens/internal/branches"
	"github.com/zjy-dev/covlens/internal/config"
	"github.com/zjy-dev/covlens/internal/exec"
	"github.com/zjy-dev/covlens/internal/gcov"
	"github.com/zjy-dev/covlens/internal/intermediate"
	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/model"
	"github.com/zjy-dev/covlens/internal/report"
	"github.com/zjy-dev/covlens/internal/source"
)

// NewGenerateCommand creates the "generate" subcommand.
func NewGenerateCommand() *cobra.Command {
	var (
		dataDir    string
		sourceRoot string
		output     string
		configName string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run gcov over .gcda files and emit the coverage model.",
		Long: `Run gcov over the .gcda data files under --data-dir, parse the
intermediate output (JSON for gcov >= 9, textual otherwise), match branch
records against source constructs and write the assembled coverage model
as JSON.

Examples:
  # Generate a model from a build tree instrumented with --coverage
  covlens generate --data-dir ./build --source-root . --output coverage.json

  # Use a generator.yaml from the configs directory
  covlens generate --data-dir ./build --config generator`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultGenerator()
			if configName != "" {
				if err := config.Load(configName, cfg); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			}
			logger.Init(cfg.LogLevel)

			root, err := filepath.Abs(sourceRoot)
			if err != nil {
				return fmt.Errorf("resolving source root: %w", err)
			}
			mapPath := projectPathMapper(root)

			dataFiles, err := gcov.FindDataFiles(dataDir)
			if err != nil {
				return err
			}
			if len(dataFiles) == 0 {
				return fmt.Errorf("no .gcda files under %s", dataDir)
			}
			logger.Infof("generate: %d data files under %s", len(dataFiles), dataDir)

			runner := gcov.NewRunner(exec.NewCommandExecutor(), cfg.GcovPath, cfg.ToolMajorVersion)
			units, err := runner.Run(dataDir, dataFiles)
			if err != nil {
				return err
			}

			data := assembleUnits(runner, units, cfg, mapPath)

			payload, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding coverage model: %w", err)
			}
			if err := os.WriteFile(output, payload, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			summary := report.Stats(data)
			logger.Infof("generate: wrote %s\n%s", output, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", ".", "directory containing .gcda data files")
	cmd.Flags().StringVar(&sourceRoot, "source-root", ".", "project root used to resolve tool-reported paths")
	cmd.Flags().StringVar(&output, "output", "coverage.json", "output path for the coverage model")
	cmd.Flags().StringVar(&configName, "config", "", "config file base name in the configs directory")

	return cmd
}

// projectPathMapper resolves tool-reported paths against the project root.
// Paths that do not resolve to an existing file are dropped from the model.
func projectPathMapper(root string) intermediate.PathMapper {
	return func(reported string) (string, bool) {
		path := reported
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", false
		}
		return filepath.ToSlash(path), true
	}
}

func assembleUnits(runner *gcov.Runner, units [][]byte, cfg *config.Generator, mapPath intermediate.PathMapper) *model.CoverageData {
	flags := branches.Flags{
		Loop:      cfg.Branches.Loop,
		If:        cfg.Branches.If,
		BooleanOp: cfg.Branches.BooleanOp,
	}

	if runner.JSONFormat() {
		docs, errs := intermediate.DecodeJSONUnits(units, cfg.Parallelism)
		logUnitErrors(errs)
		return assemble.FromJSON(docs, assemble.JSONOptions{
			MapPath:     mapPath,
			Locator:     source.NewCppLocator(),
			Flags:       flags,
			Parallelism: cfg.Parallelism,
		})
	}

	texts := make([]string, len(units))
	for i, unit := range units {
		texts[i] = string(unit)
	}
	items, errs := intermediate.ParseTextUnits(texts, cfg.ToolMajorVersion, mapPath, cfg.Parallelism)
	logUnitErrors(errs)
	return assemble.FromText(items)
}

func logUnitErrors(errs []*intermediate.UnitError) {
	for _, err := range errs {
		logger.Errorf("generate: dropping unit: %v", err)
	}
}
