package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/rosterpulse/internal/config"
	"github.com/rohankatakam/rosterpulse/internal/output"
	"github.com/rohankatakam/rosterpulse/internal/roster"
)

var (
	runRosterPath string
	runExportPath string
	runFilter     roster.Filter
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch commits for the roster and print the activity report",
	Long: `Fetch recent commits for every roster entry in paced batches, then print
per-user daily counts, a branch/section summary and the entries whose
repository could not be read.

Examples:
  rpulse run --roster class.yaml
  rpulse run --branch CSE --section A -o quiet
  rpulse run --export report.csv`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runRosterPath, "roster", "r", "", "roster file (default from config)")
	runCmd.Flags().StringVar(&runExportPath, "export", "", "also write the report to a .csv or .json file")
	runCmd.Flags().StringVar(&runFilter.Branch, "branch", "", "only include this branch")
	runCmd.Flags().StringVar(&runFilter.Section, "section", "", "only include this section")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runRosterPath != "" {
		cfg.Roster.Path = runRosterPath
	}
	if err := validate(config.ValidationContextRun); err != nil {
		return err
	}
	level, err := verbosity()
	if err != nil {
		return err
	}
	if runExportPath != "" {
		if _, err := output.ExportFormat(runExportPath); err != nil {
			return err
		}
	}

	entries, err := loadRoster(runFilter)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.Run(ctx, entries)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(level, interactive())
	if err := formatter.Format(report, cmd.OutOrStdout()); err != nil {
		return err
	}

	if runExportPath != "" {
		if err := output.ExportFile(report, runExportPath); err != nil {
			return err
		}
		logger.WithField("path", runExportPath).Info("Report exported")
	}
	return nil
}
