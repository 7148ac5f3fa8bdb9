package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// relocateCommand creates the relocate subcommand, which moves every anchor
// on a file to its current position and prints the outcome per thread.
func relocateCommand(relocator Relocator, reports ReportWriter, defaultReportDir string) *cobra.Command {
	var asJSON bool
	var writeReportFile bool
	var reportDir string

	cmd := &cobra.Command{
		Use:   "relocate <path>",
		Short: "Move thread anchors on a file to their current positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			report, err := relocator.RelocateFile(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), report)
			}

			if writeReportFile {
				if reports == nil {
					return fmt.Errorf("report writer is not configured")
				}
				path, err := reports.Write(ctx, report, reportDir)
				if err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", path)
			}
			return nil
		},
	}

	if defaultReportDir == "" {
		defaultReportDir = "out"
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON instead of the colored summary")
	cmd.Flags().BoolVar(&writeReportFile, "report", false, "Write a markdown report alongside the console output")
	cmd.Flags().StringVar(&reportDir, "report-dir", defaultReportDir, "Directory to write markdown reports into")

	return cmd
}
