package main

import (
	"fmt"

	"github.com/h0rv/flowcanvas/internal/tui"
	"github.com/spf13/cobra"
)

var (
	flagJQL       string
	flagExportDir string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal dashboard",
	Long: `Open the interactive lane board.

Without --jql a picker lists the saved views of the caller. Logs are written to a
rotated file while the dashboard owns the terminal.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&flagJQL, "jql", "", "open the board for this query, skipping the view picker")
	tuiCmd.Flags().StringVar(&flagTimeWindow, "window", "", "rolling window as an ISO-8601 duration, e.g. P30D")
	tuiCmd.Flags().IntVar(&flagMax, "max", 0, "maximum issues to load (clamped to 100..5000)")
	tuiCmd.Flags().StringVar(&flagExportDir, "export-dir", "", "directory CSV exports are written to (default: working directory)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx, setupOptions{upstream: true, logToFile: true})
	if err != nil {
		return err
	}
	defer a.Close()

	err = tui.Run(ctx, a.svc, tui.Options{
		Caller:     a.caller,
		JQL:        flagJQL,
		TimeWindow: flagTimeWindow,
		MaxIssues:  flagMax,
		BrowseURL:  a.browse,
		ExportDir:  flagExportDir,
	})
	if err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
