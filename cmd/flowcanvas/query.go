package main

import (
	"fmt"
	"os"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/service"
	"github.com/spf13/cobra"
)

var (
	flagView       string
	flagMax        int
	flagTimeWindow string
	flagOutput     string
	flagLane       string
)

var queryCmd = &cobra.Command{
	Use:   "query <jql>",
	Short: "Aggregate a query and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var issuesCmd = &cobra.Command{
	Use:   "issues <jql>",
	Short: "List matching issues as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runIssues,
}

var exportCmd = &cobra.Command{
	Use:   "export <jql>",
	Short: "Export matching issues as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	queryCmd.Flags().StringVar(&flagView, "view", domain.ViewFlow, "view type: flow, distribution or canvas")
	queryCmd.Flags().IntVar(&flagMax, "max", 0, "maximum issues to aggregate (clamped to 100..5000)")
	queryCmd.Flags().StringVar(&flagTimeWindow, "window", "", "rolling window as an ISO-8601 duration, e.g. P30D")
	queryCmd.Flags().StringVar(&flagLane, "lane", "", "narrow to the statuses of one lane: backlog, inProgress, done or other")

	issuesCmd.Flags().IntVar(&flagMax, "max", 0, "maximum issues to list (clamped to 1..1000)")

	exportCmd.Flags().IntVar(&flagMax, "max", 0, "maximum issues to export (clamped to 1..1000)")
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the CSV to this file instead of stdout")
}

func runQuery(cmd *cobra.Command, args []string) error {
	switch flagView {
	case domain.ViewFlow, domain.ViewDistribution, domain.ViewCanvas:
	default:
		return fmt.Errorf("unknown view %q: want flow, distribution or canvas", flagView)
	}

	ctx := cmd.Context()
	a, err := setup(ctx, setupOptions{upstream: true})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.svc.QueryAggregate(ctx, a.caller, service.AggregateRequest{
		JQL:        args[0],
		ProjectKey: flagProject,
		ViewType:   flagView,
		MaxIssues:  flagMax,
		TimeWindow: flagTimeWindow,
		Lane:       flagLane,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runIssues(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx, setupOptions{upstream: true})
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.svc.ListIssues(ctx, a.caller, service.ListRequest{
		JQL:        args[0],
		ProjectKey: flagProject,
		MaxIssues:  flagMax,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rows)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx, setupOptions{upstream: true})
	if err != nil {
		return err
	}
	defer a.Close()

	export, err := a.svc.ExportIssuesCSV(ctx, a.caller, service.ListRequest{
		JQL:        args[0],
		ProjectKey: flagProject,
		MaxIssues:  flagMax,
	})
	if err != nil {
		return err
	}

	if flagOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), export.Content)
		return err
	}
	if err := os.WriteFile(flagOutput, []byte(export.Content+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", flagOutput)
	return nil
}
