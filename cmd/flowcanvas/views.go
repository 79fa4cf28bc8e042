package main

import (
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/spf13/cobra"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved views",
}

var viewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the saved views of the caller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, setupOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.svc.ListViews(ctx, a.caller)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

var viewsSaveCmd = &cobra.Command{
	Use:   "save <name> <jql>",
	Short: "Save or replace a named view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, setupOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		saved, err := a.svc.SaveView(ctx, a.caller, domain.SavedView{
			Name:       args[0],
			JQL:        args[1],
			TimeWindow: flagTimeWindow,
			ViewType:   flagView,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), saved)
	},
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, setupOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.svc.DeleteView(ctx, a.caller, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	viewsSaveCmd.Flags().StringVar(&flagView, "view", domain.ViewFlow, "view type: flow, distribution or canvas")
	viewsSaveCmd.Flags().StringVar(&flagTimeWindow, "window", "", "rolling window as an ISO-8601 duration, e.g. P30D")

	viewsCmd.AddCommand(viewsListCmd)
	viewsCmd.AddCommand(viewsSaveCmd)
	viewsCmd.AddCommand(viewsDeleteCmd)
}
