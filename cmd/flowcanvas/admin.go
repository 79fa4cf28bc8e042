package main

import (
	"strings"

	"github.com/h0rv/flowcanvas/internal/settings"
	"github.com/spf13/cobra"
)

var adminFlags struct {
	admins         string
	teamField      string
	pointsField    string
	statusFallback bool
	backlog        string
	inProgress     string
	done           string
	cacheTTL       int
	maxIssues      int
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Show or change the admin configuration",
}

var adminShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the admin configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, setupOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.svc.GetAdminConfig(ctx, a.caller)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

var adminSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the admin configuration; only flags that are given change",
	Example: `  flowcanvas admin set --account 5b10ac8d --team-field customfield_10001 --points-field customfield_10016
  flowcanvas admin set --in-progress "In Progress,In Review" --cache-ttl 600`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, setupOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		saved, err := a.svc.SaveAdminConfig(ctx, a.caller, adminPatch(cmd))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), saved)
	},
}

func init() {
	f := adminSetCmd.Flags()
	f.StringVar(&adminFlags.admins, "admins", "", "comma-separated admin account ids (replaces the list)")
	f.StringVar(&adminFlags.teamField, "team-field", "", "custom field id holding the team")
	f.StringVar(&adminFlags.pointsField, "points-field", "", "custom field id holding story points")
	f.BoolVar(&adminFlags.statusFallback, "status-fallback", false, "fall back to the status category when a status is unmapped")
	f.StringVar(&adminFlags.backlog, "backlog", "", "comma-separated statuses of the backlog lane")
	f.StringVar(&adminFlags.inProgress, "in-progress", "", "comma-separated statuses of the in-progress lane")
	f.StringVar(&adminFlags.done, "done", "", "comma-separated statuses of the done lane")
	f.IntVar(&adminFlags.cacheTTL, "cache-ttl", 0, "aggregate cache lifetime in seconds")
	f.IntVar(&adminFlags.maxIssues, "max-issues", 0, "default issue cap per aggregate query")

	adminCmd.AddCommand(adminShowCmd)
	adminCmd.AddCommand(adminSetCmd)
}

// adminPatch builds a patch from the flags that were set on cmd.
func adminPatch(cmd *cobra.Command) settings.Patch {
	flags := cmd.Flags()
	var p settings.Patch

	if flags.Changed("admins") {
		ids := splitList(adminFlags.admins)
		p.AdminAccountIDs = &ids
	}

	var fm settings.FieldMappingPatch
	if flags.Changed("team-field") {
		fm.Team = &adminFlags.teamField
	}
	if flags.Changed("points-field") {
		fm.Points = &adminFlags.pointsField
	}
	if flags.Changed("status-fallback") {
		fm.StatusCategoryFallback = &adminFlags.statusFallback
	}
	if fm != (settings.FieldMappingPatch{}) {
		p.FieldMapping = &fm
	}

	var sg settings.StatusGroupsPatch
	if flags.Changed("backlog") {
		sg.Backlog = splitList(adminFlags.backlog)
	}
	if flags.Changed("in-progress") {
		sg.InProgress = splitList(adminFlags.inProgress)
	}
	if flags.Changed("done") {
		sg.Done = splitList(adminFlags.done)
	}
	if sg.Backlog != nil || sg.InProgress != nil || sg.Done != nil {
		p.StatusGroups = &sg
	}

	if flags.Changed("cache-ttl") {
		p.CacheTTLSeconds = adminFlags.cacheTTL
	}
	if flags.Changed("max-issues") {
		p.MaxIssuesPerQuery = adminFlags.maxIssues
	}
	return p
}

// splitList splits a comma-separated flag value, dropping blanks. The result is never nil.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
