package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig  string
	flagAccount string
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "flowcanvas",
	Short: "Flow, distribution and canvas views over Jira search results",
	Long: `flowcanvas turns a JQL query into lane summaries, a field distribution or a
canvas of issues positioned by age and lane.

It runs as an HTTP service (serve), a terminal dashboard (tui) or one-shot
commands that print JSON.

Authentication:
  1. jira.api_token in the config file
  2. Environment variable: JIRA_API_TOKEN
  3. jira.token_command, a credential helper that prints the token`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagAccount, "account", "", "account id to act as (overrides caller.account_id)")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "project key of the caller (overrides caller.project_key)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(viewsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(tuiCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flowcanvas %s (commit: %s)\n", version, commit)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
