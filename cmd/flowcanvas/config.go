package main

import (
	"fmt"

	"github.com/h0rv/flowcanvas/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.WriteDefaults(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultConfigPath()
}
