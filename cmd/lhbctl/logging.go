package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/pkg/config"
)

// resolveLogLevel picks the effective level for a command: --log-level wins
// over the command's verbose flag, and with neither set the logger stays
// silent so log records never interleave with command output.
func resolveLogLevel(cmd *cobra.Command, verboseFlagName string) string {
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		return level
	}
	if verbose, _ := cmd.Flags().GetBool(verboseFlagName); verbose {
		return "debug"
	}
	return "panic"
}

// configureLogger builds the command logger through pkg/config, the same
// constructor the config file path uses. Unknown levels are an error.
func configureLogger(cmd *cobra.Command, verboseFlagName string) (*logrus.Logger, error) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = resolveLogLevel(cmd, verboseFlagName)
	return cfg.NewLogger()
}
