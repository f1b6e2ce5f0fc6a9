// Package app provides the entry point for the opscore command-line server.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opscorehq/opscore/pkg/logger"
)

var configPathFlag string

// NewRootCmd creates the root opscore command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "opscore",
		DisableAutoGenTag: true,
		Short:             "opscore runs a JSON-RPC operations server exposing SSH, Docker, and Kubernetes tools",
		Long: `opscore is a JSON-RPC server that lets an MCP-style client run a
fixed catalog of operational tools — SSH command execution, Docker container
lifecycle, Kubernetes pod/deployment actions, and log tailing — behind a
per-profile policy of allowlisted commands, dangerous-flag refusal, and
output redaction.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.InitializeWithEnv()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "path to the profile config file (default: $CONFIG_PATH or ~/.config/ops-core/config.yaml)")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("error binding config flag: %v", err)
	}

	rootCmd.AddCommand(newServeCommand())
	return rootCmd
}
