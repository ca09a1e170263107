package cmd

import (
	"frame-compress/config"
	"github.com/spf13/cobra"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "frame-compress",
		Short:        "preview and compress videos through the compression service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(compress(config))
	return rootCmd
}
