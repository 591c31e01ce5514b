package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flotiq/flotiq-setup/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetVersionInfo())
	},
}
