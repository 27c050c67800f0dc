package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the timber version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "timber %s\n", config.Version)
	},
}
