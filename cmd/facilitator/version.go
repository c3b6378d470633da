package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/facilitator"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of facilitator",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "facilitator version %s\n", strings.TrimSpace(facilitator.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
