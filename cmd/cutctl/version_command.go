package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cutforge/cutforge-agent/internal/config"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cutctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cutctl %s\n", config.Version)
			fmt.Fprintf(out, "  build time: %s\n", config.BuildTime)
			fmt.Fprintf(out, "  commit:     %s\n", config.GitCommit)
			return nil
		},
	}
}
