package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cutforge/cutforge-agent/internal/export"
)

func newEstimateCommand(ctx *commandContext) *cobra.Command {
	var requestFile string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate export time and output size for a timeline request",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequestFile(requestFile)
			if err != nil {
				return err
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}

			est, err := client.Estimate(cmd.Context(), *req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "clips:          %d\n", est.ClipCount)
			fmt.Fprintf(out, "total duration: %s\n", export.FormatDuration(est.TotalDuration))
			fmt.Fprintf(out, "estimated time: %s\n", export.FormatDuration(est.TimeSeconds))
			fmt.Fprintf(out, "estimated size: %s\n", export.FormatFileSize(est.SizeBytes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestFile, "file", "f", "", "JSON timeline request file")
	cmd.MarkFlagRequired("file")

	return cmd
}
