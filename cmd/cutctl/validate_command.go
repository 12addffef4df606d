package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var requestFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a timeline request without queueing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequestFile(requestFile)
			if err != nil {
				return err
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}

			report, err := client.Validate(cmd.Context(), *req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.IsValid {
				fmt.Fprintln(out, "request is valid")
				return nil
			}

			fmt.Fprintln(out, "request has problems:")
			for _, problem := range report.Errors {
				fmt.Fprintf(out, "  - %s\n", problem)
			}
			return errors.New("validation failed")
		},
	}

	cmd.Flags().StringVarP(&requestFile, "file", "f", "", "JSON timeline request file")
	cmd.MarkFlagRequired("file")

	return cmd
}
