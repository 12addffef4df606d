package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cutforge/cutforge-agent/internal/api"
	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/jobs"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Manage export jobs",
	}

	cmd.AddCommand(newExportSubmitCommand(ctx))
	cmd.AddCommand(newExportListCommand(ctx))
	cmd.AddCommand(newExportShowCommand(ctx))
	cmd.AddCommand(newExportCancelCommand(ctx))

	return cmd
}

func newExportSubmitCommand(ctx *commandContext) *cobra.Command {
	var requestFile string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue an export from a timeline request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequestFile(requestFile)
			if err != nil {
				return err
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}

			job, err := client.SubmitExport(cmd.Context(), *req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "queued export %s (%d clips -> %s)\n", job.ID, job.ClipCount, job.Filename)

			if wait {
				return waitForJob(cmd.Context(), client, job.ID, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestFile, "file", "f", "", "JSON timeline request file")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the export finishes")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newExportListCommand(ctx *commandContext) *cobra.Command {
	var filterStatus string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List export jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			jobList, err := client.ListExports(cmd.Context(), filterStatus, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(jobList) == 0 {
				fmt.Fprintln(out, "no export jobs")
				return nil
			}

			rows := make([][]string, 0, len(jobList))
			for _, job := range jobList {
				rows = append(rows, []string{
					shortID(job.ID),
					job.Status,
					strconv.Itoa(job.Progress) + "%",
					strconv.Itoa(job.ClipCount),
					job.Filename,
					formatTimestamp(job.CreatedAt),
				})
			}

			headers := []string{"ID", "STATUS", "PROGRESS", "CLIPS", "FILENAME", "CREATED"}
			fmt.Fprintln(out, renderTable(headers, rows, 2, 3))
			return nil
		},
	}

	cmd.Flags().StringVar(&filterStatus, "status", "", "only show jobs with this status")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of jobs to list")

	return cmd
}

func newExportShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one export job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			job, err := client.GetExport(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printJobDetail(cmd.OutOrStdout(), job)
			return nil
		},
	}
}

func newExportCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending or running export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			job, err := client.CancelExport(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "export %s is now %s\n", shortID(job.ID), job.Status)
			return nil
		},
	}
}

// waitForJob polls the agent until the job settles, rendering a single
// progress line in place.
func waitForJob(ctx context.Context, client *Client, id string, out io.Writer) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		job, err := client.GetExport(ctx, id)
		if err != nil {
			return err
		}

		line := fmt.Sprintf("%-10s %3d%%", job.Status, job.Progress)
		if job.Session != nil && job.Session.Remaining > 0 {
			line += "  ETA " + export.FormatETA(job.Session.Remaining)
		}
		fmt.Fprintf(out, "\r%-40s", line)

		if jobs.IsTerminal(job.Status) {
			fmt.Fprintln(out)
			switch job.Status {
			case jobs.StatusCompleted:
				fmt.Fprintf(out, "export finished: %s\n", job.OutputPath)
				return nil
			case jobs.StatusCancelled:
				return errors.New("export was cancelled")
			default:
				return fmt.Errorf("export failed: %s", job.Error)
			}
		}
	}
}

func readRequestFile(path string) (*export.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read request file: %w", err)
	}
	var req export.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid request file %s: %w", path, err)
	}
	return &req, nil
}

func printJobDetail(out io.Writer, job *api.JobResponse) {
	writeField := func(label, value string) {
		if value != "" {
			fmt.Fprintf(out, "%-12s %s\n", label+":", value)
		}
	}

	writeField("ID", job.ID)
	writeField("Status", job.Status)
	writeField("Progress", strconv.Itoa(job.Progress)+"%")
	writeField("Filename", job.Filename)
	writeField("Clips", strconv.Itoa(job.ClipCount))
	writeField("Output", job.OutputPath)
	writeField("Error", job.Error)
	writeField("Created", formatTimestamp(job.CreatedAt))
	writeField("Started", formatTimestamp(job.StartedAt))
	writeField("Completed", formatTimestamp(job.CompletedAt))

	if s := job.Session; s != nil {
		writeField("Step", string(s.Step))
		writeField("Live", fmt.Sprintf("%.1f%% at %.0f fps", s.Percent, s.FPS))
		if s.Remaining > 0 {
			writeField("ETA", export.FormatETA(s.Remaining))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatTimestamp rewrites an RFC3339 stamp into local wall-clock time.
func formatTimestamp(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
