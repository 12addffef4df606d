package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cutforge/cutforge-agent/internal/api"
	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent health, ffmpeg availability, and the export queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Cutforge agent %s\n\n", status.Version)
			for _, line := range statusLines(status, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func statusLines(status *api.StatusResponse, colorize bool) []string {
	lines := []string{
		renderStatusLine("State", stateKind(status), status.State, colorize),
		renderStatusLine("FFmpeg", ffmpegKind(status.FFmpeg), ffmpegMessage(status.FFmpeg), colorize),
		renderStatusLine("Queue", statusInfo, queueMessage(status.Queue), colorize),
	}
	if status.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	if status.ActiveJob != nil {
		lines = append(lines, renderStatusLine("Active export", statusInfo, activeJobMessage(status.ActiveJob), colorize))
	}
	return lines
}

func stateKind(status *api.StatusResponse) statusKind {
	switch {
	case status.State == "error":
		return statusError
	case status.Paused:
		return statusWarn
	case status.State == "exporting":
		return statusInfo
	default:
		return statusOK
	}
}

func ffmpegKind(ff *api.FFmpegResponse) statusKind {
	switch {
	case ff == nil:
		return statusWarn
	case ff.Available:
		return statusOK
	default:
		return statusError
	}
}

func ffmpegMessage(ff *api.FFmpegResponse) string {
	switch {
	case ff == nil:
		return "not probed"
	case ff.Available:
		return fmt.Sprintf("%s (%s)", ff.Version, ff.Path)
	case ff.Error != "":
		return ff.Error
	default:
		return "unavailable"
	}
}

func queueMessage(queue map[string]int) string {
	parts := make([]string, 0, 5)
	for _, status := range []string{
		jobs.StatusPending,
		jobs.StatusRunning,
		jobs.StatusCompleted,
		jobs.StatusFailed,
		jobs.StatusCancelled,
	} {
		parts = append(parts, fmt.Sprintf("%d %s", queue[status], status))
	}
	return strings.Join(parts, ", ")
}

func activeJobMessage(job *api.JobResponse) string {
	msg := fmt.Sprintf("%s %s %d%%", shortID(job.ID), job.Filename, job.Progress)
	if job.Session != nil && job.Session.Remaining > 0 {
		msg += " ETA " + export.FormatETA(job.Session.Remaining)
	}
	return msg
}
