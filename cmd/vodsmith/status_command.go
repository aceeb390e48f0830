package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vodsmith/internal/config"
	"vodsmith/internal/videostore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <video-id>",
		Short: "Show the processing state of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := strings.TrimSpace(args[0])
			if videoID == "" {
				return fmt.Errorf("video id must not be empty")
			}
			return ctx.withVideoStore(func(cfg *config.Config, store videostore.Store) error {
				video, err := store.Get(cmd.Context(), videoID)
				if err != nil {
					return fmt.Errorf("load video %s: %w", videoID, err)
				}
				if jsonOut {
					return writeJSON(cmd, videoJSON(video))
				}
				printVideo(cmd, video)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine readable output")
	return cmd
}

func printVideo(cmd *cobra.Command, video videostore.Video) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Video:      %s\n", video.ID)
	fmt.Fprintf(out, "Status:     %s\n", renderStatus(video.Status, colorize))
	fmt.Fprintf(out, "Source:     %s\n", video.RawKey)
	if video.DurationSeconds > 0 {
		fmt.Fprintf(out, "Duration:   %s\n", formatDuration(video.DurationSeconds))
	}
	fmt.Fprintf(out, "Progress:   %d/%d chunks\n", video.ChunksCompleted, video.TotalChunks)
	if len(video.Renditions) > 0 {
		fmt.Fprintf(out, "Renditions: %s\n", strings.Join(video.Renditions, ", "))
	}
	if video.PlaybackURL != "" {
		fmt.Fprintf(out, "Playback:   %s\n", video.PlaybackURL)
	}
	fmt.Fprintf(out, "Updated:    %s\n", video.UpdatedAt.Local().Format(time.RFC3339))
}

func videoJSON(video videostore.Video) map[string]any {
	return map[string]any{
		"video_id":         video.ID,
		"status":           string(video.Status),
		"raw_key":          video.RawKey,
		"duration_seconds": video.DurationSeconds,
		"total_chunks":     video.TotalChunks,
		"chunks_completed": video.ChunksCompleted,
		"renditions":       video.Renditions,
		"playback_url":     video.PlaybackURL,
		"created_at":       video.CreatedAt,
		"updated_at":       video.UpdatedAt,
	}
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
