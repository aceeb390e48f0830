package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vodsmith/internal/config"
	"vodsmith/internal/videostore"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List tracked videos and their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVideoStore(func(cfg *config.Config, store videostore.Store) error {
				videos, err := store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list videos: %w", err)
				}

				filter := videostore.Status(strings.ToUpper(strings.TrimSpace(statusFilter)))
				if filter != "" {
					filtered := videos[:0]
					for _, video := range videos {
						if video.Status == filter {
							filtered = append(filtered, video)
						}
					}
					videos = filtered
				}

				if jsonOut {
					items := make([]map[string]any, 0, len(videos))
					for _, video := range videos {
						items = append(items, videoJSON(video))
					}
					return writeJSON(cmd, map[string]any{"videos": items})
				}

				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "No videos tracked")
					return nil
				}

				colorize := shouldColorize(out)
				headers := []string{"Video", "Status", "Progress", "Renditions", "Playback"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
				rows := make([][]string, 0, len(videos))
				for _, video := range videos {
					rows = append(rows, []string{
						video.ID,
						renderStatus(video.Status, colorize),
						fmt.Sprintf("%d/%d", video.ChunksCompleted, video.TotalChunks),
						strings.Join(video.Renditions, ", "),
						video.PlaybackURL,
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine readable output")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show videos with this status")
	return cmd
}
