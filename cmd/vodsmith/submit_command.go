package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vodsmith/internal/blobstore"
	"vodsmith/internal/job"
	"vodsmith/internal/msgqueue"
)

var submitFileExtensions = map[string]struct{}{
	".mp4": {},
	".mkv": {},
	".mov": {},
	".avi": {},
	".ts":  {},
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var videoID string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "submit <path>",
		Short: "Upload a source video and request processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			ext := strings.ToLower(filepath.Ext(info.Name()))
			if _, ok := submitFileExtensions[ext]; !ok {
				return fmt.Errorf("unsupported file extension %q", ext)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			id := strings.TrimSpace(videoID)
			if id == "" {
				id = uuid.NewString()
			}
			rawKey := id + ext

			raw, err := blobstore.OpenBucket(cmd.Context(), cfg, cfg.Storage.RawBucket)
			if err != nil {
				return fmt.Errorf("open raw bucket: %w", err)
			}

			file, err := os.Open(absPath)
			if err != nil {
				return fmt.Errorf("open source file: %w", err)
			}
			defer file.Close()

			if err := raw.Put(cmd.Context(), rawKey, file, blobstore.ContentTypeFor(rawKey)); err != nil {
				return fmt.Errorf("upload source: %w", err)
			}

			queues, err := msgqueue.OpenFromConfig(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open queues: %w", err)
			}
			defer queues.Close()

			request := job.SegmentRequest{
				VideoID:   id,
				RawBucket: cfg.Storage.RawBucket,
				RawKey:    rawKey,
			}
			body, err := json.Marshal(request)
			if err != nil {
				return fmt.Errorf("encode segment request: %w", err)
			}
			if err := queues.Segments.Send(cmd.Context(), body); err != nil {
				return fmt.Errorf("enqueue segment request: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"video_id": id,
					"raw_key":  rawKey,
					"bucket":   cfg.Storage.RawBucket,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %s as %s\n", filepath.Base(absPath), rawKey)
			fmt.Fprintf(out, "Submitted video %s for processing\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoID, "id", "", "Video identifier (defaults to a generated UUID)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine readable output")
	return cmd
}
