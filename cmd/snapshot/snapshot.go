package snapshot

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/logging"
	"github.com/camsentry/camsentry/internal/recorder"
)

// Command creates the snapshot command for single-frame captures.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		url string
		out string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a single frame from a camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init()
			if err := recorder.CaptureSnapshot(context.Background(), url, out); err != nil {
				return err
			}
			fmt.Printf("Snapshot written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Camera stream URL (required)")
	cmd.Flags().StringVar(&out, "out", "snapshot.jpg", "Output image path")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
