package server

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/engine"
)

// Command creates the server command which runs the full recording engine.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the recording engine",
		Long:  "Start the storage pool registry, cleanup scheduler, auto-recording supervisor and metrics endpoint, and record until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return engine.Run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the server command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Storage.Path, "storagepath", viper.GetString("storage.path"), "Default recordings directory")
	cmd.Flags().StringVar(&settings.Storage.MaxStorage, "maxstorage", viper.GetString("storage.maxstorage"), "Total size budget for recordings, e.g. \"500GB\"")
	cmd.Flags().IntVar(&settings.Storage.RetentionDays, "retentiondays", viper.GetInt("storage.retentiondays"), "Maximum age of recordings in days, 0 disables age cleanup")
	cmd.Flags().IntVar(&settings.Recording.SegmentDuration, "segmentduration", viper.GetInt("recording.segmentduration"), "Segment length in seconds")
	cmd.Flags().StringVar(&settings.Recording.Transport, "rtsptransport", viper.GetString("recording.transport"), "RTSP transport (tcp/udp)")
	cmd.Flags().StringVar(&settings.Recording.FfmpegPath, "ffmpeg", viper.GetString("recording.ffmpegpath"), "Path to the ffmpeg binary (empty = search PATH)")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Enable Prometheus metrics endpoint")
	cmd.Flags().StringVar(&settings.Metrics.Listen, "listen", viper.GetString("metrics.listen"), "Listen address and port of metrics endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
