// snapshot.go - single frame capture and MP4 export, independent of the
// segment loop
package recorder

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/camsentry/camsentry/internal/conf"
	"github.com/camsentry/camsentry/internal/errors"
	"github.com/camsentry/camsentry/internal/privacy"
)

// snapshotTimeout bounds how long a single frame grab may take.
const snapshotTimeout = 30 * time.Second

// exportTimeout bounds a container remux.
const exportTimeout = 5 * time.Minute

// CaptureSnapshot grabs a single frame from a camera URL and writes it to
// outputPath. The image format follows the output file extension.
func CaptureSnapshot(ctx context.Context, rtspURL, outputPath string) error {
	if recorderLogger == nil {
		InitLogger()
	}
	settings := conf.Setting()

	ffmpegPath, err := resolveFfmpegPath(settings)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	transport := settings.Recording.Transport
	if transport == "" {
		transport = "tcp"
	}

	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-rtsp_transport", transport,
		"-i", rtspURL,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryCommandExecution).
			Component("recorder").
			Context("operation", "snapshot").
			Context("url", privacy.SanitizeRTSPUrl(rtspURL)).
			Context("ffmpeg_output", strings.TrimSpace(string(output))).
			Build()
	}
	if _, err := os.Stat(outputPath); err != nil {
		return errors.Newf("snapshot produced no file").
			Category(errors.CategoryCommandExecution).
			Component("recorder").
			Context("operation", "snapshot").
			Context("path", outputPath).
			Build()
	}

	recorderLogger.Info("snapshot captured",
		"url", privacy.SanitizeRTSPUrl(rtspURL),
		"path", outputPath)
	return nil
}

// ExportToMP4 remuxes a recording into an MP4 container for download. Video
// is copied, audio is converted to AAC for player compatibility. When
// outputPath is empty the source path with an .mp4 extension is used.
func ExportToMP4(ctx context.Context, sourcePath, outputPath string) (string, error) {
	if recorderLogger == nil {
		InitLogger()
	}

	if _, err := os.Stat(sourcePath); err != nil {
		return "", errors.New(err).
			Category(errors.CategoryNotFound).
			Component("recorder").
			Context("operation", "export_mp4").
			Context("path", sourcePath).
			Build()
	}
	if outputPath == "" {
		ext := filepath.Ext(sourcePath)
		outputPath = strings.TrimSuffix(sourcePath, ext) + ".mp4"
	}

	ffmpegPath, err := resolveFfmpegPath(conf.Setting())
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-i", sourcePath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryCommandExecution).
			Component("recorder").
			Context("operation", "export_mp4").
			Context("source", sourcePath).
			Context("ffmpeg_output", strings.TrimSpace(string(output))).
			Build()
	}

	recorderLogger.Info("recording exported", "source", sourcePath, "output", outputPath)
	return outputPath, nil
}
