package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"Musga/errs"
)

// FFmpegProcessor implements the Processor interface using ffmpeg/ffprobe.
type FFmpegProcessor struct {
	ffmpegPath     string
	ffprobePath    string
	previewSeconds int
	previewBitrate string
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
func NewFFmpegProcessor(ffmpegPath, ffprobePath string, previewSeconds int, previewBitrate string) *FFmpegProcessor {
	return &FFmpegProcessor{
		ffmpegPath:     ffmpegPath,
		ffprobePath:    ffprobePath,
		previewSeconds: previewSeconds,
		previewBitrate: previewBitrate,
	}
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration uses ffprobe to get the duration of an audio file, rounded to
// whole seconds. The passed context bounds the process lifetime.
func (p *FFmpegProcessor) ProbeDuration(ctx context.Context, inputFile string) (int, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputFile,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, errs.Wrap(errs.ProcessingFailed,
			fmt.Sprintf("ffprobe execution failed for %s: %s", inputFile, stderr.String()), err)
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, errs.Wrap(errs.ProcessingFailed,
			fmt.Sprintf("failed to unmarshal ffprobe output for %s", inputFile), err)
	}

	if probeData.Format.Duration == "" {
		return 0, errs.Ef(errs.ProcessingFailed, "duration not found in ffprobe output for %s", inputFile)
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, errs.Wrap(errs.ProcessingFailed,
			fmt.Sprintf("failed to parse duration %q for %s", probeData.Format.Duration, inputFile), err)
	}

	return int(math.Round(duration)), nil
}

// ExtractPreview transcodes the opening of the master file into a lossy mp3
// clip named preview-<original> under outputDir.
func (p *FFmpegProcessor) ExtractPreview(ctx context.Context, inputFile, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", errs.Wrap(errs.ProcessingFailed,
			fmt.Sprintf("failed to create preview directory %s", outputDir), err)
	}

	previewName := "preview-" + filepath.Base(inputFile)
	previewPath := filepath.Join(outputDir, previewName)

	args := []string{
		"-i", inputFile,
		"-t", strconv.Itoa(p.previewSeconds),
		"-acodec", "mp3",
		"-ab", p.previewBitrate,
		"-ar", "44100",
		"-y", // overwrite output file
		previewPath,
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errs.Wrap(errs.ProcessingFailed,
			fmt.Sprintf("ffmpeg execution failed for %s: %s", inputFile, stderr.String()), err)
	}

	return previewPath, nil
}
