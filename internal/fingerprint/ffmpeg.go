package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegExtractor shells out to ffmpeg/ffprobe to pull frames and duration
// from video files. There is no pure-Go video decoder in the dependency
// stack, so this follows the same external-process pattern as other media
// tools in the ecosystem.
type FFmpegExtractor struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegExtractor returns an extractor using the given binary paths.
// Empty strings default to "ffmpeg" and "ffprobe" on $PATH.
func NewFFmpegExtractor(ffmpegPath, ffprobePath string) *FFmpegExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegExtractor{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// Duration runs ffprobe to read the container duration in seconds.
func (f *FFmpegExtractor) Duration(path string) (float64, error) {
	cmd := exec.Command(f.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", out, err)
	}
	return v, nil
}

// ExtractFrame seeks to atSeconds, renders a single frame at most maxDim
// pixels on its longest side, and decodes it as a JPEG raster.
func (f *FFmpegExtractor) ExtractFrame(path string, atSeconds float64, maxDim int) (image.Image, error) {
	scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", maxDim, maxDim)

	cmd := exec.Command(f.FFmpegPath,
		"-ss", fmt.Sprintf("%.3f", atSeconds),
		"-i", path,
		"-frames:v", "1",
		"-vf", scale,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract frame at %.2fs: %w: %s", atSeconds, err, stderr.String())
	}

	img, _, err := image.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decode extracted frame: %w", err)
	}
	return img, nil
}
