package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/clipshare/api/internal/config"
)

// Analysis is the result of probing a media file.
type Analysis struct {
	Duration   float64
	ProbeScore int
	Streams    []StreamInfo
	Errors     []string
}

// StreamInfo describes one stream in the container.
type StreamInfo struct {
	CodecType    string
	CodecName    string
	Width        int
	Height       int
	AvgFrameRate float64
}

// VideoStreams returns the video streams only.
func (a *Analysis) VideoStreams() []StreamInfo {
	var out []StreamInfo
	for _, s := range a.Streams {
		if s.CodecType == "video" {
			out = append(out, s)
		}
	}
	return out
}

// Analyzer is the contract for the external media tool: probe a stream and
// extract a single frame.
type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader) (*Analysis, error)
	Snapshot(ctx context.Context, inputPath, outputPath, size string, offset time.Duration) error
}

// FFmpegAnalyzer implements Analyzer with ffprobe and ffmpeg.
type FFmpegAnalyzer struct {
	cfg    config.MediaConfig
	runner Runner
}

func NewFFmpegAnalyzer(cfg config.MediaConfig, runner Runner) *FFmpegAnalyzer {
	return &FFmpegAnalyzer{cfg: cfg, runner: runner}
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width,omitempty"`
		Height       int    `json:"height,omitempty"`
		AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		ProbeScore int    `json:"probe_score"`
	} `json:"format"`
	Error *struct {
		Code   int    `json:"code"`
		String string `json:"string"`
	} `json:"error"`
}

// Analyze probes the stream with ffprobe reading from stdin. Malformed media
// comes back as Errors entries on the Analysis, not as a Go error; a Go
// error means the tool itself could not run.
func (a *FFmpegAnalyzer) Analyze(ctx context.Context, r io.Reader) (*Analysis, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read media stream: %w", err)
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-show_error",
		"pipe:0",
	}

	output, runErr := a.runner.RunWithInput(ctx, input, a.cfg.FFprobePath, args...)

	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("ffprobe failed: %w", runErr)
		}
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	analysis := &Analysis{ProbeScore: probe.Format.ProbeScore}

	if probe.Error != nil {
		analysis.Errors = append(analysis.Errors, probe.Error.String)
	}
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			analysis.Duration = d
		}
	}
	for _, s := range probe.Streams {
		analysis.Streams = append(analysis.Streams, StreamInfo{
			CodecType:    s.CodecType,
			CodecName:    s.CodecName,
			Width:        s.Width,
			Height:       s.Height,
			AvgFrameRate: parseFrameRate(s.AvgFrameRate),
		})
	}

	return analysis, nil
}

// Snapshot extracts a single frame with ffmpeg, scaled to size (WxH).
func (a *FFmpegAnalyzer) Snapshot(ctx context.Context, inputPath, outputPath, size string, offset time.Duration) error {
	scale := strings.Replace(size, "x", ":", 1)
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.2f", offset.Seconds()),
		"-i", inputPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%s", scale),
		"-q:v", "2",
		outputPath,
	}

	if _, err := a.runner.Run(ctx, a.cfg.FFmpegPath, args...); err != nil {
		return fmt.Errorf("snapshot at %s: %w", offset, err)
	}
	return nil
}

// parseFrameRate converts ffprobe's "num/den" rational into a float.
func parseFrameRate(v string) float64 {
	parts := strings.Split(v, "/")
	if len(parts) != 2 {
		return 0
	}
	num, _ := strconv.ParseFloat(parts[0], 64)
	den, _ := strconv.ParseFloat(parts[1], 64)
	if den == 0 {
		return 0
	}
	return num / den
}
