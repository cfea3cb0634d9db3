// Package media wraps the external ffmpeg/ffprobe toolchain behind a narrow
// assembler interface: encode a frame sequence, delay/pad audio, mix tracks,
// mux, and probe durations. The tools themselves are collaborators, never
// reimplemented.
package media

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"storyglow/internal/config"
)

// Assembler is the contract the pipeline consumes.
type Assembler interface {
	// EncodeFrames encodes a numbered image sequence into a silent video.
	EncodeFrames(ctx context.Context, framesDir, pattern string, fps int, enc config.EncoderConfig, out string) error
	// DelayAudio shifts a track right by delaySeconds and pads it out to
	// totalSeconds.
	DelayAudio(ctx context.Context, in string, delaySeconds, totalSeconds float64, out string) error
	// MixAudio mixes two or more tracks into one.
	MixAudio(ctx context.Context, inputs []string, out string) error
	// Mux combines a video stream with an audio track.
	Mux(ctx context.Context, video, audio, out string) error
	// ProbeDuration returns a media file's duration in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// FFmpeg implements Assembler over the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	Runner      Runner
	FFmpegPath  string
	FFprobePath string

	// Opts is applied to every ffmpeg invocation (working dir, log writers).
	Opts RunOptions
}

// NewFFmpeg returns an assembler that resolves both tools from PATH.
func NewFFmpeg(runner Runner) *FFmpeg {
	if runner == nil {
		runner = CmdRunner{}
	}
	return &FFmpeg{
		Runner:      runner,
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
	}
}

func encodeFramesArgs(framesDir, pattern string, fps int, enc config.EncoderConfig, out string) []string {
	return []string{
		"-hide_banner",
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-i", filepath.Join(framesDir, pattern),
		"-c:v", enc.Codec,
		"-crf", strconv.Itoa(enc.CRF),
		"-preset", enc.Preset,
		"-pix_fmt", enc.PixelFormat,
		out,
	}
}

// EncodeFrames implements Assembler.
func (f *FFmpeg) EncodeFrames(ctx context.Context, framesDir, pattern string, fps int, enc config.EncoderConfig, out string) error {
	if fps <= 0 {
		return fmt.Errorf("encode frames: fps must be positive, got %d", fps)
	}
	args := encodeFramesArgs(framesDir, pattern, fps, enc, out)
	if _, err := f.Runner.Run(ctx, f.FFmpegPath, args, f.Opts); err != nil {
		return fmt.Errorf("encode frames: %w", err)
	}
	return nil
}

func delayAudioArgs(in string, delaySeconds, totalSeconds float64, out string) []string {
	delayMs := int(math.Round(delaySeconds * 1000))
	return []string{
		"-hide_banner",
		"-y",
		"-i", in,
		"-af", fmt.Sprintf("adelay=%d|%d,apad", delayMs, delayMs),
		"-t", formatSeconds(totalSeconds),
		out,
	}
}

// DelayAudio implements Assembler.
func (f *FFmpeg) DelayAudio(ctx context.Context, in string, delaySeconds, totalSeconds float64, out string) error {
	if delaySeconds < 0 {
		return fmt.Errorf("delay audio: delay must be non-negative, got %v", delaySeconds)
	}
	if totalSeconds <= 0 {
		return fmt.Errorf("delay audio: total duration must be positive, got %v", totalSeconds)
	}
	args := delayAudioArgs(in, delaySeconds, totalSeconds, out)
	if _, err := f.Runner.Run(ctx, f.FFmpegPath, args, f.Opts); err != nil {
		return fmt.Errorf("delay audio: %w", err)
	}
	return nil
}

func mixAudioArgs(inputs []string, out string) []string {
	args := []string{"-hide_banner", "-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex", fmt.Sprintf("amix=inputs=%d:duration=longest:dropout_transition=0", len(inputs)),
		out,
	)
	return args
}

// MixAudio implements Assembler.
func (f *FFmpeg) MixAudio(ctx context.Context, inputs []string, out string) error {
	if len(inputs) < 2 {
		return fmt.Errorf("mix audio: need at least two inputs, got %d", len(inputs))
	}
	args := mixAudioArgs(inputs, out)
	if _, err := f.Runner.Run(ctx, f.FFmpegPath, args, f.Opts); err != nil {
		return fmt.Errorf("mix audio: %w", err)
	}
	return nil
}

func muxArgs(video, audio, out string) []string {
	return []string{
		"-hide_banner",
		"-y",
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		out,
	}
}

// Mux implements Assembler.
func (f *FFmpeg) Mux(ctx context.Context, video, audio, out string) error {
	args := muxArgs(video, audio, out)
	if _, err := f.Runner.Run(ctx, f.FFmpegPath, args, f.Opts); err != nil {
		return fmt.Errorf("mux: %w", err)
	}
	return nil
}

// ProbeDuration implements Assembler.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	result, err := f.Runner.Run(ctx, f.FFprobePath, args, RunOptions{})
	if err != nil {
		stderr := strings.TrimSpace(string(result.Stderr))
		if stderr != "" {
			return 0, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, stderr)
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	raw := strings.TrimSpace(string(result.Stdout))
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("probed non-positive duration %v for %s", duration, path)
	}
	return duration, nil
}

// Version reports the first line of a tool's -version output, for doctor-style
// environment checks.
func (f *FFmpeg) Version(ctx context.Context, tool string) (string, error) {
	result, err := f.Runner.Run(ctx, tool, []string{"-version"}, RunOptions{})
	if err != nil {
		return "", fmt.Errorf("%s not callable: %w", tool, err)
	}
	line := string(result.Stdout)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line), nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

var _ Assembler = (*FFmpeg)(nil)
