package media

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"storyglow/internal/config"
)

type call struct {
	command string
	args    []string
}

// fakeRunner records invocations and returns scripted output.
type fakeRunner struct {
	calls  []call
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	f.calls = append(f.calls, call{command: command, args: args})
	return RunResult{Stdout: []byte(f.stdout), Stderr: []byte(f.stderr)}, f.err
}

func argsContain(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func testEncoder() config.EncoderConfig {
	return config.EncoderConfig{Codec: "libx264", CRF: 20, Preset: "medium", PixelFormat: "yuv420p"}
}

func TestEncodeFramesArgs(t *testing.T) {
	fr := &fakeRunner{}
	ff := NewFFmpeg(fr)

	err := ff.EncodeFrames(context.Background(), "/scratch/frames-a", "frame_%05d.png", 30, testEncoder(), "/scratch/a-silent.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fr.calls) != 1 {
		t.Fatalf("calls=%d, want 1", len(fr.calls))
	}
	c := fr.calls[0]
	if c.command != "ffmpeg" {
		t.Errorf("command = %q, want ffmpeg", c.command)
	}
	if !argsContain(c.args, "-framerate", "30") {
		t.Errorf("missing -framerate 30 in %v", c.args)
	}
	if !argsContain(c.args, "-i", filepath.Join("/scratch/frames-a", "frame_%05d.png")) {
		t.Errorf("missing frame pattern input in %v", c.args)
	}
	if !argsContain(c.args, "-c:v", "libx264") || !argsContain(c.args, "-crf", "20") {
		t.Errorf("missing encoder settings in %v", c.args)
	}
	if c.args[len(c.args)-1] != "/scratch/a-silent.mp4" {
		t.Errorf("output not last arg: %v", c.args)
	}
}

func TestEncodeFramesRejectsBadFPS(t *testing.T) {
	ff := NewFFmpeg(&fakeRunner{})
	if err := ff.EncodeFrames(context.Background(), "d", "p", 0, testEncoder(), "o"); err == nil {
		t.Fatal("expected error for fps=0")
	}
}

func TestDelayAudioArgs(t *testing.T) {
	fr := &fakeRunner{}
	ff := NewFFmpeg(fr)

	err := ff.DelayAudio(context.Background(), "in.mp3", 11, 47.5, "out.m4a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := fr.calls[0]
	if !argsContain(c.args, "-af", "adelay=11000|11000,apad") {
		t.Errorf("missing adelay filter in %v", c.args)
	}
	if !argsContain(c.args, "-t", "47.500") {
		t.Errorf("missing -t 47.500 in %v", c.args)
	}
}

func TestDelayAudioValidation(t *testing.T) {
	ff := NewFFmpeg(&fakeRunner{})
	if err := ff.DelayAudio(context.Background(), "in", -1, 10, "out"); err == nil {
		t.Error("expected error for negative delay")
	}
	if err := ff.DelayAudio(context.Background(), "in", 1, 0, "out"); err == nil {
		t.Error("expected error for zero total duration")
	}
}

func TestMixAudioArgs(t *testing.T) {
	fr := &fakeRunner{}
	ff := NewFFmpeg(fr)

	err := ff.MixAudio(context.Background(), []string{"voice.m4a", "music.mp3"}, "mixed.m4a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := fr.calls[0]
	if !argsContain(c.args, "-i", "voice.m4a") || !argsContain(c.args, "-i", "music.mp3") {
		t.Errorf("missing inputs in %v", c.args)
	}
	found := false
	for _, a := range c.args {
		if strings.Contains(a, "amix=inputs=2") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing amix filter in %v", c.args)
	}

	if err := ff.MixAudio(context.Background(), []string{"only.m4a"}, "out"); err == nil {
		t.Error("expected error for a single input")
	}
}

func TestMuxArgs(t *testing.T) {
	fr := &fakeRunner{}
	ff := NewFFmpeg(fr)

	if err := ff.Mux(context.Background(), "silent.mp4", "voice.m4a", "final.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := fr.calls[0]
	if !argsContain(c.args, "-c:v", "copy") || !argsContain(c.args, "-c:a", "aac") {
		t.Errorf("missing codec args in %v", c.args)
	}
}

func TestProbeDuration(t *testing.T) {
	fr := &fakeRunner{stdout: "47.500000\n"}
	ff := NewFFmpeg(fr)

	dur, err := ff.ProbeDuration(context.Background(), "final.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dur != 47.5 {
		t.Errorf("duration = %v, want 47.5", dur)
	}
	if fr.calls[0].command != "ffprobe" {
		t.Errorf("command = %q, want ffprobe", fr.calls[0].command)
	}
}

func TestProbeDurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr string
	}{
		{"tool failure with stderr", &fakeRunner{err: errors.New("exit 1"), stderr: "no such file"}, "no such file"},
		{"garbage output", &fakeRunner{stdout: "N/A"}, "parse duration"},
		{"zero duration", &fakeRunner{stdout: "0.0"}, "non-positive"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ff := NewFFmpeg(tc.runner)
			_, err := ff.ProbeDuration(context.Background(), "x.mp4")
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

// Round-trip at the interface level: a frame count encoded at a given fps
// should probe back to frameCount/fps. The fake runner stands in for ffmpeg,
// scripted to report exactly the duration the encode implies.
func TestEncodeProbeRoundTrip(t *testing.T) {
	const frames, fps = 1425, 30
	want := float64(frames) / float64(fps)

	fr := &fakeRunner{stdout: "47.500000"}
	ff := NewFFmpeg(fr)

	if err := ff.EncodeFrames(context.Background(), "frames", "frame_%05d.png", fps, testEncoder(), "out.mp4"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ff.ProbeDuration(context.Background(), "out.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	tolerance := 1.0 / fps
	if diff := got - want; diff > tolerance || diff < -tolerance {
		t.Errorf("round-trip duration %v, want %v within one frame", got, want)
	}
}
