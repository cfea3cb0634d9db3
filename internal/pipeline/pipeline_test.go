package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyglow/internal/config"
	"storyglow/internal/paths"
	"storyglow/internal/timeline"
)

type fakeAssembler struct {
	calls []string

	delayIn      string
	delaySeconds float64
	delayTotal   float64
	mixInputs    []string
	muxVideo     string
	muxAudio     string
	muxOut       string

	probeDuration float64
}

func (f *fakeAssembler) EncodeFrames(ctx context.Context, framesDir, pattern string, fps int, enc config.EncoderConfig, out string) error {
	f.calls = append(f.calls, "encode")
	return os.WriteFile(out, []byte("video"), 0o644)
}

func (f *fakeAssembler) DelayAudio(ctx context.Context, in string, delaySeconds, totalSeconds float64, out string) error {
	f.calls = append(f.calls, "delay")
	f.delayIn = in
	f.delaySeconds = delaySeconds
	f.delayTotal = totalSeconds
	return os.WriteFile(out, []byte("delayed"), 0o644)
}

func (f *fakeAssembler) MixAudio(ctx context.Context, inputs []string, out string) error {
	f.calls = append(f.calls, "mix")
	f.mixInputs = inputs
	return os.WriteFile(out, []byte("mixed"), 0o644)
}

func (f *fakeAssembler) Mux(ctx context.Context, video, audio, out string) error {
	f.calls = append(f.calls, "mux")
	f.muxVideo = video
	f.muxAudio = audio
	f.muxOut = out
	return os.WriteFile(out, []byte("final"), 0o644)
}

func (f *fakeAssembler) ProbeDuration(ctx context.Context, path string) (float64, error) {
	f.calls = append(f.calls, "probe")
	return f.probeDuration, nil
}

type fakeVoice struct {
	gotText  string
	gotVoice string
}

func (f *fakeVoice) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.gotText = text
	f.gotVoice = voiceID
	return []byte("mp3"), nil
}

type fakeScript struct {
	gotPrompt string
	reply     string
}

func (f *fakeScript) Generate(ctx context.Context, prompt string) (string, error) {
	f.gotPrompt = prompt
	return f.reply, nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Video = config.VideoConfig{Width: 64, Height: 96, FPS: 5}
	cfg.Padding = timeline.Padding{Hook: 1, Build: 1, Transition: 1, Emotional: 1, CTA: 1}
	cfg.Render.Concurrency = 2
	cfg.Voice.VoiceID = "default-voice"
	return cfg
}

func testSpec(id string) config.VideoSpec {
	return config.VideoSpec{
		ID:     id,
		Output: id + ".mp4",
		Seed:   7,
		Narration: config.NarrationSpec{
			Text:            "You are loved.",
			FallbackSeconds: 2,
		},
		Palette: config.PaletteSpec{
			ColdTop:    "#1b2a4a",
			ColdBottom: "#0d1526",
			WarmTop:    "#b3541e",
			WarmBottom: "#4a1d0f",
		},
		Particles: config.ParticleSpec{Style: "snow", Color: "#ffffff", SparkleColor: "#ffe9a8"},
	}
}

func newTestService(t *testing.T, asm *fakeAssembler) *Service {
	t.Helper()
	pp, err := paths.Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("resolve paths: %v", err)
	}
	if err := pp.EnsureWorkDirs(); err != nil {
		t.Fatalf("ensure work dirs: %v", err)
	}
	return NewService(pp, testConfig(), asm)
}

func TestRunSilentWritesFramesAndOutput(t *testing.T) {
	asm := &fakeAssembler{}
	svc := newTestService(t, asm)
	spec := testSpec("vid-a")

	results := svc.Run(context.Background(), []config.VideoSpec{spec},
		Options{Silent: true, KeepScratch: true})
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	// Fallback 2s narration plus 1s of each pad is a 7s timeline at 5 fps.
	if res.Duration != 7 {
		t.Errorf("duration = %v, want 7", res.Duration)
	}
	if res.Frames != 35 {
		t.Errorf("frames = %d, want 35", res.Frames)
	}

	entries, err := os.ReadDir(svc.Paths.FramesDir("vid-a"))
	if err != nil {
		t.Fatalf("read frames dir: %v", err)
	}
	if len(entries) != 35 {
		t.Errorf("frames on disk = %d, want 35", len(entries))
	}

	if exists, _ := paths.FileExists(res.OutputPath); !exists {
		t.Errorf("output %s not written", res.OutputPath)
	}
	for _, op := range asm.calls {
		if op == "delay" || op == "mux" || op == "probe" {
			t.Errorf("silent run called %q", op)
		}
	}
}

func TestRunSynthesizesAndMuxesNarration(t *testing.T) {
	asm := &fakeAssembler{probeDuration: 2.5}
	svc := newTestService(t, asm)
	voice := &fakeVoice{}
	svc.Voice = voice
	spec := testSpec("vid-b")

	results := svc.Run(context.Background(), []config.VideoSpec{spec}, Options{})
	if err := results[0].Err; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if voice.gotText != "You are loved." {
		t.Errorf("synthesized text = %q", voice.gotText)
	}
	if voice.gotVoice != "default-voice" {
		t.Errorf("voice id = %q", voice.gotVoice)
	}

	want := []string{"probe", "encode", "delay", "mux"}
	if strings.Join(asm.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", asm.calls, want)
	}

	// Narration starts after hook, build, and transition pads.
	if asm.delaySeconds != 3 {
		t.Errorf("delay = %v, want 3", asm.delaySeconds)
	}
	// 2.5s narration plus 5s of pads.
	if asm.delayTotal != 7.5 {
		t.Errorf("delay total = %v, want 7.5", asm.delayTotal)
	}
	if asm.muxOut != results[0].OutputPath {
		t.Errorf("mux output = %q, want %q", asm.muxOut, results[0].OutputPath)
	}

	// A successful run cleans its scratch space.
	if dirs, _ := svc.Paths.ScratchFrameDirs(); len(dirs) != 0 {
		t.Errorf("leftover frame dirs: %v", dirs)
	}
	if exists, _ := paths.FileExists(svc.Paths.NarrationPath("vid-b")); exists {
		t.Error("narration scratch audio not cleaned")
	}

	manifest, err := LoadManifest(svc.Paths.ManifestFile)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Outputs["vid-b"] != results[0].OutputPath {
		t.Errorf("manifest entry = %q", manifest.Outputs["vid-b"])
	}
}

func TestRunExpandsPromptBeforeSynthesis(t *testing.T) {
	asm := &fakeAssembler{probeDuration: 2}
	svc := newTestService(t, asm)
	voice := &fakeVoice{}
	script := &fakeScript{reply: "Dear Emma, shine on."}
	svc.Voice = voice
	svc.Script = script

	spec := testSpec("vid-c")
	spec.Narration.Text = ""
	spec.Narration.Prompt = "a letter to Emma"
	spec.Narration.VoiceID = "custom-voice"

	results := svc.Run(context.Background(), []config.VideoSpec{spec}, Options{})
	if err := results[0].Err; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if script.gotPrompt != "a letter to Emma" {
		t.Errorf("prompt = %q", script.gotPrompt)
	}
	if voice.gotText != "Dear Emma, shine on." {
		t.Errorf("synthesized text = %q", voice.gotText)
	}
	if voice.gotVoice != "custom-voice" {
		t.Errorf("voice id = %q", voice.gotVoice)
	}
}

func TestRunMixesBackgroundMusic(t *testing.T) {
	asm := &fakeAssembler{probeDuration: 2}
	svc := newTestService(t, asm)
	svc.Voice = &fakeVoice{}

	spec := testSpec("vid-d")
	spec.Music = "bgm.mp3"

	results := svc.Run(context.Background(), []config.VideoSpec{spec}, Options{})
	if err := results[0].Err; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asm.mixInputs) != 2 {
		t.Fatalf("mix inputs = %v", asm.mixInputs)
	}
	if asm.mixInputs[1] != filepath.Join(svc.Paths.Root, "bgm.mp3") {
		t.Errorf("music path = %q", asm.mixInputs[1])
	}
	if filepath.Base(asm.muxAudio) != "vid-d-mixed.m4a" {
		t.Errorf("mux audio = %q", asm.muxAudio)
	}
}

func TestRunSkipsExistingOutput(t *testing.T) {
	asm := &fakeAssembler{}
	svc := newTestService(t, asm)
	spec := testSpec("vid-e")

	out := svc.Paths.OutputPath(spec.Output)
	if err := os.WriteFile(out, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	results := svc.Run(context.Background(), []config.VideoSpec{spec}, Options{Silent: true})
	if !results[0].Skipped {
		t.Error("expected skip")
	}
	if len(asm.calls) != 0 {
		t.Errorf("assembler called on skip: %v", asm.calls)
	}

	results = svc.Run(context.Background(), []config.VideoSpec{spec},
		Options{Silent: true, Force: true})
	if results[0].Skipped || results[0].Err != nil {
		t.Errorf("force run = %+v", results[0])
	}
}

func TestRunErrorsWithoutVoice(t *testing.T) {
	asm := &fakeAssembler{}
	svc := newTestService(t, asm)
	spec := testSpec("vid-f")

	results := svc.Run(context.Background(), []config.VideoSpec{spec}, Options{})
	err := results[0].Err
	if err == nil || !strings.Contains(err.Error(), "voice") {
		t.Errorf("error = %v", err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if m.RunID == "" {
		t.Error("fresh manifest has no run id")
	}

	m.Set("vid-a", "/out/vid-a.mp4")
	if err := SaveManifest(path, m); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.RunID != m.RunID {
		t.Errorf("run id = %q, want %q", loaded.RunID, m.RunID)
	}
	if loaded.Outputs["vid-a"] != "/out/vid-a.mp4" {
		t.Errorf("outputs = %v", loaded.Outputs)
	}
	if loaded.GeneratedAt.IsZero() {
		t.Error("generated_at not recorded")
	}
}
