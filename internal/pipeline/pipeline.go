// Package pipeline coordinates the full per-video flow: narration resolution,
// timeline planning, frame rendering, encoding, and audio muxing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"storyglow/internal/config"
	"storyglow/internal/media"
	"storyglow/internal/paths"
	"storyglow/internal/render"
	"storyglow/internal/timeline"
)

// Stage names reported while a video moves through the pipeline.
const (
	StageNarration = "narration"
	StageRender    = "render"
	StageEncode    = "encode"
	StageMux       = "mux"
)

// Synthesizer turns narration text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// ScriptGenerator expands a narration prompt into script text.
type ScriptGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service coordinates video generation for spec entries.
type Service struct {
	Paths     paths.ProjectPaths
	Config    config.Config
	Assembler media.Assembler
	Voice     Synthesizer
	Script    ScriptGenerator
	Logger    *log.Logger

	stdout io.Writer
}

// Options controls generation behaviour for one run.
type Options struct {
	Silent      bool // render without narration, using each spec's fallback duration
	Force       bool // regenerate even when the output already exists
	KeepScratch bool
	Concurrency int
	Reporter    ProgressReporter
}

// Result captures the outcome of generating one video.
type Result struct {
	VideoID    string
	OutputPath string
	Frames     int
	Duration   float64
	Skipped    bool
	Err        error
}

// ProgressReporter receives notifications as videos move through the pipeline.
type ProgressReporter interface {
	Start(spec config.VideoSpec)
	Stage(videoID, stage string)
	Frame(videoID string, done, total int)
	Complete(result Result)
}

// NewService prepares a pipeline bound to a project.
func NewService(pp paths.ProjectPaths, cfg config.Config, asm media.Assembler) *Service {
	return &Service{
		Paths:     pp,
		Config:    cfg,
		Assembler: asm,
		Logger:    log.New(io.Discard, "", 0),
	}
}

// SetWriters configures an optional stdout writer for progress messages.
func (s *Service) SetWriters(stdout io.Writer) {
	if s == nil {
		return
	}
	s.stdout = stdout
}

// Run generates each spec in order and returns one result per spec. Videos run
// sequentially; the per-frame PNG encoding inside each video is what fans out
// across cores.
func (s *Service) Run(ctx context.Context, specs []config.VideoSpec, opts Options) []Result {
	if s == nil {
		return []Result{{Err: errors.New("pipeline service is nil")}}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]Result, len(specs))
	for i, spec := range specs {
		if opts.Reporter != nil {
			opts.Reporter.Start(spec)
		}
		res := s.generateOne(ctx, spec, opts)
		results[i] = res
		if opts.Reporter != nil {
			opts.Reporter.Complete(res)
		}
		if ctx.Err() != nil {
			for j := i + 1; j < len(specs); j++ {
				results[j] = Result{VideoID: specs[j].ID, Skipped: true, Err: ctx.Err()}
			}
			break
		}
	}
	return results
}

func (s *Service) generateOne(ctx context.Context, spec config.VideoSpec, opts Options) Result {
	result := Result{VideoID: spec.ID}

	outputPath := s.Paths.OutputPath(spec.Output)
	result.OutputPath = outputPath

	if !opts.Force {
		if exists, err := paths.FileExists(outputPath); err != nil {
			result.Err = fmt.Errorf("stat output: %w", err)
			return result
		} else if exists {
			result.Skipped = true
			s.printf("video %s already exists, skipping: %s\n", spec.ID, outputPath)
			return result
		}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		result.Err = fmt.Errorf("ensure output directory: %w", err)
		return result
	}

	s.stage(opts, spec.ID, StageNarration)
	audioPath, narrationSeconds, err := s.resolveNarration(ctx, spec, opts.Silent)
	if err != nil {
		result.Err = err
		return result
	}
	s.Logger.Printf("video %s: narration %.3fs (audio=%q)", spec.ID, narrationSeconds, audioPath)

	phases, err := timeline.Plan(narrationSeconds, s.Config.Padding)
	if err != nil {
		result.Err = fmt.Errorf("plan timeline: %w", err)
		return result
	}
	result.Duration = timeline.Total(phases)

	renderer, err := render.New(s.Config, spec, phases)
	if err != nil {
		result.Err = err
		return result
	}
	result.Frames = renderer.TotalFrames()

	s.stage(opts, spec.ID, StageRender)
	if err := s.renderFrames(ctx, renderer, spec.ID, opts); err != nil {
		result.Err = err
		return result
	}

	s.stage(opts, spec.ID, StageEncode)
	silentPath := filepath.Join(s.Paths.ScratchDir, spec.ID+"-silent.mp4")
	err = s.Assembler.EncodeFrames(ctx, s.Paths.FramesDir(spec.ID), paths.FramePattern,
		s.Config.Video.FPS, s.Config.Encoder, silentPath)
	if err != nil {
		result.Err = err
		return result
	}

	if audioPath == "" {
		if err := moveFile(silentPath, outputPath); err != nil {
			result.Err = fmt.Errorf("finalize silent video: %w", err)
			return result
		}
	} else {
		s.stage(opts, spec.ID, StageMux)
		if err := s.muxAudio(ctx, spec, phases, audioPath, silentPath, outputPath); err != nil {
			result.Err = err
			return result
		}
	}

	if err := s.recordOutput(spec.ID, outputPath); err != nil {
		result.Err = err
		return result
	}

	// Scratch survives failed runs for inspection; only a success cleans up.
	if !opts.KeepScratch {
		s.cleanScratch(spec.ID)
	}
	s.printf("video %s -> %s (%d frames, %.1fs)\n", spec.ID, outputPath, result.Frames, result.Duration)
	return result
}

// resolveNarration produces the narration audio path and its duration. Silent
// runs skip the collaborators entirely and use the spec's fallback duration.
func (s *Service) resolveNarration(ctx context.Context, spec config.VideoSpec, silent bool) (string, float64, error) {
	if silent {
		return "", spec.Narration.FallbackSeconds, nil
	}

	n := spec.Narration
	if n.AudioFile != "" {
		path := n.AudioFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.Paths.Root, path)
		}
		duration, err := s.Assembler.ProbeDuration(ctx, path)
		if err != nil {
			return "", 0, fmt.Errorf("probe narration %s: %w", path, err)
		}
		return path, duration, nil
	}

	text := n.Text
	if n.Prompt != "" {
		if s.Script == nil {
			return "", 0, errors.New("spec uses a narration prompt but no script generator is configured")
		}
		generated, err := s.Script.Generate(ctx, n.Prompt)
		if err != nil {
			return "", 0, fmt.Errorf("generate script: %w", err)
		}
		s.Logger.Printf("video %s: script %q", spec.ID, generated)
		text = generated
	}

	if s.Voice == nil {
		return "", 0, errors.New("spec needs narration audio but no voice synthesizer is configured")
	}
	voiceID := n.VoiceID
	if voiceID == "" {
		voiceID = s.Config.Voice.VoiceID
	}
	if voiceID == "" {
		return "", 0, errors.New("no voice id configured (set voice.voice_id or the spec's voice_id)")
	}

	audio, err := s.Voice.Synthesize(ctx, text, voiceID)
	if err != nil {
		return "", 0, fmt.Errorf("synthesize narration: %w", err)
	}
	path := s.Paths.NarrationPath(spec.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, fmt.Errorf("ensure audio directory: %w", err)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", 0, fmt.Errorf("write narration audio: %w", err)
	}

	duration, err := s.Assembler.ProbeDuration(ctx, path)
	if err != nil {
		return "", 0, fmt.Errorf("probe narration %s: %w", path, err)
	}
	return path, duration, nil
}

// renderFrames drives the stateful renderer sequentially and fans the PNG
// encoding out over a bounded worker group. RenderFrame must stay on this
// goroutine; only the finished images are handed off.
func (s *Service) renderFrames(ctx context.Context, renderer *render.Renderer, videoID string, opts Options) error {
	framesDir := s.Paths.FramesDir(videoID)
	if err := os.RemoveAll(framesDir); err != nil {
		return fmt.Errorf("clear frames directory: %w", err)
	}
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return fmt.Errorf("create frames directory: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = s.Config.Render.Concurrency
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	total := renderer.TotalFrames()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var renderErr error
	for f := 0; f < total; f++ {
		if gctx.Err() != nil {
			break
		}
		img, err := renderer.RenderFrame(f)
		if err != nil {
			renderErr = err
			break
		}
		framePath := s.Paths.FramePath(videoID, f)
		g.Go(func() error {
			return writePNG(framePath, img)
		})
		if opts.Reporter != nil {
			opts.Reporter.Frame(videoID, f+1, total)
		}
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	if renderErr != nil {
		return renderErr
	}
	return ctx.Err()
}

// muxAudio delays the narration to the start of the narration phase, pads it
// to the full timeline, optionally mixes in a background track, and muxes the
// result with the silent video.
func (s *Service) muxAudio(ctx context.Context, spec config.VideoSpec, phases []timeline.Phase, audioPath, silentPath, outputPath string) error {
	narrPhase, ok := timeline.Find(phases, timeline.PhaseNarration)
	if !ok {
		return errors.New("timeline has no narration phase")
	}
	total := timeline.Total(phases)

	delayedPath := filepath.Join(s.Paths.AudioDir, spec.ID+"-delayed.m4a")
	if err := s.Assembler.DelayAudio(ctx, audioPath, narrPhase.Start, total, delayedPath); err != nil {
		return err
	}

	track := delayedPath
	if spec.Music != "" {
		musicPath := spec.Music
		if !filepath.IsAbs(musicPath) {
			musicPath = filepath.Join(s.Paths.Root, musicPath)
		}
		mixedPath := filepath.Join(s.Paths.AudioDir, spec.ID+"-mixed.m4a")
		if err := s.Assembler.MixAudio(ctx, []string{delayedPath, musicPath}, mixedPath); err != nil {
			return err
		}
		track = mixedPath
	}

	return s.Assembler.Mux(ctx, silentPath, track, outputPath)
}

func (s *Service) recordOutput(videoID, outputPath string) error {
	manifest, err := LoadManifest(s.Paths.ManifestFile)
	if err != nil {
		return err
	}
	manifest.Set(videoID, outputPath)
	return SaveManifest(s.Paths.ManifestFile, manifest)
}

func (s *Service) cleanScratch(videoID string) {
	targets := []string{
		s.Paths.FramesDir(videoID),
		filepath.Join(s.Paths.ScratchDir, videoID+"-silent.mp4"),
		filepath.Join(s.Paths.AudioDir, videoID+"-delayed.m4a"),
		filepath.Join(s.Paths.AudioDir, videoID+"-mixed.m4a"),
		s.Paths.NarrationPath(videoID),
	}
	for _, target := range targets {
		if err := os.RemoveAll(target); err != nil {
			s.Logger.Printf("clean scratch %s: %v", target, err)
		}
	}
}

func (s *Service) stage(opts Options, videoID, stage string) {
	if opts.Reporter != nil {
		opts.Reporter.Stage(videoID, stage)
	}
	s.Logger.Printf("video %s: %s", videoID, stage)
}

func (s *Service) printf(format string, args ...any) {
	if s == nil || s.stdout == nil {
		return
	}
	fmt.Fprintf(s.stdout, format, args...)
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// moveFile renames when possible and falls back to a copy when scratch and
// output sit on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
