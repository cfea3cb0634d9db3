package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"storyglow/internal/config"
	"storyglow/internal/logx"
	"storyglow/internal/media"
	"storyglow/internal/paths"
	"storyglow/internal/pipeline"
	"storyglow/internal/script"
	"storyglow/internal/tui"
	"storyglow/internal/voice"
)

var (
	generateOnly        []string
	generateCount       int
	generateSilent      bool
	generateForce       bool
	generateKeepScratch bool
	generateConcurrency int
	generateNoTUI       bool
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [video-id...]",
		Short: "Generate keepsake videos from the project plan",
		RunE:  runGenerate,
	}

	cmd.Flags().StringSliceVar(&generateOnly, "spec", nil, "Only generate the given video ids (repeatable)")
	cmd.Flags().IntVar(&generateCount, "count", 0, "Generate at most N videos")
	cmd.Flags().BoolVar(&generateSilent, "silent", false, "Render without narration using fallback durations")
	cmd.Flags().BoolVar(&generateForce, "force", false, "Regenerate videos whose output already exists")
	cmd.Flags().BoolVar(&generateKeepScratch, "keep-scratch", false, "Keep frames and intermediate audio after success")
	cmd.Flags().IntVar(&generateConcurrency, "concurrency", 0, "Frame encoding workers (default from config)")
	cmd.Flags().BoolVar(&generateNoTUI, "no-tui", false, "Plain line output instead of the progress table")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	if exists, err := paths.DirExists(pp.Root); err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	} else if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := pp.EnsureWorkDirs(); err != nil {
		return err
	}

	specs, err := config.LoadSpecs(pp.SpecsFile)
	if err != nil {
		return err
	}
	specs, err = filterSpecs(specs, append(append([]string{}, generateOnly...), args...))
	if err != nil {
		return err
	}
	if generateCount > 0 && generateCount < len(specs) {
		specs = specs[:generateCount]
	}

	logger, closer, err := logx.New(pp)
	if err != nil {
		return err
	}
	defer closer.Close()

	svc := pipeline.NewService(pp, cfg, newAssembler(pp))
	svc.Logger = logger
	if !generateSilent {
		svc.Voice, svc.Script = newCollaborators(cfg, specs)
	}

	opts := pipeline.Options{
		Silent:      generateSilent,
		Force:       generateForce,
		KeepScratch: generateKeepScratch,
		Concurrency: generateConcurrency,
	}

	var results []pipeline.Result
	if generateNoTUI || outputJSON {
		svc.SetWriters(cmd.OutOrStdout())
		results = svc.Run(cmd.Context(), specs, opts)
	} else {
		model := tui.NewProgressModel("storyglow generate", specs)
		err = tui.RunWithWork(cmd.OutOrStdout(), model, func(send func(tea.Msg)) {
			opts.Reporter = tui.NewReporter(send)
			results = svc.Run(cmd.Context(), specs, opts)
		})
		if err != nil {
			return err
		}
	}

	return writeGenerateResult(cmd.OutOrStdout(), results)
}

func filterSpecs(specs []config.VideoSpec, ids []string) ([]config.VideoSpec, error) {
	if len(ids) == 0 {
		return specs, nil
	}
	byID := make(map[string]config.VideoSpec, len(specs))
	for _, spec := range specs {
		byID[spec.ID] = spec
	}
	selected := make([]config.VideoSpec, 0, len(ids))
	for _, id := range ids {
		spec, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown video id %q", id)
		}
		selected = append(selected, spec)
	}
	return selected, nil
}

func newAssembler(pp paths.ProjectPaths) media.Assembler {
	asm := media.NewFFmpeg(nil)
	asm.Opts = media.RunOptions{Dir: pp.Root}
	return asm
}

// newCollaborators builds the voice and script clients from config and
// environment. Either may come back nil; the pipeline reports a clear error if
// a spec actually needs the missing one.
func newCollaborators(cfg config.Config, specs []config.VideoSpec) (pipeline.Synthesizer, pipeline.ScriptGenerator) {
	var synth pipeline.Synthesizer
	if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
		settings := voice.Settings{
			Stability:       cfg.Voice.Stability,
			SimilarityBoost: cfg.Voice.SimilarityBoost,
			Style:           cfg.Voice.Style,
			SpeakerBoost:    cfg.Voice.SpeakerBoost,
		}
		synth = voice.NewClient(key, cfg.Voice.ModelID, settings,
			time.Duration(cfg.Voice.TimeoutSeconds)*time.Second)
	}

	var gen pipeline.ScriptGenerator
	needsScript := false
	for _, spec := range specs {
		if spec.Narration.Prompt != "" {
			needsScript = true
			break
		}
	}
	if needsScript {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			gen = script.NewGenerator(key, cfg.Script.Model,
				time.Duration(cfg.Script.TimeoutSeconds)*time.Second)
		}
	}
	return synth, gen
}

type resultJSON struct {
	VideoID    string  `json:"video_id"`
	OutputPath string  `json:"output_path,omitempty"`
	Frames     int     `json:"frames,omitempty"`
	Duration   float64 `json:"duration_seconds,omitempty"`
	Skipped    bool    `json:"skipped"`
	Error      string  `json:"error,omitempty"`
}

func writeResultsJSON(out io.Writer, results []pipeline.Result) error {
	entries := make([]resultJSON, 0, len(results))
	for _, res := range results {
		entry := resultJSON{
			VideoID:    res.VideoID,
			OutputPath: res.OutputPath,
			Frames:     res.Frames,
			Duration:   res.Duration,
			Skipped:    res.Skipped,
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		entries = append(entries, entry)
	}
	return json.NewEncoder(out).Encode(entries)
}

func writeGenerateResult(out io.Writer, results []pipeline.Result) error {
	if outputJSON {
		return writeResultsJSON(out, results)
	}

	var generated, skipped, failed int
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
			fmt.Fprintf(out, "%s: error: %v\n", res.VideoID, res.Err)
		case res.Skipped:
			skipped++
		default:
			generated++
		}
	}
	fmt.Fprintf(out, "\nGenerate complete: %d generated, %d skipped, %d failed\n",
		generated, skipped, failed)

	if failed > 0 {
		return errors.New("some videos failed to generate")
	}
	return nil
}
