package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"storyglow/internal/config"
	"storyglow/internal/paths"
	"storyglow/internal/script"
	"storyglow/internal/voice"
)

func newVoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voice <video-id>",
		Short: "Synthesize one video's narration without rendering",
		Long: "Synthesize a video's narration audio into the scratch directory so it " +
			"can be reviewed before a full generate run.",
		Args: cobra.ExactArgs(1),
		RunE: runVoice,
	}
}

func runVoice(cmd *cobra.Command, args []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	specs, err := config.LoadSpecs(pp.SpecsFile)
	if err != nil {
		return err
	}

	var spec config.VideoSpec
	found := false
	for _, s := range specs {
		if s.ID == args[0] {
			spec = s
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown video id %q", args[0])
	}
	if spec.Narration.AudioFile != "" {
		return fmt.Errorf("video %q uses a pre-rendered audio file: %s", spec.ID, spec.Narration.AudioFile)
	}

	text := spec.Narration.Text
	if spec.Narration.Prompt != "" {
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return fmt.Errorf("video %q uses a narration prompt but OPENAI_API_KEY is not set", spec.ID)
		}
		gen := script.NewGenerator(key, cfg.Script.Model,
			time.Duration(cfg.Script.TimeoutSeconds)*time.Second)
		text, err = gen.Generate(cmd.Context(), spec.Narration.Prompt)
		if err != nil {
			return err
		}
		cmd.Printf("script: %s\n", text)
	}

	key := os.Getenv("ELEVENLABS_API_KEY")
	if key == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY is not set")
	}
	voiceID := spec.Narration.VoiceID
	if voiceID == "" {
		voiceID = cfg.Voice.VoiceID
	}
	if voiceID == "" {
		return fmt.Errorf("no voice id configured (set voice.voice_id or the spec's voice_id)")
	}

	settings := voice.Settings{
		Stability:       cfg.Voice.Stability,
		SimilarityBoost: cfg.Voice.SimilarityBoost,
		Style:           cfg.Voice.Style,
		SpeakerBoost:    cfg.Voice.SpeakerBoost,
	}
	client := voice.NewClient(key, cfg.Voice.ModelID, settings,
		time.Duration(cfg.Voice.TimeoutSeconds)*time.Second)

	audio, err := client.Synthesize(cmd.Context(), text, voiceID)
	if err != nil {
		return err
	}

	outPath := pp.NarrationPath(spec.ID)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure audio directory: %w", err)
	}
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("write narration audio: %w", err)
	}

	cmd.Printf("wrote %s (%d bytes)\n", outPath, len(audio))
	return nil
}
