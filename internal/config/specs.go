package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"storyglow/internal/timeline"
)

// VideoSpec is the per-video configuration bundle: what to narrate, which
// palette to fade between, and what text each phase shows. A spec is immutable
// for the duration of one run.
type VideoSpec struct {
	ID        string               `yaml:"id"`
	Output    string               `yaml:"output"`
	Seed      int64                `yaml:"seed"`
	Narration NarrationSpec        `yaml:"narration"`
	Music     string               `yaml:"music"` // optional background track mixed under the narration
	Palette   PaletteSpec          `yaml:"palette"`
	Particles ParticleSpec         `yaml:"particles"`
	Phases    map[string]PhaseText `yaml:"phases"`
}

// NarrationSpec resolves to narration audio one of three ways: literal text
// synthesized through the voice collaborator, a prompt expanded by the script
// collaborator first, or a pre-rendered audio file used as-is.
type NarrationSpec struct {
	Text            string  `yaml:"text"`
	Prompt          string  `yaml:"prompt"`
	AudioFile       string  `yaml:"audio_file"`
	VoiceID         string  `yaml:"voice_id"` // overrides the project voice
	FallbackSeconds float64 `yaml:"fallback_s"` // narration length for silent renders
}

// PaletteSpec holds the two-stop gradients for the cold and warm states as
// #rrggbb strings.
type PaletteSpec struct {
	ColdTop    string `yaml:"cold_top"`
	ColdBottom string `yaml:"cold_bottom"`
	WarmTop    string `yaml:"warm_top"`
	WarmBottom string `yaml:"warm_bottom"`
}

// ParticleSpec selects the decorative layers for a video.
type ParticleSpec struct {
	Style        string `yaml:"style"` // "snow" or "bokeh"
	Color        string `yaml:"color"`
	Sparkle      bool   `yaml:"sparkle"`
	SparkleColor string `yaml:"sparkle_color"`
}

// PhaseText describes the text block drawn during one phase. Anchor is the
// vertical center of the block as a fraction of canvas height.
type PhaseText struct {
	Lines    []string `yaml:"lines"`
	FontSize float64  `yaml:"font_size"`
	Anchor   float64  `yaml:"anchor"`
	Color    string   `yaml:"color"`
}

// SpecFile is the top-level shape of the video spec YAML.
type SpecFile struct {
	Videos []VideoSpec `yaml:"videos"`
}

// LoadSpecs reads and validates the video spec file.
func LoadSpecs(path string) ([]VideoSpec, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specs: %w", err)
	}

	var file SpecFile
	if err := yaml.Unmarshal(contents, &file); err != nil {
		return nil, fmt.Errorf("unmarshal specs: %w", err)
	}
	if len(file.Videos) == 0 {
		return nil, fmt.Errorf("spec file %s declares no videos", path)
	}

	seen := make(map[string]bool, len(file.Videos))
	for i := range file.Videos {
		spec := &file.Videos[i]
		spec.applyDefaults()
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("video %d (%q): %w", i+1, spec.ID, err)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate video id %q", spec.ID)
		}
		seen[spec.ID] = true
	}
	return file.Videos, nil
}

func (s *VideoSpec) applyDefaults() {
	if s.Output == "" && s.ID != "" {
		s.Output = s.ID + ".mp4"
	}
	if s.Particles.Style == "" {
		s.Particles.Style = "snow"
	}
	if s.Particles.Color == "" {
		s.Particles.Color = "#ffffff"
	}
	if s.Particles.SparkleColor == "" {
		s.Particles.SparkleColor = "#ffe9a8"
	}
	if s.Palette.ColdTop == "" {
		s.Palette = PaletteSpec{
			ColdTop:    "#1b2a4a",
			ColdBottom: "#0d1526",
			WarmTop:    "#b3541e",
			WarmBottom: "#4a1d0f",
		}
	}
	for name, pt := range s.Phases {
		if pt.FontSize == 0 {
			pt.FontSize = 56
		}
		if pt.Anchor == 0 {
			pt.Anchor = 0.5
		}
		if pt.Color == "" {
			pt.Color = "#ffffff"
		}
		s.Phases[name] = pt
	}
	if s.Narration.FallbackSeconds == 0 {
		s.Narration.FallbackSeconds = 20
	}
}

// Validate checks the spec for problems that would surface mid-pipeline.
func (s VideoSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("missing id")
	}
	n := s.Narration
	sources := 0
	for _, set := range []bool{n.Text != "", n.Prompt != "", n.AudioFile != ""} {
		if set {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("narration needs one of text, prompt, or audio_file")
	}
	if sources > 1 {
		return fmt.Errorf("narration text, prompt, and audio_file are mutually exclusive")
	}
	switch s.Particles.Style {
	case "snow", "bokeh":
	default:
		return fmt.Errorf("unknown particle style %q", s.Particles.Style)
	}
	for name, pt := range s.Phases {
		switch name {
		case timeline.PhaseHook, timeline.PhaseBuild, timeline.PhaseTransition,
			timeline.PhaseNarration, timeline.PhaseEmotional, timeline.PhaseCTA:
		default:
			return fmt.Errorf("text block references unknown phase %q", name)
		}
		if pt.Anchor < 0 || pt.Anchor > 1 {
			return fmt.Errorf("phase %q anchor must be in [0,1], got %v", name, pt.Anchor)
		}
	}
	return nil
}
