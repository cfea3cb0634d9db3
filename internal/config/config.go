package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"storyglow/internal/timeline"
)

// Config captures the rendering, encoding, and collaborator configuration for
// a project.
type Config struct {
	Version int              `yaml:"version"`
	Video   VideoConfig      `yaml:"video"`
	Encoder EncoderConfig    `yaml:"encoder"`
	Padding timeline.Padding `yaml:"padding"`
	Voice   VoiceConfig      `yaml:"voice"`
	Script  ScriptConfig     `yaml:"script"`
	Render  RenderConfig     `yaml:"render"`
}

// VideoConfig contains canvas sizing and framerate information.
type VideoConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// EncoderConfig describes how frame sequences are encoded into video.
type EncoderConfig struct {
	Codec       string `yaml:"codec"`
	CRF         int    `yaml:"crf"`
	Preset      string `yaml:"preset"`
	PixelFormat string `yaml:"pixel_format"`
}

// VoiceConfig holds the text-to-speech defaults applied to every narration
// unless a video spec overrides them.
type VoiceConfig struct {
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
	SpeakerBoost    bool    `yaml:"speaker_boost"`
	TimeoutSeconds  int     `yaml:"timeout_s"`
}

// ScriptConfig holds the script-generation collaborator defaults.
type ScriptConfig struct {
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_s"`
}

// RenderConfig groups frame-drawing options shared by all videos.
type RenderConfig struct {
	FontFile    string  `yaml:"font_file"`
	LineHeight  float64 `yaml:"line_height"`
	TextWidth   float64 `yaml:"text_width"` // wrap width as a fraction of canvas width
	Concurrency int     `yaml:"concurrency"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Video: VideoConfig{
			Width:  1080,
			Height: 1920,
			FPS:    30,
		},
		Encoder: EncoderConfig{
			Codec:       "libx264",
			CRF:         20,
			Preset:      "medium",
			PixelFormat: "yuv420p",
		},
		Padding: timeline.Padding{
			Hook:       4,
			Build:      4,
			Transition: 3,
			Emotional:  5,
			CTA:        10,
		},
		Voice: VoiceConfig{
			ModelID:         "eleven_multilingual_v2",
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.3,
			SpeakerBoost:    true,
			TimeoutSeconds:  120,
		},
		Script: ScriptConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Render: RenderConfig{
			LineHeight:  1.3,
			TextWidth:   0.82,
			Concurrency: 4,
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Video.Width == 0 {
		c.Video.Width = defaults.Video.Width
	}
	if c.Video.Height == 0 {
		c.Video.Height = defaults.Video.Height
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaults.Video.FPS
	}
	if c.Encoder.Codec == "" {
		c.Encoder.Codec = defaults.Encoder.Codec
	}
	if c.Encoder.CRF == 0 {
		c.Encoder.CRF = defaults.Encoder.CRF
	}
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaults.Encoder.Preset
	}
	if c.Encoder.PixelFormat == "" {
		c.Encoder.PixelFormat = defaults.Encoder.PixelFormat
	}
	if c.Voice.ModelID == "" {
		c.Voice.ModelID = defaults.Voice.ModelID
	}
	if c.Voice.TimeoutSeconds == 0 {
		c.Voice.TimeoutSeconds = defaults.Voice.TimeoutSeconds
	}
	if c.Script.Model == "" {
		c.Script.Model = defaults.Script.Model
	}
	if c.Script.TimeoutSeconds == 0 {
		c.Script.TimeoutSeconds = defaults.Script.TimeoutSeconds
	}
	if c.Render.LineHeight == 0 {
		c.Render.LineHeight = defaults.Render.LineHeight
	}
	if c.Render.TextWidth == 0 {
		c.Render.TextWidth = defaults.Render.TextWidth
	}
	if c.Render.Concurrency == 0 {
		c.Render.Concurrency = defaults.Render.Concurrency
	}
}

// Validate reports configuration values that would break rendering or
// encoding downstream.
func (c Config) Validate() error {
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video.fps must be positive, got %d", c.Video.FPS)
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return fmt.Errorf("canvas dimensions must be even for %s encoding, got %dx%d", c.Encoder.PixelFormat, c.Video.Width, c.Video.Height)
	}
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return fmt.Errorf("encoder.crf must be in [0,51], got %d", c.Encoder.CRF)
	}
	if c.Render.TextWidth <= 0 || c.Render.TextWidth > 1 {
		return fmt.Errorf("render.text_width must be in (0,1], got %v", c.Render.TextWidth)
	}
	// Planning with a token duration catches negative padding up front.
	if _, err := timeline.Plan(1, c.Padding); err != nil {
		return fmt.Errorf("padding: %w", err)
	}
	return nil
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
