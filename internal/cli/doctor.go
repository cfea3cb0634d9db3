package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"storyglow/internal/config"
	"storyglow/internal/media"
	"storyglow/internal/paths"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check project health",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	var checks []healthCheck

	checks = append(checks, checkTools(cmd))

	cfg, cfgErr := config.Load(pp.ConfigFile)
	checks = append(checks, checkConfig(cfg, cfgErr))
	if cfgErr == nil {
		checks = append(checks, checkFont(cfg))
	}

	checks = append(checks, checkVideos(pp))
	checks = append(checks, checkKeys())

	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkTools(cmd *cobra.Command) healthCheck {
	asm := media.NewFFmpeg(nil)

	var found []string
	var missing []string
	for _, tool := range []string{asm.FFmpegPath, asm.FFprobePath} {
		version, err := asm.Version(cmd.Context(), tool)
		if err != nil {
			missing = append(missing, tool)
			continue
		}
		found = append(found, version)
	}

	if len(missing) > 0 {
		return healthCheck{
			Name:    "Tools",
			Status:  "error",
			Summary: "missing: " + strings.Join(missing, ", "),
		}
	}
	return healthCheck{Name: "Tools", Status: "ok", Summary: strings.Join(found, "; ")}
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: err.Error()}
	}
	summary := fmt.Sprintf("%dx%d at %d fps, %s",
		cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS, cfg.Encoder.Codec)
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkFont(cfg config.Config) healthCheck {
	if cfg.Render.FontFile == "" {
		return healthCheck{
			Name:    "Font",
			Status:  "warning",
			Summary: "render.font_file not set; text uses the builtin face",
		}
	}
	exists, err := paths.FileExists(cfg.Render.FontFile)
	if err != nil {
		return healthCheck{Name: "Font", Status: "error", Summary: err.Error()}
	}
	if !exists {
		return healthCheck{
			Name:    "Font",
			Status:  "error",
			Summary: fmt.Sprintf("font file not found: %s", cfg.Render.FontFile),
		}
	}
	return healthCheck{Name: "Font", Status: "ok", Summary: cfg.Render.FontFile}
}

func checkVideos(pp paths.ProjectPaths) healthCheck {
	specs, err := config.LoadSpecs(pp.SpecsFile)
	if err != nil {
		return healthCheck{Name: "Videos", Status: "error", Summary: err.Error()}
	}
	var prompts, audioFiles int
	for _, spec := range specs {
		if spec.Narration.Prompt != "" {
			prompts++
		}
		if spec.Narration.AudioFile != "" {
			audioFiles++
		}
	}
	summary := fmt.Sprintf("%d videos (%d prompted, %d pre-recorded)",
		len(specs), prompts, audioFiles)
	return healthCheck{Name: "Videos", Status: "ok", Summary: summary}
}

func checkKeys() healthCheck {
	var missing []string
	if os.Getenv("ELEVENLABS_API_KEY") == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return healthCheck{
			Name:    "Keys",
			Status:  "warning",
			Summary: "not set: " + strings.Join(missing, ", ") + " (silent renders still work)",
		}
	}
	return healthCheck{Name: "Keys", Status: "ok", Summary: "voice and script keys present"}
}

func writeDoctorResult(cmd *cobra.Command, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-8s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}
