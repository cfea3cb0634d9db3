package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"storyglow/internal/config"
	"storyglow/internal/paths"
	"storyglow/internal/timeline"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Preview each video's phase timeline",
		Long: "Preview the phase timeline each video would get. Narration length " +
			"is not known until synthesis, so the plan uses each spec's fallback duration.",
		RunE: runPlan,
	}
}

type planEntry struct {
	VideoID string           `json:"video_id"`
	Total   float64          `json:"total_seconds"`
	Frames  int              `json:"frames"`
	Phases  []timeline.Phase `json:"phases"`
}

func runPlan(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	specs, err := config.LoadSpecs(pp.SpecsFile)
	if err != nil {
		return err
	}

	entries := make([]planEntry, 0, len(specs))
	for _, spec := range specs {
		phases, err := timeline.Plan(spec.Narration.FallbackSeconds, cfg.Padding)
		if err != nil {
			return fmt.Errorf("video %q: %w", spec.ID, err)
		}
		entries = append(entries, planEntry{
			VideoID: spec.ID,
			Total:   timeline.Total(phases),
			Frames:  timeline.FrameCount(phases, cfg.Video.FPS),
			Phases:  phases,
		})
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return json.NewEncoder(out).Encode(entries)
	}

	for _, entry := range entries {
		fmt.Fprintf(out, "%s: %.1fs, %d frames at %d fps\n",
			entry.VideoID, entry.Total, entry.Frames, cfg.Video.FPS)
		for _, phase := range entry.Phases {
			fmt.Fprintf(out, "  %-12s %6.1fs - %6.1fs\n", phase.Name, phase.Start, phase.End)
		}
	}
	return nil
}
