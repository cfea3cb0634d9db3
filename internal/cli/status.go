package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"storyglow/internal/config"
	"storyglow/internal/paths"
	"storyglow/internal/pipeline"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which videos have been generated",
		RunE:  runStatus,
	}
}

type statusEntry struct {
	VideoID string `json:"video_id"`
	Output  string `json:"output,omitempty"`
	State   string `json:"state"` // "generated", "stale", "pending"
}

type statusReport struct {
	RunID       string        `json:"run_id,omitempty"`
	Videos      []statusEntry `json:"videos"`
	ScratchDirs []string      `json:"scratch_dirs,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	specs, err := config.LoadSpecs(pp.SpecsFile)
	if err != nil {
		return err
	}

	manifest, err := pipeline.LoadManifest(pp.ManifestFile)
	if err != nil {
		return err
	}

	report := statusReport{RunID: manifest.RunID}
	for _, spec := range specs {
		entry := statusEntry{VideoID: spec.ID, State: "pending"}
		if out, ok := manifest.Outputs[spec.ID]; ok {
			entry.Output = out
			// A manifest entry whose file vanished needs regenerating.
			if exists, _ := paths.FileExists(out); exists {
				entry.State = "generated"
			} else {
				entry.State = "stale"
			}
		}
		report.Videos = append(report.Videos, entry)
	}

	if dirs, err := pp.ScratchFrameDirs(); err == nil {
		report.ScratchDirs = dirs
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return json.NewEncoder(out).Encode(report)
	}

	fmt.Fprintf(out, "Project: %s\n", pp.Root)
	for _, entry := range report.Videos {
		if entry.Output != "" {
			fmt.Fprintf(out, "  %-20s %-10s %s\n", entry.VideoID, entry.State, entry.Output)
		} else {
			fmt.Fprintf(out, "  %-20s %s\n", entry.VideoID, entry.State)
		}
	}
	if len(report.ScratchDirs) > 0 {
		fmt.Fprintf(out, "\n%d leftover scratch frame dir(s); run 'storyglow clean scratch'\n",
			len(report.ScratchDirs))
	}
	return nil
}
