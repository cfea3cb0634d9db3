package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"storyglow/internal/config"
	"storyglow/internal/logx"
	"storyglow/internal/paths"
)

const videosPlanYAML = `# Add your videos here. Each entry needs an id and a narration source.
# - id: emma-birthday
#   narration:
#     text: "Dear Emma, eight years ago the world got a little brighter."
#   palette:
#     cold_top: "#1b2a4a"
#     cold_bottom: "#0d1526"
#     warm_top: "#b3541e"
#     warm_bottom: "#4a1d0f"
#   particles:
#     style: snow
#     sparkle: true
#   phases:
#     hook:
#       lines: ["Eight years ago..."]
#     cta:
#       lines: ["Share this with someone who loves Emma"]
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a storyglow project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		return filepath.Join(cwd, args[0]), nil
	}

	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("storyglow-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}

	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureWorkDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(pp)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Printf("storyglow init: project=%s", pp.Root)

	created := make([]string, 0, 2)

	if err := ensureVideosPlan(pp, &created, logger); err != nil {
		return err
	}
	if err := ensureConfig(pp, &created, logger); err != nil {
		return err
	}

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}

	return nil
}

func ensureVideosPlan(pp paths.ProjectPaths, created *[]string, logger Logger) error {
	exists, err := paths.FileExists(pp.SpecsFile)
	if err != nil {
		return fmt.Errorf("check videos plan: %w", err)
	}
	if exists {
		logger.Printf("videos plan exists: %s", pp.SpecsFile)
		return nil
	}

	if err := os.WriteFile(pp.SpecsFile, []byte(videosPlanYAML), 0o644); err != nil {
		return fmt.Errorf("write videos plan: %w", err)
	}
	logger.Printf("created videos plan: %s", pp.SpecsFile)
	*created = append(*created, filepath.Base(pp.SpecsFile))
	return nil
}

func ensureConfig(pp paths.ProjectPaths, created *[]string, logger Logger) error {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return fmt.Errorf("check config: %w", err)
	}
	if exists {
		logger.Printf("config exists: %s", pp.ConfigFile)
		return nil
	}

	cfg := config.Default()
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logger.Printf("created config: %s", pp.ConfigFile)
	*created = append(*created, filepath.Base(pp.ConfigFile))
	return nil
}

// Logger keeps the subset of log.Logger used locally, enabling easy testing.
type Logger interface {
	Printf(format string, v ...any)
}
