package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FramePattern is the printf-style filename pattern for rendered frames; the
// same pattern is handed to ffmpeg's image2 demuxer.
const FramePattern = "frame_%05d.png"

// ProjectPaths captures canonical locations for a storyglow project.
type ProjectPaths struct {
	Root         string
	ConfigFile   string
	SpecsFile    string
	ScratchDir   string
	AudioDir     string
	OutputDir    string
	LogsDir      string
	ManifestFile string
}

// Resolve determines the project root using the optional --project flag or
// the current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	scratch := filepath.Join(root, "scratch")
	return ProjectPaths{
		Root:         root,
		ConfigFile:   filepath.Join(root, "storyglow.yaml"),
		SpecsFile:    filepath.Join(root, "videos.yaml"),
		ScratchDir:   scratch,
		AudioDir:     filepath.Join(scratch, "audio"),
		OutputDir:    filepath.Join(root, "output"),
		LogsDir:      filepath.Join(root, "logs"),
		ManifestFile: filepath.Join(root, "output", "manifest.json"),
	}
}

// FramesDir returns the per-video scratch directory holding rendered frames.
func (p ProjectPaths) FramesDir(videoID string) string {
	return filepath.Join(p.ScratchDir, "frames-"+videoID)
}

// FramePath returns the path of a single numbered frame inside a video's
// frames directory.
func (p ProjectPaths) FramePath(videoID string, index int) string {
	return filepath.Join(p.FramesDir(videoID), fmt.Sprintf(FramePattern, index))
}

// NarrationPath returns the scratch location of a video's synthesized
// narration audio.
func (p ProjectPaths) NarrationPath(videoID string) string {
	return filepath.Join(p.AudioDir, videoID+".mp3")
}

// OutputPath returns the final location for a rendered video file.
func (p ProjectPaths) OutputPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename)
	}
	return filepath.Join(p.OutputDir, filename)
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureWorkDirs creates the scratch/audio/output/logs hierarchy.
func (p ProjectPaths) EnsureWorkDirs() error {
	dirs := []string{p.ScratchDir, p.AudioDir, p.OutputDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ScratchFrameDirs lists the frames-* directories currently on disk,
// including leftovers from failed runs.
func (p ProjectPaths) ScratchFrameDirs() ([]string, error) {
	entries, err := os.ReadDir(p.ScratchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "frames-") {
			dirs = append(dirs, filepath.Join(p.ScratchDir, e.Name()))
		}
	}
	return dirs, nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
