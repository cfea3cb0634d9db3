package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Manifest records which videos a project has produced. It is the only state
// persisted between runs, and only for bookkeeping; regeneration never reads
// it for anything but skip decisions and status output.
type Manifest struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Outputs     map[string]string `json:"outputs"` // video id -> output path
}

// LoadManifest reads the manifest, returning a fresh one when none exists.
func LoadManifest(path string) (Manifest, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newManifest(), nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(contents, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Outputs == nil {
		m.Outputs = make(map[string]string)
	}
	return m, nil
}

func newManifest() Manifest {
	return Manifest{
		RunID:   uuid.NewString(),
		Outputs: make(map[string]string),
	}
}

// Set records an output for a video id.
func (m *Manifest) Set(videoID, outputPath string) {
	if m.Outputs == nil {
		m.Outputs = make(map[string]string)
	}
	m.Outputs[videoID] = outputPath
	m.GeneratedAt = time.Now().UTC()
}

// SaveManifest writes the manifest atomically (temp file + rename) so a crash
// mid-write never leaves a truncated manifest behind.
func SaveManifest(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure manifest directory: %w", err)
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("create manifest temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
