package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dygy/songforge/internal/song"
)

// Workspace manages the output files for a single render job
type Workspace struct {
	Dir       string
	CreatedAt time.Time
	temp      bool
}

// Create creates a new isolated workspace in the system temp directory
func Create() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "songforge-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{
		Dir:       dir,
		CreatedAt: time.Now(),
		temp:      true,
	}, nil
}

// Open uses an existing directory as the workspace, creating it if
// needed. Cleanup is a no-op for opened workspaces.
func Open(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	return &Workspace{Dir: dir, CreatedAt: time.Now()}, nil
}

// Path helpers for render outputs
func (w *Workspace) Master() string       { return filepath.Join(w.Dir, "master.wav") }
func (w *Workspace) MIDIFile() string     { return filepath.Join(w.Dir, "song.mid") }
func (w *Workspace) MetadataJSON() string { return filepath.Join(w.Dir, "metadata.json") }

// Stem returns the per-instrument stem path
func (w *Workspace) Stem(instrument string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("stem_%s.wav", instrument))
}

// StemPaths returns every stem path in render order
func (w *Workspace) StemPaths() map[string]string {
	out := make(map[string]string, len(song.Instruments()))
	for _, instr := range song.Instruments() {
		out[instr] = w.Stem(instr)
	}
	return out
}

// Cleanup removes the workspace directory if it was created as a
// temporary one
func (w *Workspace) Cleanup() error {
	if !w.temp {
		return nil
	}
	return os.RemoveAll(w.Dir)
}
