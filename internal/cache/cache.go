package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RenderCache stores finished masters keyed by render hash. A hit means
// the exact same spec, configs, assets and seed were rendered before,
// so the cached audio is bit-identical to what a fresh render would
// produce.
type RenderCache struct {
	dir string
}

// Entry describes one cached render
type Entry struct {
	Hash       string    `json:"hash"`
	MasterPath string    `json:"master_path"`
	MIDIPath   string    `json:"midi_path,omitempty"`
	DurationS  float64   `json:"duration_s"`
	SampleRate int       `json:"sample_rate"`
	CachedAt   time.Time `json:"cached_at"`
}

// New creates a render cache rooted at dir, creating it if needed.
// An empty dir defaults to .cache/renders under the working directory.
func New(dir string) (*RenderCache, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working dir: %w", err)
		}
		dir = filepath.Join(cwd, ".cache", "renders")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &RenderCache{dir: dir}, nil
}

// Get retrieves a cached render by hash
func (c *RenderCache) Get(hash string) (*Entry, bool) {
	sub := filepath.Join(c.dir, hash)
	data, err := os.ReadFile(filepath.Join(sub, "entry.json"))
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if !fileExists(e.MasterPath) {
		return nil, false
	}
	return &e, true
}

// Put copies a finished master (and optional MIDI file) into the cache
func (c *RenderCache) Put(hash, masterPath, midiPath string, durationS float64, sampleRate int) (*Entry, error) {
	sub := filepath.Join(c.dir, hash)
	if err := os.MkdirAll(sub, 0755); err != nil {
		return nil, fmt.Errorf("create cache subdir: %w", err)
	}

	e := &Entry{
		Hash:       hash,
		DurationS:  durationS,
		SampleRate: sampleRate,
		CachedAt:   time.Now(),
	}

	dst := filepath.Join(sub, "master.wav")
	if err := copyFile(masterPath, dst); err != nil {
		return nil, fmt.Errorf("cache master: %w", err)
	}
	e.MasterPath = dst

	if midiPath != "" && fileExists(midiPath) {
		dst := filepath.Join(sub, "song.mid")
		if err := copyFile(midiPath, dst); err != nil {
			return nil, fmt.Errorf("cache midi: %w", err)
		}
		e.MIDIPath = dst
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "entry.json"), data, 0644); err != nil {
		return nil, fmt.Errorf("write entry: %w", err)
	}
	return e, nil
}

// Clear removes all cached renders
func (c *RenderCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Size returns the total byte size and entry count of the cache
func (c *RenderCache) Size() (int64, int, error) {
	var totalSize int64
	var count int

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		count++

		files, _ := os.ReadDir(filepath.Join(c.dir, entry.Name()))
		for _, f := range files {
			info, err := f.Info()
			if err == nil {
				totalSize += info.Size()
			}
		}
	}

	return totalSize, count, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0644)
}
