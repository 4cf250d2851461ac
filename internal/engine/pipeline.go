package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dygy/songforge/internal/cache"
	"github.com/dygy/songforge/internal/eval"
	"github.com/dygy/songforge/internal/midifile"
	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/progress"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/wav"
	"github.com/dygy/songforge/internal/workspace"
)

// Version is stamped into the render hash so audio-affecting code
// changes invalidate cached renders
const Version = "1.0.0"

// PipelineConfig holds everything one render needs beyond the spec
type PipelineConfig struct {
	Spec       *song.Spec
	Seed       int64
	Style      song.StyleConfig
	Mix        song.MixConfig
	Assets     AssetConfig
	SampleRate int
	OutputDir  string // empty means a temp workspace
	WriteStems bool
	WriteMIDI  bool
	UseCache   bool
	CacheDir   string
	Verbose    bool
	Phrase     pattern.PhraseGenerator
}

// PipelineResult describes one finished render
type PipelineResult struct {
	Hash       string            `json:"hash"`
	MasterPath string            `json:"master_path"`
	MIDIPath   string            `json:"midi_path,omitempty"`
	StemPaths  map[string]string `json:"stem_paths,omitempty"`
	DurationS  float64           `json:"duration_s"`
	SampleRate int               `json:"sample_rate"`
	CacheHit   bool              `json:"cache_hit"`
	Flagged    []string          `json:"flagged_instruments,omitempty"`
	Metrics    eval.Metrics      `json:"metrics"`
	Loudness   eval.Loudness     `json:"loudness"`
	Style      string            `json:"style"`
}

// RenderSong runs the full pipeline: generate, arrange, dynamics,
// render, mix, then writes the master (with the render hash embedded
// as a WAV comment), optional stems, optional MIDI and a metadata JSON
// next to them.
func RenderSong(ctx context.Context, cfg PipelineConfig, out io.Writer) (*PipelineResult, error) {
	reporter := progress.NewReporter(out, cfg.Verbose)

	reporter.StartStage(progress.StageValidate)
	cfg.Spec.ApplyDefaults()
	if err := cfg.Spec.Validate(); err != nil {
		return nil, err
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	reporter.StageComplete("Spec valid: %d sections, %d bars", len(cfg.Spec.Sections), cfg.Spec.TotalBars())

	hash, err := eval.RenderHash(eval.HashInput{
		Spec:       cfg.Spec,
		Mix:        cfg.Mix,
		Style:      cfg.Style,
		AssetPaths: cfg.Assets.Paths(),
		Seed:       cfg.Seed,
		TargetSec:  cfg.Spec.TargetMinutes * 60,
		Commit:     Version,
	})
	if err != nil {
		return nil, err
	}

	var renderCache *cache.RenderCache
	if cfg.UseCache {
		renderCache, err = cache.New(cfg.CacheDir)
		if err != nil {
			reporter.Warning("cache init failed: %v", err)
		} else if entry, ok := renderCache.Get(hash); ok {
			reporter.StageComplete("Using cached render (hash %s)", hash[:12])
			return &PipelineResult{
				Hash:       hash,
				MasterPath: entry.MasterPath,
				MIDIPath:   entry.MIDIPath,
				DurationS:  entry.DurationS,
				SampleRate: entry.SampleRate,
				CacheHit:   true,
				Style:      string(cfg.Style.Name),
			}, nil
		}
	}

	var ws *workspace.Workspace
	if cfg.OutputDir != "" {
		ws, err = workspace.Open(cfg.OutputDir)
	} else {
		ws, err = workspace.Create()
	}
	if err != nil {
		return nil, err
	}

	eng := New(cfg.Phrase)

	reporter.StartStage(progress.StageGenerate)
	set, satb, err := eng.Generate(ctx, cfg.Spec, cfg.Seed)
	if err != nil {
		return nil, err
	}
	reporter.StageComplete("%d notes across %d instruments", set.Count(), len(set))

	reporter.StartStage(progress.StageArrange)
	set, arrangedSpec, err := eng.Arrange(cfg.Spec, set, cfg.Style, cfg.Seed)
	if err != nil {
		return nil, err
	}
	reporter.StageComplete("Arranged to %d bars", arrangedSpec.TotalBars())

	reporter.StartStage(progress.StageDynamics)
	set = eng.ApplyDynamics(arrangedSpec, set, cfg.Style, cfg.Seed)
	reporter.StageComplete("Velocity curve and articulation applied")

	reporter.StartStage(progress.StageRender)
	rendered, err := eng.Render(set, cfg.SampleRate, cfg.Assets)
	if err != nil {
		return nil, err
	}
	for _, instr := range rendered.Flagged {
		reporter.Warning("%s produced an invalid buffer; substituted silence", instr)
	}
	reporter.StageComplete("%d instrument buffers rendered", len(rendered.Buffers))

	reporter.StartStage(progress.StageMix)
	master, err := eng.Mix(rendered.Buffers, cfg.SampleRate, cfg.Mix)
	if err != nil {
		return nil, err
	}

	// The master ends with the program: releases and reverb ring only
	// inside it. Outro holds extend the program via note durations.
	programSec := float64(arrangedSpec.TotalBars()*arrangedSpec.BeatsPerBar()) * arrangedSpec.SecPerBeat()
	if d := set.TotalDuration(); d > programSec {
		programSec = d
	}
	if n := int(programSec * float64(cfg.SampleRate)); n < master.Len() {
		master.L = master.L[:n]
		master.R = master.R[:n]
	}

	if err := wav.WriteStereoFile(ws.Master(), master, cfg.SampleRate, hash); err != nil {
		return nil, err
	}

	result := &PipelineResult{
		Hash:       hash,
		MasterPath: ws.Master(),
		DurationS:  float64(master.Len()) / float64(cfg.SampleRate),
		SampleRate: cfg.SampleRate,
		Flagged:    rendered.Flagged,
		Metrics:    eval.Evaluate(arrangedSpec, set, satb),
		Loudness:   eval.MeasureLoudness(master, cfg.SampleRate),
		Style:      string(cfg.Style.Name),
	}

	if cfg.WriteStems {
		result.StemPaths = make(map[string]string, len(rendered.Buffers))
		for instr, buf := range rendered.Buffers {
			path := ws.Stem(instr)
			if err := wav.WriteMonoFile(path, buf, cfg.SampleRate, hash); err != nil {
				return nil, err
			}
			result.StemPaths[instr] = path
		}
	}

	if cfg.WriteMIDI {
		if err := midifile.Export(ws.MIDIFile(), arrangedSpec, set); err != nil {
			return nil, err
		}
		result.MIDIPath = ws.MIDIFile()
	}

	if err := writeMetadata(ws.MetadataJSON(), result); err != nil {
		return nil, err
	}

	if renderCache != nil {
		if _, err := renderCache.Put(hash, result.MasterPath, result.MIDIPath, result.DurationS, cfg.SampleRate); err != nil {
			reporter.Warning("cache save failed: %v", err)
		}
	}

	reporter.StageComplete("Master is %.1f s at %d Hz", result.DurationS, cfg.SampleRate)
	reporter.Done(result.MasterPath)
	return result, nil
}

func writeMetadata(path string, result *PipelineResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
