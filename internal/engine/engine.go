package engine

import (
	"context"
	"fmt"

	"github.com/dygy/songforge/internal/arrange"
	"github.com/dygy/songforge/internal/dynamics"
	sferr "github.com/dygy/songforge/internal/errors"
	"github.com/dygy/songforge/internal/mix"
	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/render"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
	"github.com/dygy/songforge/internal/theory"
	"github.com/dygy/songforge/internal/wav"
)

// AssetConfig names the instrument sample sources. Instruments without
// an entry render through the built-in synth patches.
type AssetConfig struct {
	InstrumentFiles map[string]string `json:"instrument_files,omitempty"` // instrument -> region list path
	DrumDir         string            `json:"drum_dir,omitempty"`
}

// Paths lists every asset path in a stable order, for hashing
func (a AssetConfig) Paths() []string {
	var out []string
	for _, p := range a.InstrumentFiles {
		out = append(out, p)
	}
	if a.DrumDir != "" {
		out = append(out, a.DrumDir)
	}
	return out
}

// Engine runs the composition and rendering stages. Each stage is a
// pure function of its inputs plus the seed, so results are
// reproducible across runs and machines.
type Engine struct {
	phrase pattern.PhraseGenerator
}

// New creates an Engine. phrase may be nil; when set it is tried first
// for every (instrument, section) and the algorithmic generator covers
// failures and timeouts.
func New(phrase pattern.PhraseGenerator) *Engine {
	return &Engine{phrase: phrase}
}

// Harmony returns the voice-led SATB timeline for the spec, one
// voicing per bar
func Harmony(spec *song.Spec) (*theory.SATB, error) {
	symbols := make([]string, 0, spec.TotalBars())
	for bar := 0; bar < spec.TotalBars(); bar++ {
		sym, ok := spec.ChordAt(bar)
		if !ok {
			return nil, fmt.Errorf("no chord declared for bar %d", bar)
		}
		symbols = append(symbols, sym)
	}
	return theory.GenerateSATB(symbols)
}

// Generate produces the humanized, register-bounded stem set for a
// spec and seed
func (e *Engine) Generate(ctx context.Context, spec *song.Spec, seed int64) (stems.Set, *theory.SATB, error) {
	satb, err := Harmony(spec)
	if err != nil {
		return nil, nil, sferr.NewStageError("generate", "", err)
	}

	synth := pattern.NewSynthesizer(spec, seed, e.phrase)
	sections, err := synth.GenerateAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	builder := stems.NewBuilder(spec, seed, satb)
	set, err := builder.Build(sections)
	if err != nil {
		return nil, nil, sferr.NewStageError("generate", "", err)
	}
	return set, satb, nil
}

// Arrange applies cadence fills, style FX, duration looping and the
// outro. The returned spec reflects any sections appended by looping.
func (e *Engine) Arrange(spec *song.Spec, set stems.Set, style song.StyleConfig, seed int64) (stems.Set, *song.Spec, error) {
	res, err := arrange.New(spec, style, seed).Arrange(set)
	if err != nil {
		return nil, nil, err
	}
	return res.Stems, res.Spec, nil
}

// ApplyDynamics applies the section velocity curve, jitter and drum
// articulation
func (e *Engine) ApplyDynamics(spec *song.Spec, set stems.Set, style song.StyleConfig, seed int64) stems.Set {
	return dynamics.New(spec, style, seed).Apply(set)
}

// Render turns the stem set into per-instrument mono audio
func (e *Engine) Render(set stems.Set, sampleRate int, assets AssetConfig) (*render.Result, error) {
	ra, err := loadAssets(assets)
	if err != nil {
		return nil, err
	}
	return render.NewRenderer(ra).Render(set, sampleRate)
}

// Mix folds the rendered instruments down to the stereo master
func (e *Engine) Mix(audio map[string][]float64, sampleRate int, cfg song.MixConfig) (wav.Stereo, error) {
	return mix.Mix(audio, sampleRate, cfg)
}

func loadAssets(cfg AssetConfig) (render.Assets, error) {
	assets := render.Assets{Patches: render.DefaultPatches()}
	if len(cfg.InstrumentFiles) > 0 {
		assets.Instruments = make(map[string]*render.Instrument, len(cfg.InstrumentFiles))
		for instr, path := range cfg.InstrumentFiles {
			inst, err := render.LoadInstrument(path)
			if err != nil {
				return render.Assets{}, sferr.NewStageError("render", instr, err)
			}
			assets.Instruments[instr] = inst
		}
	}
	if cfg.DrumDir != "" {
		pool, err := render.LoadDrumPool(cfg.DrumDir)
		if err != nil {
			return render.Assets{}, sferr.NewStageError("render", song.InstrDrums, err)
		}
		assets.Drums = pool
	}
	return assets, nil
}
