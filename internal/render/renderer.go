package render

import (
	"math"

	sferr "github.com/dygy/songforge/internal/errors"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
)

// Assets points the renderer at instrument material. Instruments
// without an entry fall back to the built-in synth patches.
type Assets struct {
	Instruments map[string]*Instrument // region-list instruments
	Drums       *DrumPool
	Patches     map[string]SynthPatch
}

// Result is the per-instrument audio plus any instruments whose buffers
// had to be replaced with flagged silence
type Result struct {
	Buffers map[string][]float64
	Flagged []string
}

// Renderer turns note sets into per-instrument mono buffers
type Renderer struct {
	assets Assets
}

// NewRenderer creates a Renderer. Missing patch entries get defaults.
func NewRenderer(assets Assets) *Renderer {
	if assets.Patches == nil {
		assets.Patches = DefaultPatches()
	}
	return &Renderer{assets: assets}
}

// Render renders every instrument in the set. A missing or invalid
// asset fails that instrument's render outright: silent stems would
// break the reproducibility contract.
func (r *Renderer) Render(set stems.Set, sampleRate int) (*Result, error) {
	res := &Result{Buffers: make(map[string][]float64, len(set))}
	expected := int(set.TotalDuration()*float64(sampleRate)) + sampleRate/2

	for _, instr := range song.Instruments() {
		notes := set[instr]
		if len(notes) == 0 {
			res.Buffers[instr] = make([]float64, expected)
			continue
		}

		buf, err := r.renderInstrument(instr, notes, sampleRate)
		if err != nil {
			return nil, sferr.NewStageError("render", instr, err)
		}

		if !finite(buf) || len(buf) == 0 {
			// Never propagate NaNs into the mix; substitute flagged
			// silence of the expected length
			buf = make([]float64, expected)
			res.Flagged = append(res.Flagged, instr)
		}
		res.Buffers[instr] = buf
	}
	return res, nil
}

func (r *Renderer) renderInstrument(instr string, notes []stems.Note, sampleRate int) ([]float64, error) {
	if instr == song.InstrDrums && r.assets.Drums != nil {
		return r.assets.Drums.RenderDrums(notes, sampleRate)
	}
	if inst, ok := r.assets.Instruments[instr]; ok {
		return RenderSampled(notes, inst, sampleRate)
	}
	patch, ok := r.assets.Patches[instr]
	if !ok {
		patch = DefaultPatches()[instr]
	}
	return RenderSynth(notes, patch, sampleRate), nil
}

func finite(buf []float64) bool {
	for _, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
