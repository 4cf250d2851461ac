package dynamics

import (
	"math"
	"sort"
	"strings"

	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
)

// ghostLeadSec is how far ahead of a snare its ghost note lands
const ghostLeadSec = 0.05

// Processor applies the section velocity curve, per-instrument velocity
// jitter, and drum articulation (short hits, snare ghosts)
type Processor struct {
	spec  *song.Spec
	style song.StyleConfig
	seed  int64
}

// New creates a dynamics Processor
func New(spec *song.Spec, style song.StyleConfig, seed int64) *Processor {
	return &Processor{spec: spec, style: style, seed: seed}
}

// Apply returns a new note set with dynamics applied. The input is
// never mutated.
func (p *Processor) Apply(in stems.Set) stems.Set {
	set := in.Clone()
	curve := p.style.VelocityCurveDB
	if curve == nil {
		curve = song.DefaultVelocityCurveDB()
	}
	barDur := float64(p.spec.BeatsPerBar()) * p.spec.SecPerBeat()

	for instr, notes := range set {
		rng := pattern.NewStream(p.seed, "dynamics", instr)
		var ghosts []stems.Note

		for i, n := range notes {
			bar := int(n.Start / barDur)
			mult := 1.0
			if sec, _, ok := p.spec.SectionAt(bar); ok {
				if db, found := curveDB(curve, sec.Name); found {
					mult = math.Pow(10, db/20)
				}
			}

			vel := float64(n.Velocity) * mult
			vel += float64(rng.Intn(7) - 3)
			notes[i].Velocity = clampVelocity(vel)

			if instr == song.InstrDrums {
				notes[i].Dur = n.Dur / 2
				if n.Pitch == pattern.PitchSnare && rng.Float64() < p.style.GhostNoteProb {
					ghost := notes[i]
					ghost.Start = math.Max(0, ghost.Start-ghostLeadSec)
					ghost.Velocity = clampVelocity(float64(notes[i].Velocity) * 0.4)
					ghosts = append(ghosts, ghost)
				}
			}
		}
		set[instr] = append(notes, ghosts...)
	}

	set.SortAll()
	return set
}

// curveDB looks up a section's dB offset: exact name first, then by
// family so "chorus2" inherits the "chorus" entry. Candidate keys are
// checked in sorted order so the match never depends on map order.
func curveDB(curve map[string]float64, name string) (float64, bool) {
	if db, ok := curve[name]; ok {
		return db, true
	}
	low := strings.ToLower(name)
	keys := make([]string, 0, len(curve))
	for key := range curve {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(low, strings.ToLower(key)) {
			return curve[key], true
		}
	}
	return 0, false
}

func clampVelocity(v float64) int {
	iv := int(math.Round(v))
	if iv < 1 {
		return 1
	}
	if iv > 127 {
		return 127
	}
	return iv
}
