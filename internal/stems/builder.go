package stems

import (
	"math"
	"math/rand"

	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/theory"
)

// Per-instrument micro-timing jitter magnitude in beats
var timingJitter = map[string]float64{
	song.InstrDrums: 0.012,
	song.InstrBass:  0.02,
	song.InstrKeys:  0.03,
	song.InstrPads:  0.05,
}

const velocityJitter = 6

// dedupeTolerance is the overlap window (seconds) within which two
// same-pitch notes on one instrument count as duplicates
const dedupeTolerance = 0.02

// Builder converts beat-relative section events into absolute-time,
// humanized, register-bounded notes
type Builder struct {
	spec *song.Spec
	seed int64
	satb *theory.SATB // one voicing per bar of the whole song
}

// NewBuilder creates a Builder. satb carries the voice-led harmony
// timeline, one step per bar.
func NewBuilder(spec *song.Spec, seed int64, satb *theory.SATB) *Builder {
	return &Builder{spec: spec, seed: seed, satb: satb}
}

// Build assembles the full stem set from generated section events
func (b *Builder) Build(sections []pattern.SectionEvents) (Set, error) {
	set := make(Set)
	secPerBeat := b.spec.SecPerBeat()
	startBar := 0

	for _, se := range sections {
		startBeat := float64(startBar * se.Context.BeatsPerBar)
		for instr, events := range se.Parts {
			refined := b.refine(instr, events, se.Context, startBar)
			rng := pattern.NewStream(b.seed, se.Context.Name, instr+":humanize")
			for _, ev := range refined {
				n := b.humanize(instr, ev, rng)
				set[instr] = append(set[instr], Note{
					Start:    (startBeat + n.Start) * secPerBeat,
					Dur:      n.Dur * secPerBeat,
					Pitch:    n.Pitch,
					Velocity: n.Velocity,
					Channel:  n.Channel,
				})
			}
		}
		startBar += se.Context.Bars
	}

	set.SortAll()
	for instr := range set {
		// Drums fold too: a narrowed drum register remaps hits by
		// octave rather than letting pitches escape it
		reg := b.spec.Registers[instr]
		for i := range set[instr] {
			set[instr][i].Pitch = FoldToRegister(set[instr][i].Pitch, reg.Low, reg.High)
		}
		set[instr] = Dedupe(set[instr], dedupeTolerance)
	}

	unisonRng := pattern.NewStream(b.seed, "song", "unison")
	set[song.InstrKeys] = ResolveUnisons(set[song.InstrBass], set[song.InstrKeys], unisonRng)

	set.SortAll()
	return set, nil
}

// refine applies the per-instrument musical treatment in beat space
func (b *Builder) refine(instr string, events []pattern.Event, ctx pattern.SectionContext, startBar int) []pattern.Event {
	switch instr {
	case song.InstrBass:
		return b.refineBass(events, ctx)
	case song.InstrKeys:
		return b.refineKeys(events, ctx, startBar)
	case song.InstrPads:
		return b.refinePads(events, ctx)
	default:
		return events
	}
}

// humanize applies swing and bounded timing/velocity jitter. Swing
// delays odd-indexed 16th subdivisions.
func (b *Builder) humanize(instr string, ev pattern.Event, rng *rand.Rand) pattern.Event {
	step := int(math.Round(ev.Start / 0.25))
	if b.spec.Swing > 0 && step%2 == 1 {
		ev.Start += b.spec.Swing * 0.125
	}

	mag := timingJitter[instr]
	ev.Start += (rng.Float64()*2 - 1) * mag
	if ev.Start < 0 {
		ev.Start = 0
	}

	ev.Velocity += rng.Intn(velocityJitter*2+1) - velocityJitter
	if ev.Velocity < 1 {
		ev.Velocity = 1
	}
	if ev.Velocity > 127 {
		ev.Velocity = 127
	}
	return ev
}

// FoldToRegister shifts a pitch by octaves into [low, high], clamping
// only when no octave fits
func FoldToRegister(pitch, low, high int) int {
	if low > high {
		return pitch
	}
	for pitch < low && pitch+12 <= high {
		pitch += 12
	}
	for pitch > high && pitch-12 >= low {
		pitch -= 12
	}
	if pitch < low {
		pitch = low
	}
	if pitch > high {
		pitch = high
	}
	return pitch
}

// Dedupe drops same-pitch notes whose onsets overlap within tol seconds
func Dedupe(notes []Note, tol float64) []Note {
	if len(notes) < 2 {
		return notes
	}
	var out []Note
	for _, n := range notes {
		dup := false
		for i := len(out) - 1; i >= 0; i-- {
			p := out[i]
			if n.Start-p.Start > p.Dur+tol {
				break
			}
			if p.Pitch == n.Pitch && math.Abs(p.Start-n.Start) <= tol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

// ResolveUnisons nudges key onsets forward by a small random offset when
// a key note collides with a simultaneous bass note of the same pitch
// class, instead of deleting either
func ResolveUnisons(bass, keys []Note, rng *rand.Rand) []Note {
	for i := range keys {
		for _, bn := range bass {
			sameClass := bn.Pitch%12 == keys[i].Pitch%12
			overlap := math.Abs(bn.Start-keys[i].Start) < 0.03
			if sameClass && overlap {
				keys[i].Start += 0.01 + rng.Float64()*0.02
				break
			}
		}
	}
	return keys
}
