package stems

import (
	"sort"

	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/theory"
)

// refineBass walks the generated onsets through the harmony: each note
// takes the chord tone nearest to the previous pitch, occasionally a
// chromatic approach, with leaps over 7 semitones octave-corrected back
// toward the previous note. The first note starts nearest the register
// center (a heuristic kept as-is, not a derived optimum).
func (b *Builder) refineBass(events []pattern.Event, ctx pattern.SectionContext) []pattern.Event {
	if len(events) == 0 {
		return events
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })

	reg := b.spec.Registers[song.InstrBass]
	center := (reg.Low + reg.High) / 2
	rng := pattern.NewStream(b.seed, ctx.Name, "bass:walk")

	prev := -1
	out := make([]pattern.Event, 0, len(events))
	for i, ev := range events {
		bar := int(ev.Start) / ctx.BeatsPerBar
		if bar >= len(ctx.Chords) {
			bar = len(ctx.Chords) - 1
		}
		chord := ctx.Chords[bar]

		var pitch int
		if prev < 0 {
			pitch = theory.NearestOctave(chord.Root, center)
		} else {
			pitch = nearestChordTone(chord, prev)
			// Chromatic approach into the next chord's root when the
			// following onset crosses a bar line
			if i+1 < len(events) {
				nextBar := int(events[i+1].Start) / ctx.BeatsPerBar
				if nextBar > bar && nextBar < len(ctx.Chords) && rng.Float64() < 0.3 {
					target := theory.NearestOctave(ctx.Chords[nextBar].Root, prev)
					if target > prev {
						pitch = target - 1
					} else {
						pitch = target + 1
					}
				}
			}
			// Leap smoothing: octave-shift toward the previous pitch
			for pitch-prev > 7 {
				pitch -= 12
			}
			for prev-pitch > 7 {
				pitch += 12
			}
		}

		ev.Pitch = pitch
		prev = pitch
		out = append(out, ev)
	}
	return out
}

// nearestChordTone finds the chord tone (any octave) closest to a pitch
func nearestChordTone(chord theory.Chord, near int) int {
	best := near
	bestDist := 1 << 30
	for _, pc := range chord.PitchClasses() {
		cand := theory.NearestOctave(pc, near)
		if d := absInt(cand - near); d < bestDist {
			bestDist = d
			best = cand
		}
	}
	return best
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
