package stems

import (
	"sort"

	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/theory"
)

// refineKeys reshapes the generated keys part. Long bar-start events
// stay as block voicings. Short offbeat events become either stabs
// built from the 3rd/7th plus tension-policy intervals, or, in dense
// sections, arpeggio notes cycling the SATB voicing top-down.
// Repeated leading-tone emphasis on strong beats is suppressed.
func (b *Builder) refineKeys(events []pattern.Event, ctx pattern.SectionContext, startBar int) []pattern.Event {
	if len(events) == 0 {
		return events
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })

	keyRoot := keyPitchClass(b.spec.Key)
	leadingTone := (keyRoot + 11) % 12
	arpMode := ctx.Density >= 0.6
	arpIndex := 0
	lastStrongWasLeading := false

	out := make([]pattern.Event, 0, len(events))
	for _, ev := range events {
		bar := int(ev.Start) / ctx.BeatsPerBar
		if bar >= len(ctx.Chords) {
			bar = len(ctx.Chords) - 1
		}
		chord := ctx.Chords[bar]
		isBlock := ev.Dur > 1.0

		if isBlock {
			out = append(out, ev)
			continue
		}

		if arpMode && b.satb != nil && b.satb.Len() > 0 {
			songBar := startBar + bar
			if songBar >= b.satb.Len() {
				songBar = b.satb.Len() - 1
			}
			voicing := b.satb.VoicingAt(songBar)
			// top-down: soprano, alto, tenor, bass
			ev.Pitch = voicing[3-arpIndex%4]
			arpIndex++
			out = append(out, ev)
			continue
		}

		pitch := stabPitch(chord, b.spec.Tension, arpIndex)
		arpIndex++

		strong := int(ev.Start*4)%4 == 0
		if strong && pitch%12 == leadingTone {
			if lastStrongWasLeading {
				continue // suppress the duplicate emphasis
			}
			lastStrongWasLeading = true
		} else if strong {
			lastStrongWasLeading = false
		}

		ev.Pitch = theory.NearestOctave(pitch%12, 70)
		out = append(out, ev)
	}
	return out
}

// stabPitch cycles the 3rd, 7th, and tension intervals of a chord
func stabPitch(chord theory.Chord, tension []int, idx int) int {
	var pcs []int
	if t := chord.Third(); t >= 0 {
		pcs = append(pcs, t)
	}
	if s := chord.Seventh(); s >= 0 {
		pcs = append(pcs, s)
	}
	for _, iv := range tension {
		pcs = append(pcs, (chord.Root+iv)%12)
	}
	if len(pcs) == 0 {
		pcs = chord.PitchClasses()
	}
	return pcs[idx%len(pcs)]
}

// keyPitchClass parses the spec's key name, defaulting to C on failure
// (the spec itself was validated earlier; this guards direct callers)
func keyPitchClass(key string) int {
	c, err := theory.Parse(key)
	if err != nil {
		return 0
	}
	return c.Root
}
