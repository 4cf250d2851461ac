package stems

import (
	"sort"

	"github.com/dygy/songforge/internal/pattern"
)

// refinePads merges consecutive bars holding an identical voicing into
// single sustained notes, and drops inner voices below 0.4 density so
// sparse sections keep only the frame of the chord.
func (b *Builder) refinePads(events []pattern.Event, ctx pattern.SectionContext) []pattern.Event {
	if len(events) == 0 {
		return events
	}

	// Group pitches per bar
	barPitches := make(map[int][]pattern.Event)
	for _, ev := range events {
		bar := int(ev.Start) / ctx.BeatsPerBar
		barPitches[bar] = append(barPitches[bar], ev)
	}

	if ctx.Density < 0.4 {
		for bar, evs := range barPitches {
			barPitches[bar] = outerVoices(evs)
		}
	}

	// Merge runs of bars with identical pitch sets
	var out []pattern.Event
	bar := 0
	for bar < ctx.Bars {
		evs, ok := barPitches[bar]
		if !ok {
			bar++
			continue
		}
		run := 1
		for bar+run < ctx.Bars && samePitchSet(evs, barPitches[bar+run]) {
			run++
		}
		for _, ev := range evs {
			ev.Dur = float64(run * ctx.BeatsPerBar)
			out = append(out, ev)
		}
		bar += run
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// outerVoices keeps only the lowest and highest pitches of a voicing
func outerVoices(evs []pattern.Event) []pattern.Event {
	if len(evs) <= 2 {
		return evs
	}
	lo, hi := 0, 0
	for i, ev := range evs {
		if ev.Pitch < evs[lo].Pitch {
			lo = i
		}
		if ev.Pitch > evs[hi].Pitch {
			hi = i
		}
	}
	return []pattern.Event{evs[lo], evs[hi]}
}

func samePitchSet(a, b []pattern.Event) bool {
	if len(b) == 0 || len(a) != len(b) {
		return false
	}
	seen := make(map[int]int, len(a))
	for _, ev := range a {
		seen[ev.Pitch]++
	}
	for _, ev := range b {
		seen[ev.Pitch]--
		if seen[ev.Pitch] < 0 {
			return false
		}
	}
	return true
}
