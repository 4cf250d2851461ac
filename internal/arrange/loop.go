package arrange

import (
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
)

// loopDurationTolerance is the accepted deviation from the target
// duration, as a fraction
const loopDurationTolerance = 0.02

// loopToTarget appends whole template sections (cycling through the
// original order) with time-shifted duplicate notes until the projected
// duration lands within tolerance of the target. When no remaining
// section fits, the smallest one is repeated, clamped to never overrun.
func (a *Arranger) loopToTarget(set stems.Set, spec *song.Spec) stems.Set {
	target := spec.TargetMinutes * 60
	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()

	template := make([]song.Section, len(spec.Sections))
	copy(template, spec.Sections)

	// Section start offsets in the original material
	offsets := make([]float64, len(template))
	cum := 0.0
	for i, sec := range template {
		offsets[i] = cum
		cum += float64(sec.LengthBars) * barDur
	}
	projected := cum

	smallest := 0
	for i, sec := range template {
		if sec.LengthBars < template[smallest].LengthBars {
			smallest = i
		}
	}

	next := 0
	for projected < target*(1-loopDurationTolerance) {
		idx := next % len(template)
		secDur := float64(template[idx].LengthBars) * barDur
		if projected+secDur > target*(1+loopDurationTolerance) {
			// Fall back to the smallest section; stop if even that
			// would overrun
			idx = smallest
			secDur = float64(template[idx].LengthBars) * barDur
			if projected+secDur > target*(1+loopDurationTolerance) {
				break
			}
		}

		set = appendSectionCopy(set, offsets[idx], secDur, projected)
		spec.Sections = append(spec.Sections, template[idx])
		projected += secDur
		next++
	}
	return set
}

// appendSectionCopy duplicates every note whose onset falls inside the
// source span, shifted to the new position. Copies land past the
// original material so they can never match the source filter.
func appendSectionCopy(set stems.Set, srcStart, secDur, dstStart float64) stems.Set {
	for instr, notes := range set {
		end := len(notes)
		for i := 0; i < end; i++ {
			n := notes[i]
			if n.Start < srcStart || n.Start >= srcStart+secDur {
				continue
			}
			n.Start = n.Start - srcStart + dstStart
			set[instr] = append(set[instr], n)
		}
	}
	return set
}
