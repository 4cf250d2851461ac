package arrange

import (
	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
)

// applyOutro ends the song per the spec's outro mode. "ritard"
// stretches the final bar; "hit_hold" lands a sustained closing hit.
func (a *Arranger) applyOutro(set stems.Set, spec *song.Spec) stems.Set {
	switch spec.Outro.Mode {
	case "ritard":
		return a.ritard(set, spec)
	case "hit_hold":
		return a.hitHold(set, spec)
	default:
		return set
	}
}

// ritard slows the last bar by stretching note starts and durations
// inside it. The stretch factor grows when a duration target leaves a
// residual to absorb. Notes overlapping the bar boundary are extended
// proportionally for the part inside the bar.
func (a *Arranger) ritard(set stems.Set, spec *song.Spec) stems.Set {
	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()
	totalBars := spec.TotalBars()
	barStart := float64(totalBars-1) * barDur
	songEnd := float64(totalBars) * barDur

	factor := 1.35
	if spec.TargetMinutes > 0 {
		residual := spec.TargetMinutes*60 - songEnd
		if residual > 0 {
			needed := 1 + residual/barDur
			if needed > factor {
				factor = needed
			}
		}
	}

	for instr, notes := range set {
		for i, n := range notes {
			end := n.Start + n.Dur
			switch {
			case n.Start >= barStart:
				notes[i].Start = barStart + (n.Start-barStart)*factor
				notes[i].Dur = n.Dur * factor
			case end > barStart:
				inside := end - barStart
				notes[i].Dur = n.Dur + inside*(factor-1)
			}
		}
		set[instr] = notes
	}
	return set
}

// hitHold appends one sustained closing drum hit and stretches the last
// note of every other instrument by the configured hold
func (a *Arranger) hitHold(set stems.Set, spec *song.Spec) stems.Set {
	hold := spec.Outro.HoldBeats
	if hold <= 0 {
		hold = float64(spec.BeatsPerBar())
	}
	holdSec := hold * spec.SecPerBeat()
	songEnd := float64(spec.TotalBars()*spec.BeatsPerBar()) * spec.SecPerBeat()

	set[song.InstrDrums] = append(set[song.InstrDrums],
		stems.Note{
			Start: songEnd, Dur: holdSec,
			Pitch: pattern.PitchKick, Velocity: 118, Channel: pattern.ChannelDrums,
		},
		stems.Note{
			Start: songEnd, Dur: holdSec,
			Pitch: pattern.PitchSweep, Velocity: 105, Channel: pattern.ChannelDrums,
		},
	)

	for instr, notes := range set {
		if instr == song.InstrDrums || len(notes) == 0 {
			continue
		}
		last := len(notes) - 1
		for i, n := range notes {
			if n.Start > notes[last].Start {
				last = i
			}
		}
		notes[last].Dur += holdSec
		set[instr] = notes
	}
	return set
}
