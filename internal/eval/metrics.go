package eval

import (
	"math"

	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
	"github.com/dygy/songforge/internal/theory"
)

// Metrics summarizes the musical quality of a built stem set
type Metrics struct {
	ChordToneCoverage float64            `json:"chord_tone_coverage"`
	VoiceSmoothness   float64            `json:"voice_smoothness"`
	IOIVariance       map[string]float64 `json:"ioi_variance"`
	CadenceFillRate   float64            `json:"cadence_fill_rate"`
	DensityAlignment  map[string]float64 `json:"density_alignment"`
}

// Evaluate computes all note-level metrics for a stem set
func Evaluate(spec *song.Spec, set stems.Set, satb *theory.SATB) Metrics {
	m := Metrics{
		ChordToneCoverage: chordToneCoverage(spec, set),
		IOIVariance:       make(map[string]float64, len(set)),
		CadenceFillRate:   cadenceFillRate(spec, set),
		DensityAlignment:  densityAlignment(spec, set),
	}
	if satb != nil {
		m.VoiceSmoothness = voiceSmoothness(satb)
	}
	for instr, notes := range set {
		m.IOIVariance[instr] = ioiVariance(notes)
	}
	return m
}

// chordToneCoverage is the fraction of pitched notes whose pitch class
// belongs to the chord active at the note's onset
func chordToneCoverage(spec *song.Spec, set stems.Set) float64 {
	barDur := spec.SecPerBeat() * float64(spec.BeatsPerBar())
	if barDur <= 0 {
		return 0
	}
	total, matched := 0, 0
	for _, instr := range []string{song.InstrBass, song.InstrKeys, song.InstrPads} {
		for _, n := range set[instr] {
			bar := int(n.Start / barDur)
			sym, ok := spec.ChordAt(bar)
			if !ok {
				continue
			}
			chord, err := theory.Parse(sym)
			if err != nil {
				continue
			}
			total++
			pc := ((n.Pitch % 12) + 12) % 12
			for _, cpc := range chord.PitchClasses() {
				if cpc == pc {
					matched++
					break
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// voiceSmoothness is the mean absolute semitone movement across all
// four SATB lines between consecutive voicings. Lower is smoother.
func voiceSmoothness(satb *theory.SATB) float64 {
	if satb.Len() < 2 {
		return 0
	}
	sum, count := 0.0, 0
	for i := 1; i < satb.Len(); i++ {
		prev := satb.VoicingAt(i - 1)
		cur := satb.VoicingAt(i)
		for v := 0; v < 4; v++ {
			sum += math.Abs(float64(cur[v] - prev[v]))
			count++
		}
	}
	return sum / float64(count)
}

// ioiVariance is the variance of inter-onset intervals in seconds
func ioiVariance(notes []stems.Note) float64 {
	if len(notes) < 3 {
		return 0
	}
	intervals := make([]float64, 0, len(notes)-1)
	for i := 1; i < len(notes); i++ {
		intervals = append(intervals, notes[i].Start-notes[i-1].Start)
	}
	mean := 0.0
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(len(intervals))
	variance := 0.0
	for _, v := range intervals {
		variance += (v - mean) * (v - mean)
	}
	return variance / float64(len(intervals))
}

// cadenceFillRate is the fraction of cadence bars whose drum note
// count exceeds the average over non-cadence bars
func cadenceFillRate(spec *song.Spec, set stems.Set) float64 {
	barDur := spec.SecPerBeat() * float64(spec.BeatsPerBar())
	if barDur <= 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, n := range set[song.InstrDrums] {
		counts[int(n.Start/barDur)]++
	}

	var cadenceBars []int
	normalSum, normalBars := 0, 0
	for bar := 0; bar < spec.TotalBars(); bar++ {
		if _, ok := spec.IsCadenceBar(bar); ok {
			cadenceBars = append(cadenceBars, bar)
		} else {
			normalSum += counts[bar]
			normalBars++
		}
	}
	if len(cadenceBars) == 0 || normalBars == 0 {
		return 0
	}
	avg := float64(normalSum) / float64(normalBars)
	filled := 0
	for _, bar := range cadenceBars {
		if float64(counts[bar]) > avg {
			filled++
		}
	}
	return float64(filled) / float64(len(cadenceBars))
}

// densityAlignment reports per-section normalized actual note density
// against the configured density. 1.0 means perfect alignment.
func densityAlignment(spec *song.Spec, set stems.Set) map[string]float64 {
	barDur := spec.SecPerBeat() * float64(spec.BeatsPerBar())
	out := make(map[string]float64, len(spec.Sections))
	if barDur <= 0 {
		return out
	}

	// notes per bar per section, across all instruments
	perSection := make(map[string]float64)
	bars := make(map[string]float64)
	for bar := 0; bar < spec.TotalBars(); bar++ {
		sec, _, ok := spec.SectionAt(bar)
		if !ok {
			continue
		}
		bars[sec.Name]++
		start := float64(bar) * barDur
		end := start + barDur
		for _, notes := range set {
			for _, n := range notes {
				if n.Start >= start && n.Start < end {
					perSection[sec.Name]++
				}
			}
		}
	}

	maxRate := 0.0
	rates := make(map[string]float64, len(bars))
	for name, b := range bars {
		if b == 0 {
			continue
		}
		rate := perSection[name] / b
		rates[name] = rate
		if rate > maxRate {
			maxRate = rate
		}
	}
	for name, rate := range rates {
		expected := spec.SectionDensity(name)
		if maxRate == 0 || expected == 0 {
			out[name] = 0
			continue
		}
		actual := rate / maxRate
		out[name] = 1 - math.Abs(actual-expected)
	}
	return out
}
