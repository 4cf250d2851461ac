package pattern

import (
	"math/rand"

	"github.com/dygy/songforge/internal/theory"
)

// SectionContext carries everything a generator needs about one section
type SectionContext struct {
	Name        string
	Index       int
	Bars        int
	BeatsPerBar int
	Density     float64
	Chords      []theory.Chord // one per bar
}

// GenerateDrums lays out kick/snare/hat grids on a 16th-note grid with
// probabilistic ghost fills. Kick placement is Euclidean; snares sit on
// backbeats; hat density scales from 8ths to 16ths.
func GenerateDrums(rng *rand.Rand, ctx SectionContext) []Event {
	stepsPerBar := ctx.BeatsPerBar * 4
	stepDur := 0.25
	var events []Event

	kickPulses := DensityPulses(ctx.Density*0.6, ctx.BeatsPerBar)
	hatEvery := 2 // 8ths
	if ctx.Density > 0.65 {
		hatEvery = 1 // 16ths
	}

	for bar := 0; bar < ctx.Bars; bar++ {
		barStart := float64(bar * ctx.BeatsPerBar)
		kicks := Euclidean(kickPulses, ctx.BeatsPerBar)

		for step := 0; step < stepsPerBar; step++ {
			t := barStart + float64(step)*stepDur
			beat := step / 4
			onBeat := step%4 == 0

			if onBeat && kicks[beat] {
				events = append(events, Event{
					Start: t, Dur: stepDur, Pitch: PitchKick,
					Velocity: 108, Channel: ChannelDrums,
				})
			}
			// Backbeat snares on beats 2 and 4 (and odd beats in odd meters)
			if onBeat && beat%2 == 1 {
				events = append(events, Event{
					Start: t, Dur: stepDur, Pitch: PitchSnare,
					Velocity: 102, Channel: ChannelDrums,
				})
			}
			if step%hatEvery == 0 {
				vel := 72
				if !onBeat {
					vel = 58
				}
				events = append(events, Event{
					Start: t, Dur: stepDur, Pitch: PitchClosedHat,
					Velocity: vel, Channel: ChannelDrums,
				})
			}
			// Ghost fill hits, denser toward the bar's end
			if !onBeat && step >= stepsPerBar-4 && rng.Float64() < ctx.Density*0.3 {
				events = append(events, Event{
					Start: t, Dur: stepDur, Pitch: PitchSnare,
					Velocity: 40 + rng.Intn(15), Channel: ChannelDrums,
				})
			}
		}
	}
	return events
}

// GenerateBass emits Euclidean root-note onsets on an 8th-note grid.
// Pitch here is provisional (root near the low register); the stem
// builder re-picks actual chord tones while walking the line.
func GenerateBass(rng *rand.Rand, ctx SectionContext) []Event {
	steps := ctx.BeatsPerBar * 2
	pulses := DensityPulses(ctx.Density, steps/2+1)
	var events []Event

	for bar := 0; bar < ctx.Bars; bar++ {
		if bar >= len(ctx.Chords) {
			break
		}
		chord := ctx.Chords[bar]
		root := chord.RootPitch(40)
		barStart := float64(bar * ctx.BeatsPerBar)
		onsets := Euclidean(pulses, steps)

		for step, on := range onsets {
			if !on {
				continue
			}
			dur := 0.5
			if rng.Float64() < 0.25 {
				dur = 1.0
			}
			events = append(events, Event{
				Start: barStart + float64(step)*0.5, Dur: dur,
				Pitch: root, Velocity: 92 + rng.Intn(10), Channel: ChannelBass,
			})
		}
	}
	return events
}

// GenerateKeys places a block chord at each bar start plus light
// probabilistic embellishments on offbeat 8ths
func GenerateKeys(rng *rand.Rand, ctx SectionContext) []Event {
	var events []Event
	for bar := 0; bar < ctx.Bars; bar++ {
		if bar >= len(ctx.Chords) {
			break
		}
		chord := ctx.Chords[bar]
		barStart := float64(bar * ctx.BeatsPerBar)

		for _, pc := range chord.PitchClasses() {
			events = append(events, Event{
				Start: barStart, Dur: float64(ctx.BeatsPerBar) * 0.9,
				Pitch:    theory.NearestOctave(pc, 64),
				Velocity: 78 + rng.Intn(8), Channel: ChannelKeys,
			})
		}

		for step := 1; step < ctx.BeatsPerBar*2; step += 2 {
			if rng.Float64() >= ctx.Density*0.35 {
				continue
			}
			pcs := chord.PitchClasses()
			pc := pcs[rng.Intn(len(pcs))]
			events = append(events, Event{
				Start: barStart + float64(step)*0.5, Dur: 0.5,
				Pitch:    theory.NearestOctave(pc, 70),
				Velocity: 60 + rng.Intn(12), Channel: ChannelKeys,
			})
		}
	}
	return events
}

// GeneratePads sustains the chord across each bar, probabilistically
// thinning bars away entirely at low density
func GeneratePads(rng *rand.Rand, ctx SectionContext) []Event {
	var events []Event
	for bar := 0; bar < ctx.Bars; bar++ {
		if bar >= len(ctx.Chords) {
			break
		}
		if ctx.Density < 0.35 && rng.Float64() > ctx.Density+0.4 {
			continue
		}
		chord := ctx.Chords[bar]
		barStart := float64(bar * ctx.BeatsPerBar)
		for _, pc := range chord.PitchClasses() {
			events = append(events, Event{
				Start: barStart, Dur: float64(ctx.BeatsPerBar),
				Pitch:    theory.NearestOctave(pc, 70),
				Velocity: 64, Channel: ChannelPads,
			})
		}
	}
	return events
}
